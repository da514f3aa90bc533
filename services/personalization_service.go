package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/personalization-api/logger"
	"github.com/kendall-kelly/personalization-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CalculatorAttributes configures the calculator of a definition or choice.
// A nil PreferredAmount keeps the stored amount.
type CalculatorAttributes struct {
	ID              *uint
	Type            string
	PreferredAmount *decimal.Decimal
}

// OptionChoiceUpsert creates (ID nil) or updates one option choice of a list definition
type OptionChoiceUpsert struct {
	ID            *uint
	OptionValueID uint
	Position      int
	Calculator    *CalculatorAttributes
}

// PersonalizationUpsert creates (ID nil) or updates one definition and its nested choices.
// Nil attributes are left as stored; on create they start at their zero value.
type PersonalizationUpsert struct {
	ID            *uint
	Name          *string
	Description   *string
	Kind          *string
	Required      *bool
	Limit         *int
	Calculator    *CalculatorAttributes
	OptionUpserts []OptionChoiceUpsert
	OptionDeletes []uint
}

// PersonalizationBatch is one submission of a product's personalization form.
// It is applied atomically: either every change is stored or none is.
type PersonalizationBatch struct {
	Upserts []PersonalizationUpsert
	Deletes []uint
}

// PersonalizationService stores personalization definitions
type PersonalizationService struct {
	db       *gorm.DB
	log      *logger.Logger
	currency string
}

// NewPersonalizationService creates a personalization service. currency is stamped on calculators.
func NewPersonalizationService(db *gorm.DB, log *logger.Logger, currency string) *PersonalizationService {
	if log == nil {
		log = logger.Get()
	}
	return &PersonalizationService{db: db, log: log.With("service", "personalization"), currency: currency}
}

// List returns the definitions of a product
func (s *PersonalizationService) List(ctx context.Context, productID uint) ([]models.ProductPersonalization, error) {
	if err := s.db.WithContext(ctx).Select("id").First(&models.Product{}, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return loadPersonalizations(s.db.WithContext(ctx), productID)
}

func loadPersonalizations(db *gorm.DB, productID uint) ([]models.ProductPersonalization, error) {
	var defs []models.ProductPersonalization
	err := preloadPersonalizations(db, "").
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&defs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load personalizations: %w", err)
	}
	return defs, nil
}

// Save applies batch to the definitions of a product. Every resulting definition is validated
// before anything is written; validation failures are returned as models.ValidationErrors.
func (s *PersonalizationService) Save(ctx context.Context, productID uint, batch PersonalizationBatch, t models.Translator) ([]models.ProductPersonalization, error) {
	var saved []models.ProductPersonalization
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Product{}, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		existing, err := loadPersonalizations(tx, productID)
		if err != nil {
			return err
		}
		byID := make(map[uint]*models.ProductPersonalization, len(existing))
		for i := range existing {
			byID[existing[i].ID] = &existing[i]
		}

		deleting := make(map[uint]bool, len(batch.Deletes))
		for _, id := range batch.Deletes {
			if _, ok := byID[id]; !ok {
				return fmt.Errorf("personalization %d: %w", id, ErrPersonalizationNotFound)
			}
			deleting[id] = true
		}

		var (
			touched        []*models.ProductPersonalization
			removedChoices []models.OptionValueProductPersonalization
			created        []*models.ProductPersonalization
			renamed        []uint
		)
		for _, up := range batch.Upserts {
			def := &models.ProductPersonalization{ProductID: productID}
			if up.ID != nil {
				found, ok := byID[*up.ID]
				if !ok {
					return fmt.Errorf("personalization %d: %w", *up.ID, ErrPersonalizationNotFound)
				}
				if deleting[*up.ID] {
					continue
				}
				def = found
			} else {
				created = append(created, def)
			}

			storedName := def.Name
			s.assignAttributes(def, up)
			if def.ID != 0 && def.Name != storedName {
				renamed = append(renamed, def.ID)
			}
			removed, err := s.assignChoices(def, up)
			if err != nil {
				return err
			}
			removedChoices = append(removedChoices, removed...)
			touched = append(touched, def)
		}

		var final []models.ProductPersonalization
		for i := range existing {
			if !deleting[existing[i].ID] {
				final = append(final, existing[i])
			}
		}
		for _, def := range created {
			final = append(final, *def)
		}

		if err := validateDefinitions(final, t); err != nil {
			return err
		}
		if err := ensureOptionValuesExist(tx, final); err != nil {
			return err
		}

		for _, id := range batch.Deletes {
			if err := destroyPersonalization(tx, byID[id]); err != nil {
				return err
			}
		}
		if err := destroyChoices(tx, removedChoices); err != nil {
			return err
		}
		if err := releaseNames(tx, renamed); err != nil {
			return err
		}
		for _, def := range touched {
			if err := savePersonalization(tx, def); err != nil {
				return err
			}
		}

		saved, err = loadPersonalizations(tx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("personalizations saved",
		"product_id", productID,
		"upserts", len(batch.Upserts),
		"deletes", len(batch.Deletes),
	)
	return saved, nil
}

// Destroy deletes one definition with its choices and calculators
func (s *PersonalizationService) Destroy(ctx context.Context, productID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var def models.ProductPersonalization
		err := tx.Preload("OptionValueProductPersonalizations").
			Where("product_id = ?", productID).
			First(&def, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPersonalizationNotFound
			}
			return err
		}
		if err := destroyPersonalization(tx, &def); err != nil {
			return err
		}
		s.log.Info("personalization destroyed", "product_id", productID, "personalization_id", id)
		return nil
	})
}

func (s *PersonalizationService) assignAttributes(def *models.ProductPersonalization, up PersonalizationUpsert) {
	if up.Name != nil {
		def.Name = *up.Name
	}
	if up.Description != nil {
		def.Description = *up.Description
	}
	if up.Kind != nil {
		def.Kind = *up.Kind
	}
	if up.Required != nil {
		def.Required = *up.Required
	}
	if up.Limit != nil {
		def.Limit = *up.Limit
	}
	if up.Calculator != nil {
		def.Calculator = s.assignCalculator(def.Calculator, *up.Calculator)
	}
	def.Normalize()
}

func (s *PersonalizationService) assignCalculator(calc *models.Calculator, attrs CalculatorAttributes) *models.Calculator {
	if calc == nil {
		calc = &models.Calculator{Type: models.CalculatorFlatRate}
	}
	if attrs.Type != "" {
		calc.Type = attrs.Type
	}
	if attrs.PreferredAmount != nil {
		calc.PreferredAmount = *attrs.PreferredAmount
	}
	calc.PreferredCurrency = s.currency
	return calc
}

// assignChoices applies nested choice changes in memory and returns the persisted choices to destroy
func (s *PersonalizationService) assignChoices(def *models.ProductPersonalization, up PersonalizationUpsert) ([]models.OptionValueProductPersonalization, error) {
	deleting := make(map[uint]bool, len(up.OptionDeletes))
	for _, id := range up.OptionDeletes {
		if !hasChoice(def, id) {
			return nil, fmt.Errorf("option choice %d: %w", id, ErrOptionChoiceNotFound)
		}
		deleting[id] = true
	}

	for _, oc := range up.OptionUpserts {
		var choice *models.OptionValueProductPersonalization
		if oc.ID != nil {
			if deleting[*oc.ID] {
				continue
			}
			for i := range def.OptionValueProductPersonalizations {
				if def.OptionValueProductPersonalizations[i].ID == *oc.ID {
					choice = &def.OptionValueProductPersonalizations[i]
					break
				}
			}
			if choice == nil {
				return nil, fmt.Errorf("option choice %d: %w", *oc.ID, ErrOptionChoiceNotFound)
			}
		} else {
			def.OptionValueProductPersonalizations = append(def.OptionValueProductPersonalizations,
				models.OptionValueProductPersonalization{Position: nextPosition(def)})
			choice = &def.OptionValueProductPersonalizations[len(def.OptionValueProductPersonalizations)-1]
		}

		if oc.OptionValueID != 0 {
			choice.OptionValueID = oc.OptionValueID
		}
		if oc.Position > 0 {
			choice.Position = oc.Position
		}
		if oc.Calculator != nil {
			choice.Calculator = s.assignCalculator(choice.Calculator, *oc.Calculator)
		}
		if choice.Calculator == nil {
			choice.Calculator = s.assignCalculator(nil, CalculatorAttributes{})
		}
	}

	var (
		kept    []models.OptionValueProductPersonalization
		removed []models.OptionValueProductPersonalization
	)
	for _, choice := range def.OptionValueProductPersonalizations {
		if choice.ID != 0 && deleting[choice.ID] {
			removed = append(removed, choice)
			continue
		}
		kept = append(kept, choice)
	}
	def.OptionValueProductPersonalizations = kept
	return removed, nil
}

// releaseNames moves renamed definitions to placeholder names so that names swapped inside one
// batch do not collide on the (product_id, name) unique index while rows are written one by one.
func releaseNames(tx *gorm.DB, ids []uint) error {
	for _, id := range ids {
		err := tx.Model(&models.ProductPersonalization{}).
			Where("id = ?", id).
			UpdateColumn("name", fmt.Sprintf("\x1frenaming-%d", id)).Error
		if err != nil {
			return fmt.Errorf("failed to release personalization name: %w", err)
		}
	}
	return nil
}

func hasChoice(def *models.ProductPersonalization, id uint) bool {
	for _, choice := range def.OptionValueProductPersonalizations {
		if choice.ID == id {
			return true
		}
	}
	return false
}

func nextPosition(def *models.ProductPersonalization) int {
	max := 0
	for _, choice := range def.OptionValueProductPersonalizations {
		if choice.Position > max {
			max = choice.Position
		}
	}
	return max + 1
}

// validateDefinitions runs record and sibling rules over the definitions a product will have
func validateDefinitions(defs []models.ProductPersonalization, t models.Translator) error {
	var all models.ValidationErrors
	for i := range defs {
		if verrs, ok := models.AsValidationErrors(defs[i].Validate(t)); ok {
			all = append(all, verrs...)
		}
	}
	if verrs, ok := models.AsValidationErrors(models.ValidateUniqueNames(defs, t)); ok {
		all = append(all, verrs...)
	}
	if len(all) > 0 {
		return all
	}
	return nil
}

func ensureOptionValuesExist(tx *gorm.DB, defs []models.ProductPersonalization) error {
	ids := make(map[uint]bool)
	for _, def := range defs {
		for _, choice := range def.OptionValueProductPersonalizations {
			ids[choice.OptionValueID] = true
		}
	}
	if len(ids) == 0 {
		return nil
	}

	list := make([]uint, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	var count int64
	if err := tx.Model(&models.OptionValue{}).Where("id IN ?", list).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(list)) {
		return fmt.Errorf("personalization choices: %w", models.ErrOptionValueNotFound)
	}
	return nil
}

func savePersonalization(tx *gorm.DB, def *models.ProductPersonalization) error {
	if err := tx.Omit(clause.Associations).Save(def).Error; err != nil {
		return fmt.Errorf("failed to save personalization: %w", err)
	}
	if err := saveCalculator(tx, def.Calculator, models.ProductPersonalization{}.TableName(), def.ID); err != nil {
		return err
	}

	for i := range def.OptionValueProductPersonalizations {
		choice := &def.OptionValueProductPersonalizations[i]
		choice.ProductPersonalizationID = def.ID
		if err := tx.Omit(clause.Associations).Save(choice).Error; err != nil {
			return fmt.Errorf("failed to save option choice: %w", err)
		}
		if err := saveCalculator(tx, choice.Calculator, models.OptionValueProductPersonalization{}.TableName(), choice.ID); err != nil {
			return err
		}
	}
	return nil
}

func saveCalculator(tx *gorm.DB, calc *models.Calculator, ownerType string, ownerID uint) error {
	if calc == nil {
		return nil
	}
	calc.CalculableType = ownerType
	calc.CalculableID = ownerID
	if err := tx.Save(calc).Error; err != nil {
		return fmt.Errorf("failed to save calculator: %w", err)
	}
	return nil
}

// destroyPersonalization removes a definition, its choices and every owned calculator
func destroyPersonalization(tx *gorm.DB, def *models.ProductPersonalization) error {
	if err := destroyChoices(tx, def.OptionValueProductPersonalizations); err != nil {
		return err
	}
	err := tx.Where("calculable_type = ? AND calculable_id = ?", models.ProductPersonalization{}.TableName(), def.ID).
		Delete(&models.Calculator{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete calculator: %w", err)
	}
	if err := tx.Delete(&models.ProductPersonalization{}, def.ID).Error; err != nil {
		return fmt.Errorf("failed to delete personalization: %w", err)
	}
	return nil
}

// destroyChoices removes choices and their calculators. Line items that referenced a choice keep
// their snapshot and lose the reference.
func destroyChoices(tx *gorm.DB, choices []models.OptionValueProductPersonalization) error {
	if len(choices) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(choices))
	for _, choice := range choices {
		ids = append(ids, choice.ID)
	}

	err := tx.Model(&models.LineItemPersonalization{}).
		Where("option_value_product_personalization_id IN ?", ids).
		Update("option_value_product_personalization_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to detach line items: %w", err)
	}
	err = tx.Where("calculable_type = ? AND calculable_id IN ?", models.OptionValueProductPersonalization{}.TableName(), ids).
		Delete(&models.Calculator{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete choice calculators: %w", err)
	}
	if err := tx.Delete(&models.OptionValueProductPersonalization{}, ids).Error; err != nil {
		return fmt.Errorf("failed to delete option choices: %w", err)
	}
	return nil
}
