package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/personalization-api/logger"
	"github.com/kendall-kelly/personalization-api/models"
	"gorm.io/gorm"
)

// PersonalizationCapture is what a customer entered for one definition: typed text for text
// definitions, an option value for list definitions.
type PersonalizationCapture struct {
	ProductPersonalizationID uint
	Value                    string
	OptionValueID            *uint
}

func (c PersonalizationCapture) isBlank() bool {
	return strings.TrimSpace(c.Value) == "" && c.OptionValueID == nil
}

// AddItemInput describes a product added to a cart
type AddItemInput struct {
	ProductID        uint
	Quantity         int
	Personalizations []PersonalizationCapture
}

// CartService manages orders in the cart state and their personalized line items
type CartService struct {
	db       *gorm.DB
	log      *logger.Logger
	currency string
}

// NewCartService creates a cart service. currency is used for new orders.
func NewCartService(db *gorm.DB, log *logger.Logger, currency string) *CartService {
	if log == nil {
		log = logger.Get()
	}
	return &CartService{db: db, log: log.With("service", "cart"), currency: currency}
}

// CreateOrder opens an empty cart for a customer
func (s *CartService) CreateOrder(ctx context.Context, customerID uint) (*models.Order, error) {
	order := &models.Order{CustomerID: customerID, State: models.OrderStateCart, Currency: s.currency}
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	s.log.Info("order created", "order_id", order.ID, "customer_id", customerID)
	return order, nil
}

// GetOrder loads a customer's order with line items and personalization snapshots
func (s *CartService) GetOrder(ctx context.Context, customerID, orderID uint) (*models.Order, error) {
	return findOrder(s.db.WithContext(ctx), customerID, orderID)
}

func findOrder(db *gorm.DB, customerID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := db.
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("LineItems.Personalizations", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("customer_id = ?", customerID).
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

func findEditableOrder(db *gorm.DB, customerID, orderID uint) (*models.Order, error) {
	order, err := findOrder(db, customerID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsEditable() {
		return nil, ErrOrderNotEditable
	}
	return order, nil
}

func findLineItem(order *models.Order, lineItemID uint) (*models.LineItem, error) {
	for i := range order.LineItems {
		if order.LineItems[i].ID == lineItemID {
			return &order.LineItems[i], nil
		}
	}
	return nil, ErrLineItemNotFound
}

// AddItem adds a product to the cart. The captures are frozen into personalization snapshots; if a
// line item of the same product already carries the same snapshots, its quantity grows instead of a
// new line item being created. merged reports which of the two happened.
func (s *CartService) AddItem(ctx context.Context, customerID, orderID uint, input AddItemInput, t models.Translator) (item *models.LineItem, merged bool, err error) {
	if input.Quantity <= 0 {
		input.Quantity = 1
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := findEditableOrder(tx, customerID, orderID)
		if err != nil {
			return err
		}
		product, err := loadProduct(tx, input.ProductID)
		if err != nil {
			return err
		}

		personalizations, err := buildPersonalizations(ctx, tx, product, input.Personalizations, order.Currency, t)
		if err != nil {
			return err
		}
		snapshots := snapshotsOf(personalizations)

		if existing := matchingLineItem(order, product.ID, snapshots, 0); existing != nil {
			existing.Quantity += input.Quantity
			if err := tx.Model(existing).Update("quantity", existing.Quantity).Error; err != nil {
				return fmt.Errorf("failed to update line item: %w", err)
			}
			item, merged = existing, true
			return nil
		}

		item = &models.LineItem{
			OrderID:          order.ID,
			ProductID:        product.ID,
			Quantity:         input.Quantity,
			Price:            product.Price,
			Currency:         order.Currency,
			Personalizations: personalizations,
		}
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create line item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.log.Info("line item added",
		"order_id", orderID,
		"line_item_id", item.ID,
		"product_id", input.ProductID,
		"merged", merged,
	)
	return item, merged, nil
}

// ReplacePersonalizations swaps the snapshots of a line item for ones built from captures. When the
// result is identical to another line item of the same product, the two are merged and the returned
// line item is the surviving one.
func (s *CartService) ReplacePersonalizations(ctx context.Context, customerID, orderID, lineItemID uint, captures []PersonalizationCapture, t models.Translator) (item *models.LineItem, merged bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := findEditableOrder(tx, customerID, orderID)
		if err != nil {
			return err
		}
		current, err := findLineItem(order, lineItemID)
		if err != nil {
			return err
		}
		product, err := loadProduct(tx, current.ProductID)
		if err != nil {
			return err
		}

		personalizations, err := buildPersonalizations(ctx, tx, product, captures, order.Currency, t)
		if err != nil {
			return err
		}

		if err := tx.Where("line_item_id = ?", current.ID).Delete(&models.LineItemPersonalization{}).Error; err != nil {
			return fmt.Errorf("failed to delete personalizations: %w", err)
		}

		if other := matchingLineItem(order, product.ID, snapshotsOf(personalizations), current.ID); other != nil {
			other.Quantity += current.Quantity
			if err := tx.Model(other).Update("quantity", other.Quantity).Error; err != nil {
				return fmt.Errorf("failed to update line item: %w", err)
			}
			if err := tx.Delete(&models.LineItem{}, current.ID).Error; err != nil {
				return fmt.Errorf("failed to delete line item: %w", err)
			}
			item, merged = other, true
			return nil
		}

		for i := range personalizations {
			personalizations[i].LineItemID = current.ID
		}
		if len(personalizations) > 0 {
			if err := tx.Create(&personalizations).Error; err != nil {
				return fmt.Errorf("failed to create personalizations: %w", err)
			}
		}
		current.Personalizations = personalizations
		item = current
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	s.log.Info("line item personalizations replaced",
		"order_id", orderID,
		"line_item_id", lineItemID,
		"merged", merged,
	)
	return item, merged, nil
}

// RemoveItem deletes a line item and its snapshots
func (s *CartService) RemoveItem(ctx context.Context, customerID, orderID, lineItemID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := findEditableOrder(tx, customerID, orderID)
		if err != nil {
			return err
		}
		if _, err := findLineItem(order, lineItemID); err != nil {
			return err
		}
		if err := tx.Where("line_item_id = ?", lineItemID).Delete(&models.LineItemPersonalization{}).Error; err != nil {
			return fmt.Errorf("failed to delete personalizations: %w", err)
		}
		if err := tx.Delete(&models.LineItem{}, lineItemID).Error; err != nil {
			return fmt.Errorf("failed to delete line item: %w", err)
		}
		s.log.Info("line item removed", "order_id", orderID, "line_item_id", lineItemID)
		return nil
	})
}

// CompleteOrder closes the cart. Snapshots are no longer editable afterwards.
func (s *CartService) CompleteOrder(ctx context.Context, customerID, orderID uint) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = findEditableOrder(tx, customerID, orderID)
		if err != nil {
			return err
		}
		if len(order.LineItems) == 0 {
			return ErrOrderEmpty
		}
		order.State = models.OrderStateComplete
		return tx.Model(order).Update("state", order.State).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order completed", "order_id", order.ID, "item_total", order.ItemTotal().StringFixed(2))
	return order, nil
}

func loadProduct(tx *gorm.DB, productID uint) (*models.Product, error) {
	var product models.Product
	db := tx.Preload("Personalizations", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
	if err := preloadPersonalizations(db, "Personalizations.").First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

// buildPersonalizations turns captures into validated snapshots, one per captured definition in
// definition order. A later capture for the same definition replaces an earlier one.
func buildPersonalizations(ctx context.Context, tx *gorm.DB, product *models.Product, captures []PersonalizationCapture, currency string, t models.Translator) ([]models.LineItemPersonalization, error) {
	var all models.ValidationErrors

	byDefinition := make(map[uint]PersonalizationCapture, len(captures))
	for _, capture := range captures {
		if !definesPersonalization(product, capture.ProductPersonalizationID) {
			all = append(all, models.NewFieldError(t, models.BaseField,
				"errors.line_item_personalization_unknown_definition",
				map[string]interface{}{"id": capture.ProductPersonalizationID}))
			continue
		}
		byDefinition[capture.ProductPersonalizationID] = capture
	}

	finder := optionValueFinder{db: tx}
	var personalizations []models.LineItemPersonalization
	for i := range product.Personalizations {
		def := &product.Personalizations[i]
		capture, ok := byDefinition[def.ID]
		if !ok || capture.isBlank() {
			if def.Required {
				all = append(all, models.NewFieldError(t, def.Name,
					"errors.line_item_personalization_value_is_required",
					map[string]interface{}{"name": def.Name}))
			}
			continue
		}

		lip := models.LineItemPersonalization{
			ProductPersonalizationID: def.ID,
			ProductPersonalization:   def,
			Name:                     def.Name,
			Currency:                 currency,
		}

		switch {
		case def.IsList() && capture.OptionValueID != nil:
			if err := lip.AssignOptionValue(ctx, finder, *capture.OptionValueID); err != nil {
				return nil, err
			}
			if !lip.HasListChoice() {
				all = append(all, invalidChoice(t, def))
				continue
			}
		case def.IsText() && capture.OptionValueID == nil:
			lip.Value = capture.Value
		default:
			all = append(all, invalidChoice(t, def))
			continue
		}

		if verrs, ok := models.AsValidationErrors(lip.Validate(t)); ok {
			all = append(all, verrs...)
			continue
		}
		lip.Price = lip.PriceContribution()
		personalizations = append(personalizations, lip)
	}

	if len(all) > 0 {
		return nil, all
	}
	return personalizations, nil
}

func invalidChoice(t models.Translator, def *models.ProductPersonalization) models.FieldError {
	return models.NewFieldError(t, def.Name, "errors.line_item_personalization_invalid_choice",
		map[string]interface{}{"name": def.Name})
}

func definesPersonalization(product *models.Product, id uint) bool {
	for _, def := range product.Personalizations {
		if def.ID == id {
			return true
		}
	}
	return false
}

func snapshotsOf(personalizations []models.LineItemPersonalization) []models.Snapshot {
	snapshots := make([]models.Snapshot, 0, len(personalizations))
	for i := range personalizations {
		snapshots = append(snapshots, personalizations[i].Snapshot())
	}
	return snapshots
}

// matchingLineItem finds a line item of productID, other than skipID, carrying exactly snapshots
func matchingLineItem(order *models.Order, productID uint, snapshots []models.Snapshot, skipID uint) *models.LineItem {
	for i := range order.LineItems {
		li := &order.LineItems[i]
		if li.ID == skipID || li.ProductID != productID {
			continue
		}
		if li.MatchesPersonalizations(snapshots) {
			return li
		}
	}
	return nil
}
