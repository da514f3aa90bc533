package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/personalization-api/logger"
	"github.com/kendall-kelly/personalization-api/models"
	"gorm.io/gorm"
)

// CatalogService manages products and option values
type CatalogService struct {
	db       *gorm.DB
	log      *logger.Logger
	currency string
}

// NewCatalogService creates a catalog service. currency is used for products created without one.
func NewCatalogService(db *gorm.DB, log *logger.Logger, currency string) *CatalogService {
	if log == nil {
		log = logger.Get()
	}
	return &CatalogService{db: db, log: log.With("service", "catalog"), currency: currency}
}

// preloadPersonalizations loads definitions with their calculators and position-ordered choices
func preloadPersonalizations(db *gorm.DB, prefix string) *gorm.DB {
	return db.
		Preload(prefix+"Calculator").
		Preload(prefix+"OptionValueProductPersonalizations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload(prefix + "OptionValueProductPersonalizations.Calculator").
		Preload(prefix + "OptionValueProductPersonalizations.OptionValue")
}

// CreateProduct saves a new product
func (s *CatalogService) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.Currency == "" {
		product.Currency = s.currency
	}
	if err := s.db.WithContext(ctx).Omit("Personalizations").Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	s.log.Info("product created", "product_id", product.ID)
	return nil
}

// GetProduct loads a product with its personalization definitions
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	db := s.db.WithContext(ctx).Preload("Personalizations", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
	if err := preloadPersonalizations(db, "Personalizations.").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

// DestroyProduct deletes a product together with its definitions, their choices and calculators.
// Line items keep their snapshots.
func (s *CatalogService) DestroyProduct(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		var defs []models.ProductPersonalization
		if err := tx.Preload("OptionValueProductPersonalizations").Where("product_id = ?", id).Find(&defs).Error; err != nil {
			return err
		}
		for i := range defs {
			if err := destroyPersonalization(tx, &defs[i]); err != nil {
				return err
			}
		}

		if err := tx.Delete(&product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		s.log.Info("product destroyed", "product_id", id, "personalizations", len(defs))
		return nil
	})
}

// CreateOptionValue saves a new catalog option value
func (s *CatalogService) CreateOptionValue(ctx context.Context, optionValue *models.OptionValue) error {
	if err := s.db.WithContext(ctx).Omit("OptionValueProductPersonalizations").Create(optionValue).Error; err != nil {
		return fmt.Errorf("failed to create option value: %w", err)
	}
	return nil
}

// ListOptionValues returns every option value ordered by name
func (s *CatalogService) ListOptionValues(ctx context.Context) ([]models.OptionValue, error) {
	var values []models.OptionValue
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&values).Error; err != nil {
		return nil, fmt.Errorf("failed to list option values: %w", err)
	}
	return values, nil
}

// FindOptionValue implements models.OptionValueFinder
func (s *CatalogService) FindOptionValue(ctx context.Context, id uint) (*models.OptionValue, error) {
	return optionValueFinder{db: s.db}.FindOptionValue(ctx, id)
}

// SetOptionValueImage stores the swatch image key and returns the key it replaced
func (s *CatalogService) SetOptionValueImage(ctx context.Context, id uint, key string) (previous *string, err error) {
	var optionValue models.OptionValue
	db := s.db.WithContext(ctx)
	if err := db.First(&optionValue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("option value %d: %w", id, models.ErrOptionValueNotFound)
		}
		return nil, err
	}

	previous = optionValue.ImageS3Key
	if err := db.Model(&optionValue).Update("image_s3_key", key).Error; err != nil {
		return nil, fmt.Errorf("failed to update option value image: %w", err)
	}
	return previous, nil
}

// optionValueFinder resolves option values with their choices through db, which may be a transaction
type optionValueFinder struct {
	db *gorm.DB
}

func (f optionValueFinder) FindOptionValue(ctx context.Context, id uint) (*models.OptionValue, error) {
	var optionValue models.OptionValue
	err := f.db.WithContext(ctx).
		Preload("OptionValueProductPersonalizations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		First(&optionValue, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("option value %d: %w", id, models.ErrOptionValueNotFound)
		}
		return nil, fmt.Errorf("failed to load option value: %w", err)
	}
	return &optionValue, nil
}
