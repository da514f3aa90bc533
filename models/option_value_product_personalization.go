package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OptionValueProductPersonalization binds a catalog option value to a list personalization at a
// position, with its own price.
type OptionValueProductPersonalization struct {
	ID                       uint                    `gorm:"primaryKey" json:"id"`
	ProductPersonalizationID uint                    `gorm:"not null;index" json:"product_personalization_id"`
	ProductPersonalization   *ProductPersonalization `gorm:"foreignKey:ProductPersonalizationID" json:"-"`
	OptionValueID            uint                    `gorm:"not null;index" json:"option_value_id"`
	OptionValue              *OptionValue            `gorm:"foreignKey:OptionValueID" json:"option_value,omitempty"`
	Position                 int                     `gorm:"not null" json:"position"`
	Calculator               *Calculator             `gorm:"polymorphic:Calculable" json:"calculator"`
	CreatedAt                time.Time               `json:"created_at"`
	UpdatedAt                time.Time               `json:"updated_at"`
}

// TableName specifies the table name for the OptionValueProductPersonalization model
func (OptionValueProductPersonalization) TableName() string {
	return "option_value_product_personalizations"
}

// Amount is this choice's own calculator amount
func (o *OptionValueProductPersonalization) Amount() decimal.Decimal {
	return o.Calculator.Amount()
}

// ProductPersonalizationAmount asks the parent definition for the price of the tier at this
// choice's position. Zero when the parent is not loaded.
func (o *OptionValueProductPersonalization) ProductPersonalizationAmount() decimal.Decimal {
	if o.ProductPersonalization == nil {
		return decimal.Zero
	}
	return o.ProductPersonalization.ResolvePrice(o.Position - 1)
}
