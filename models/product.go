package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog item that can carry personalization definitions
type Product struct {
	ID               uint                     `gorm:"primaryKey" json:"id"`
	Name             string                   `gorm:"size:255;not null" json:"name"`
	Description      string                   `gorm:"type:text" json:"description"`
	Price            decimal.Decimal          `gorm:"type:decimal(10,2);not null" json:"price"`
	Currency         string                   `gorm:"size:3;not null" json:"currency"`
	Personalizations []ProductPersonalization `gorm:"foreignKey:ProductID" json:"personalizations,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
