package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order states
const (
	OrderStateCart     = "cart"
	OrderStateComplete = "complete"
)

// Order is a customer's cart or placed order
type Order struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CustomerID uint           `gorm:"not null;index" json:"customer_id"` // foreign key to users table
	Customer   *User          `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	State      string         `gorm:"size:20;not null;default:'cart'" json:"state"` // cart, complete
	Currency   string         `gorm:"size:3;not null" json:"currency"`
	LineItems  []LineItem     `gorm:"foreignKey:OrderID" json:"line_items"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// IsEditable reports whether line items may still change
func (o *Order) IsEditable() bool {
	return o.State == OrderStateCart
}

// ItemTotal sums the amount of every line item
func (o *Order) ItemTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range o.LineItems {
		total = total.Add(o.LineItems[i].Amount())
	}
	return total
}

// LineItem is one product in an order, with its personalization snapshots
type LineItem struct {
	ID               uint                      `gorm:"primaryKey" json:"id"`
	OrderID          uint                      `gorm:"not null;index" json:"order_id"`
	ProductID        uint                      `gorm:"not null;index" json:"product_id"` // plain reference, products may be deleted later
	Quantity         int                       `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price            decimal.Decimal           `gorm:"type:decimal(10,2);not null" json:"price"` // base product price at add time
	Currency         string                    `gorm:"size:3;not null" json:"currency"`
	Personalizations []LineItemPersonalization `gorm:"foreignKey:LineItemID" json:"personalizations"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// TableName specifies the table name for the LineItem model
func (LineItem) TableName() string {
	return "line_items"
}

// PersonalizationTotal sums the stored personalization price snapshots
func (li *LineItem) PersonalizationTotal() decimal.Decimal {
	total := decimal.Zero
	for i := range li.Personalizations {
		total = total.Add(li.Personalizations[i].Price)
	}
	return total
}

// UnitPrice is the base price plus every personalization
func (li *LineItem) UnitPrice() decimal.Decimal {
	return li.Price.Add(li.PersonalizationTotal())
}

// Amount is the unit price times the quantity
func (li *LineItem) Amount() decimal.Decimal {
	return li.UnitPrice().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// MatchesPersonalizations reports whether snapshots describe exactly this line item's
// personalizations, in any order.
func (li *LineItem) MatchesPersonalizations(snapshots []Snapshot) bool {
	if len(snapshots) != len(li.Personalizations) {
		return false
	}
	used := make([]bool, len(li.Personalizations))
	for i := range snapshots {
		found := false
		for j := range li.Personalizations {
			if used[j] || !li.Personalizations[j].Match(&snapshots[i]) {
				continue
			}
			used[j] = true
			found = true
			break
		}
		if !found {
			return false
		}
	}
	return true
}
