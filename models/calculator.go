package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalculatorFlatRate is the only calculator strategy personalizations use
const CalculatorFlatRate = "flat_rate"

// PriceCalculator produces a monetary amount from stored configuration
type PriceCalculator interface {
	Amount() decimal.Decimal
	Currency() string
}

// FlatRate always charges its preferred amount
type FlatRate struct {
	PreferredAmount   decimal.Decimal
	PreferredCurrency string
}

func (f FlatRate) Amount() decimal.Decimal { return f.PreferredAmount }
func (f FlatRate) Currency() string        { return f.PreferredCurrency }

// Calculator is the persisted configuration of a price calculator. It is owned 1:1 by a
// ProductPersonalization or an OptionValueProductPersonalization (polymorphic owner).
type Calculator struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	Type              string          `gorm:"size:50;not null" json:"type"`
	CalculableType    string          `gorm:"size:100;not null;index:idx_calculable" json:"-"`
	CalculableID      uint            `gorm:"not null;index:idx_calculable" json:"-"`
	PreferredAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"preferred_amount"`
	PreferredCurrency string          `gorm:"size:3" json:"preferred_currency"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Calculator model
func (Calculator) TableName() string {
	return "calculators"
}

// NewFlatRateCalculator returns an unsaved flat rate calculator configuration
func NewFlatRateCalculator(amount decimal.Decimal, currency string) *Calculator {
	return &Calculator{Type: CalculatorFlatRate, PreferredAmount: amount, PreferredCurrency: currency}
}

// Strategy builds the calculator implementation for the stored type.
// ok is false for unknown types.
func (c *Calculator) Strategy() (calc PriceCalculator, ok bool) {
	if c == nil {
		return nil, false
	}
	switch c.Type {
	case CalculatorFlatRate:
		return FlatRate{PreferredAmount: c.PreferredAmount, PreferredCurrency: c.PreferredCurrency}, true
	}
	return nil, false
}

// Amount is the configured amount, or zero when there is no usable calculator
func (c *Calculator) Amount() decimal.Decimal {
	calc, ok := c.Strategy()
	if !ok {
		return decimal.Zero
	}
	return calc.Amount()
}

// IsKnownCalculatorType reports whether t names a supported strategy
func IsKnownCalculatorType(t string) bool {
	return t == CalculatorFlatRate
}
