package models

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Personalization kinds
const (
	KindText = "text"
	KindList = "list"
)

const (
	// TextLimit is the largest allowed value for ProductPersonalization.Limit
	TextLimit = 2000
	// LabelLimit is the maximum length of a personalization name
	LabelLimit = 100
	// DescriptionLimit is the maximum length of a personalization description
	DescriptionLimit = 200
)

// ProductPersonalization is a personalization slot on a product: a free-text field or a list of
// priced option values.
type ProductPersonalization struct {
	ID                                 uint                                `gorm:"primaryKey" json:"id"`
	ProductID                          uint                                `gorm:"not null;uniqueIndex:idx_product_personalization_name" json:"product_id"`
	Name                               string                              `gorm:"size:100;not null;uniqueIndex:idx_product_personalization_name" json:"name"`
	Description                        string                              `gorm:"size:200" json:"description"`
	Kind                               string                              `gorm:"size:10;not null" json:"kind"`
	Required                           bool                                `gorm:"not null" json:"required"`
	Limit                              int                                 `gorm:"not null" json:"limit"`
	Calculator                         *Calculator                         `gorm:"polymorphic:Calculable" json:"calculator"`
	OptionValueProductPersonalizations []OptionValueProductPersonalization `gorm:"foreignKey:ProductPersonalizationID" json:"option_value_product_personalizations"`
	CreatedAt                          time.Time                           `json:"created_at"`
	UpdatedAt                          time.Time                           `json:"updated_at"`
}

// TableName specifies the table name for the ProductPersonalization model
func (ProductPersonalization) TableName() string {
	return "product_personalizations"
}

// IsText reports whether the definition takes free text
func (p *ProductPersonalization) IsText() bool { return p.Kind == KindText }

// IsList reports whether the definition offers a list of option choices
func (p *ProductPersonalization) IsList() bool { return p.Kind == KindList }

// Normalize trims the name. Validate calls it first.
func (p *ProductPersonalization) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
}

// OptionChoices returns the option choices ordered by position
func (p *ProductPersonalization) OptionChoices() []OptionValueProductPersonalization {
	choices := make([]OptionValueProductPersonalization, len(p.OptionValueProductPersonalizations))
	copy(choices, p.OptionValueProductPersonalizations)
	sort.SliceStable(choices, func(i, j int) bool {
		return choices[i].Position < choices[j].Position
	})
	return choices
}

// Amount is the definition's own calculator amount
func (p *ProductPersonalization) Amount() decimal.Decimal {
	return p.Calculator.Amount()
}

// ResolvePrice returns what this slot costs. Text personalizations ignore index and charge their own
// amount. List personalizations charge the amount of the choice at the 0-based index, in position
// order, or zero when there is no such choice.
func (p *ProductPersonalization) ResolvePrice(index int) decimal.Decimal {
	switch {
	case p.IsText():
		return p.Amount()
	case p.IsList():
		choices := p.OptionChoices()
		if index < 0 || index >= len(choices) {
			return decimal.Zero
		}
		return choices[index].Amount()
	}
	return decimal.Zero
}

// Validate checks every rule that can be decided from the record alone.
// Name uniqueness among siblings is checked by ValidateUniqueNames.
func (p *ProductPersonalization) Validate(t Translator) error {
	p.Normalize()
	c := newErrorCollector(t)

	switch n := utf8.RuneCountInString(p.Name); {
	case n < 1:
		c.attribute("name", "messages.too_short", map[string]interface{}{"count": 1})
	case n > LabelLimit:
		c.attribute("name", "messages.too_long", map[string]interface{}{"count": LabelLimit})
	}

	if utf8.RuneCountInString(p.Description) > DescriptionLimit {
		c.attribute("description", "messages.too_long", map[string]interface{}{"count": DescriptionLimit})
	}

	if p.Limit <= 0 {
		c.attribute("limit", "messages.greater_than", map[string]interface{}{"count": 0})
	} else if p.Limit > TextLimit {
		c.attribute("limit", "messages.less_than_or_equal_to", map[string]interface{}{"count": TextLimit})
	}

	if !p.IsText() && !p.IsList() {
		c.attribute("kind", "errors.personalization_kind_invalid", map[string]interface{}{"value": p.Kind})
	}

	p.checkPrice(c)
	p.checkKind(c)

	return c.err()
}

func (p *ProductPersonalization) checkPrice(c *errorCollector) {
	if p.Calculator == nil {
		c.attribute("calculator", "messages.blank", nil)
		return
	}
	if !IsKnownCalculatorType(p.Calculator.Type) {
		c.attribute("calculator", "errors.calculator_type_invalid", map[string]interface{}{"value": p.Calculator.Type})
		return
	}
	if p.Calculator.PreferredAmount.IsNegative() {
		c.base("errors.increasing_price_can_not_be_negative", nil)
	}
}

func (p *ProductPersonalization) checkKind(c *errorCollector) {
	if p.IsText() && len(p.OptionValueProductPersonalizations) > 0 {
		c.base("errors.personalization_text_cannot_have_options", nil)
	}
	if p.IsList() && len(p.OptionValueProductPersonalizations) == 0 {
		c.base("errors.personalization_options_should_have_options", nil)
	}
}

// ValidateUniqueNames fails when two definitions of the same product share a trimmed name.
// The first occurrence wins; later ones get the error.
func ValidateUniqueNames(defs []ProductPersonalization, t Translator) error {
	c := newErrorCollector(t)
	seen := make(map[uint]map[string]bool)
	for _, d := range defs {
		name := strings.TrimSpace(d.Name)
		if seen[d.ProductID] == nil {
			seen[d.ProductID] = make(map[string]bool)
		}
		if seen[d.ProductID][name] {
			c.attribute("name", "messages.taken", map[string]interface{}{"value": name})
			continue
		}
		seen[d.ProductID][name] = true
	}
	return c.err()
}
