package models

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Snapshot is the name/value/price/currency tuple a line item records for one personalization
type Snapshot struct {
	Name     string          `json:"name"`
	Value    string          `json:"value"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// IsBlank reports whether no field of the snapshot is set
func (s *Snapshot) IsBlank() bool {
	return s == nil || (s.Name == "" && s.Value == "" && s.Price.IsZero() && s.Currency == "")
}

// OptionValueFinder resolves catalog option values together with the choices that use them
type OptionValueFinder interface {
	FindOptionValue(ctx context.Context, id uint) (*OptionValue, error)
}

// LineItemPersonalization is the personalization a customer chose for a line item, frozen at
// selection time. The definition and choice references are plain foreign keys: the choice may be
// removed later without touching the snapshot.
type LineItemPersonalization struct {
	ID                                  uint            `gorm:"primaryKey" json:"id"`
	LineItemID                          uint            `gorm:"not null;index" json:"line_item_id"`
	ProductPersonalizationID            uint            `gorm:"not null;index" json:"product_personalization_id"`
	OptionValueProductPersonalizationID *uint           `gorm:"index" json:"option_value_product_personalization_id"`
	Name                                string          `gorm:"size:100;not null" json:"name"`
	Value                               string          `gorm:"type:text;not null" json:"value"`
	Price                               decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Currency                            string          `gorm:"size:3" json:"currency"`
	CreatedAt                           time.Time       `json:"created_at"`
	UpdatedAt                           time.Time       `json:"updated_at"`

	// Loaded by the caller, never persisted through this record
	ProductPersonalization            *ProductPersonalization            `gorm:"-" json:"-"`
	OptionValueProductPersonalization *OptionValueProductPersonalization `gorm:"-" json:"-"`
	OptionValueID                     *uint                              `gorm:"-" json:"option_value_id,omitempty"`
}

// TableName specifies the table name for the LineItemPersonalization model
func (LineItemPersonalization) TableName() string {
	return "line_item_personalizations"
}

// Normalize trims the value. Validate calls it first.
func (l *LineItemPersonalization) Normalize() {
	l.Value = strings.TrimSpace(l.Value)
}

// Snapshot returns the comparison tuple of this record
func (l *LineItemPersonalization) Snapshot() Snapshot {
	return Snapshot{Name: l.Name, Value: l.Value, Price: l.Price, Currency: l.Currency}
}

// AssignOptionValue records a list choice: the value becomes the option value's name and the
// choice reference points at the option value's choice under this record's definition, if any.
// An unknown option value is an error wrapping ErrOptionValueNotFound.
func (l *LineItemPersonalization) AssignOptionValue(ctx context.Context, finder OptionValueFinder, optionValueID uint) error {
	optionValue, err := finder.FindOptionValue(ctx, optionValueID)
	if err != nil {
		return err
	}
	if optionValue == nil {
		return fmt.Errorf("option value %d: %w", optionValueID, ErrOptionValueNotFound)
	}

	l.Value = optionValue.Name
	l.OptionValueID = &optionValueID
	l.OptionValueProductPersonalizationID = nil
	l.OptionValueProductPersonalization = nil

	for i := range optionValue.OptionValueProductPersonalizations {
		choice := optionValue.OptionValueProductPersonalizations[i]
		if choice.OptionValueID != optionValueID {
			continue
		}
		if l.ProductPersonalizationID != 0 && choice.ProductPersonalizationID != l.ProductPersonalizationID {
			continue
		}
		id := choice.ID
		l.OptionValueProductPersonalizationID = &id
		l.OptionValueProductPersonalization = &choice
		break
	}
	return nil
}

// Validate checks the value length against the live limit of the definition
func (l *LineItemPersonalization) Validate(t Translator) error {
	l.Normalize()
	c := newErrorCollector(t)

	if l.ProductPersonalization == nil {
		c.attribute("product_personalization", "errors.line_item_personalization_definition_missing", nil)
		return c.err()
	}

	size := utf8.RuneCountInString(l.Value)
	if size < 1 {
		c.keyed(l.Name, "errors.line_item_personalization_value_is_required",
			map[string]interface{}{"name": l.Name})
	} else if limit := l.ProductPersonalization.Limit; size > limit {
		c.keyed(l.Name, "errors.line_item_personalization_value_is_too_long",
			map[string]interface{}{"name": l.Name, "size": limit})
	}

	return c.err()
}

// Match reports whether candidate describes the same personalization choice. The candidate's value
// is trimmed; nothing else is normalized, so the comparison is case-sensitive.
func (l *LineItemPersonalization) Match(candidate *Snapshot) bool {
	if candidate.IsBlank() {
		return false
	}
	other := *candidate
	other.Value = strings.TrimSpace(other.Value)

	return l.Name == other.Name &&
		l.Value == other.Value &&
		l.Price.Equal(other.Price) &&
		l.Currency == other.Currency
}

// HasListChoice reports whether the value came from a list choice
func (l *LineItemPersonalization) HasListChoice() bool {
	return l.OptionValueProductPersonalizationID != nil
}

// PriceContribution is what the definition charges for this record right now: the tier of the
// referenced choice, or the base amount when none is referenced.
func (l *LineItemPersonalization) PriceContribution() decimal.Decimal {
	if l.ProductPersonalization == nil {
		return decimal.Zero
	}
	if !l.HasListChoice() {
		return l.ProductPersonalization.ResolvePrice(0)
	}
	choice := l.referencedChoice()
	if choice == nil {
		return decimal.Zero
	}
	return l.ProductPersonalization.ResolvePrice(choice.Position - 1)
}

func (l *LineItemPersonalization) referencedChoice() *OptionValueProductPersonalization {
	if l.OptionValueProductPersonalization != nil {
		return l.OptionValueProductPersonalization
	}
	for i := range l.ProductPersonalization.OptionValueProductPersonalizations {
		choice := &l.ProductPersonalization.OptionValueProductPersonalizations[i]
		if choice.ID == *l.OptionValueProductPersonalizationID {
			return choice
		}
	}
	return nil
}
