package models

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPersonalization() *ProductPersonalization {
	return &ProductPersonalization{
		ProductID:   1,
		Name:        "Engraving",
		Description: "Text engraved on the back",
		Kind:        KindText,
		Limit:       10,
		Calculator:  NewFlatRateCalculator(decimal.RequireFromString("2.00"), "USD"),
	}
}

func buildChoice(id uint, position int, amount string) OptionValueProductPersonalization {
	return OptionValueProductPersonalization{
		ID:            id,
		OptionValueID: id,
		Position:      position,
		Calculator:    NewFlatRateCalculator(decimal.RequireFromString(amount), "USD"),
	}
}

func TestProductPersonalizationTableName(t *testing.T) {
	assert.Equal(t, "product_personalizations", ProductPersonalization{}.TableName())
}

func TestProductPersonalizationValidations(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *ProductPersonalization)
		wantErr bool
		field   string
	}{
		{"valid", func(p *ProductPersonalization) {}, false, ""},
		{"name too short", func(p *ProductPersonalization) { p.Name = "" }, true, "name"},
		{"name blank after trim", func(p *ProductPersonalization) { p.Name = "   " }, true, "name"},
		{"name at limit", func(p *ProductPersonalization) { p.Name = strings.Repeat("a", LabelLimit) }, false, ""},
		{"name too long", func(p *ProductPersonalization) { p.Name = strings.Repeat("a", LabelLimit+1) }, true, "name"},
		{"name padded to limit", func(p *ProductPersonalization) { p.Name = "  " + strings.Repeat("a", LabelLimit) + "  " }, false, ""},
		{"description too long", func(p *ProductPersonalization) { p.Description = strings.Repeat("a", DescriptionLimit+1) }, true, "description"},
		{"limit too small", func(p *ProductPersonalization) { p.Limit = 0 }, true, "limit"},
		{"limit at maximum", func(p *ProductPersonalization) { p.Limit = TextLimit }, false, ""},
		{"limit too big", func(p *ProductPersonalization) { p.Limit = TextLimit + 1 }, true, "limit"},
		{"price negative", func(p *ProductPersonalization) { p.Calculator.PreferredAmount = decimal.NewFromFloat(-1.0) }, true, BaseField},
		{"price zero", func(p *ProductPersonalization) { p.Calculator.PreferredAmount = decimal.Zero }, false, ""},
		{"calculator missing", func(p *ProductPersonalization) { p.Calculator = nil }, true, "calculator"},
		{"calculator unknown", func(p *ProductPersonalization) { p.Calculator.Type = "percent" }, true, "calculator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildPersonalization()
			require.NoError(t, p.Validate(translate), "fixture should be valid")

			tt.modify(p)
			err := p.Validate(translate)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			verrs, ok := AsValidationErrors(err)
			require.True(t, ok)
			assert.NotEmpty(t, verrs.On(tt.field))
		})
	}
}

func TestProductPersonalizationTrimsName(t *testing.T) {
	p := buildPersonalization()
	p.Name = "  Engraving \t"
	require.NoError(t, p.Validate(translate))
	assert.Equal(t, "Engraving", p.Name)
}

func TestProductPersonalizationNegativePriceMessage(t *testing.T) {
	p := buildPersonalization()
	p.Calculator.PreferredAmount = decimal.NewFromInt(-1)

	verrs, _ := AsValidationErrors(p.Validate(translate))
	require.Len(t, verrs, 1)
	assert.Equal(t, "Increasing price can not be negative", verrs[0].FullMessage)
}

func TestProductPersonalizationKind(t *testing.T) {
	t.Run("empty value", func(t *testing.T) {
		p := buildPersonalization()
		p.Kind = ""
		verrs, ok := AsValidationErrors(p.Validate(translate))
		require.True(t, ok)
		assert.Equal(t, "Kind  is not a valid type of personalization", verrs.FullMessages()[0])
	})

	t.Run("bad value", func(t *testing.T) {
		p := buildPersonalization()
		p.Kind = "random"
		verrs, ok := AsValidationErrors(p.Validate(translate))
		require.True(t, ok)
		assert.Equal(t, "Kind random is not a valid type of personalization", verrs.FullMessages()[0])
	})

	t.Run("valid values", func(t *testing.T) {
		p := buildPersonalization()
		p.Kind = KindText
		assert.NoError(t, p.Validate(translate))

		p.Kind = KindList
		p.OptionValueProductPersonalizations = append(p.OptionValueProductPersonalizations, buildChoice(1, 1, "1.00"))
		assert.NoError(t, p.Validate(translate))
	})
}

func TestProductPersonalizationCheckKind(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		choices []OptionValueProductPersonalization
		wantKey string
	}{
		{"text without options", KindText, nil, ""},
		{"text with options", KindText, []OptionValueProductPersonalization{buildChoice(1, 1, "1.00")}, "errors.personalization_text_cannot_have_options"},
		{"list without options", KindList, nil, "errors.personalization_options_should_have_options"},
		{"list with options", KindList, []OptionValueProductPersonalization{buildChoice(1, 1, "1.00")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildPersonalization()
			p.Kind = tt.kind
			p.OptionValueProductPersonalizations = tt.choices

			err := p.Validate(translate)
			if tt.wantKey == "" {
				assert.NoError(t, err)
				return
			}
			verrs, ok := AsValidationErrors(err)
			require.True(t, ok)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.wantKey, verrs[0].Key)
			assert.Equal(t, BaseField, verrs[0].Field)
		})
	}
}

func TestProductPersonalizationResolvePrice(t *testing.T) {
	t.Run("text ignores the index", func(t *testing.T) {
		p := buildPersonalization()
		assert.True(t, p.ResolvePrice(0).Equal(decimal.RequireFromString("2.00")))
		assert.True(t, p.ResolvePrice(7).Equal(decimal.RequireFromString("2.00")))
	})

	t.Run("list picks the tier by position", func(t *testing.T) {
		p := buildPersonalization()
		p.Kind = KindList
		// stored out of order on purpose
		p.OptionValueProductPersonalizations = []OptionValueProductPersonalization{
			buildChoice(2, 2, "56.71"),
			buildChoice(1, 1, "9.87"),
		}

		assert.True(t, p.ResolvePrice(0).Equal(decimal.RequireFromString("9.87")))
		assert.True(t, p.ResolvePrice(1).Equal(decimal.RequireFromString("56.71")))
		assert.True(t, p.ResolvePrice(5).IsZero())
		assert.True(t, p.ResolvePrice(-1).IsZero())
	})

	t.Run("empty list", func(t *testing.T) {
		p := buildPersonalization()
		p.Kind = KindList
		assert.True(t, p.ResolvePrice(0).IsZero())
	})

	t.Run("invalid kind", func(t *testing.T) {
		p := buildPersonalization()
		p.Kind = "random"
		assert.True(t, p.ResolvePrice(0).IsZero())
	})
}

func TestValidateUniqueNames(t *testing.T) {
	defs := []ProductPersonalization{
		{ProductID: 1, Name: "Engraving"},
		{ProductID: 1, Name: "Color"},
		{ProductID: 2, Name: "Engraving"},
	}
	assert.NoError(t, ValidateUniqueNames(defs, translate))

	defs = append(defs, ProductPersonalization{ProductID: 1, Name: " Engraving "})
	err := ValidateUniqueNames(defs, translate)
	verrs, ok := AsValidationErrors(err)
	require.True(t, ok)
	require.Len(t, verrs, 1)
	assert.Equal(t, "Name has already been taken", verrs[0].FullMessage)
}
