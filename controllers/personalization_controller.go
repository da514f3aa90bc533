package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/personalization-api/middleware"
	"github.com/kendall-kelly/personalization-api/services"
	"github.com/shopspring/decimal"
)

// CalculatorRequest is the calculator_attributes of a definition or choice
type CalculatorRequest struct {
	ID              *uint            `json:"id"`
	Type            string           `json:"type"`
	PreferredAmount *decimal.Decimal `json:"preferred_amount"`
}

// OptionChoiceRequest is one entry of option_value_product_personalizations_attributes
type OptionChoiceRequest struct {
	ID                   *uint              `json:"id"`
	OptionValueID        uint               `json:"option_value_id"`
	Position             int                `json:"position" binding:"gte=0"`
	Destroy              bool               `json:"_destroy"`
	CalculatorAttributes *CalculatorRequest `json:"calculator_attributes"`
}

// PersonalizationRequest is one entry of product_personalizations_attributes.
// Entries without id are created; entries with id are updated, or removed when _destroy is set.
// Updates only touch the attributes present in the entry.
type PersonalizationRequest struct {
	ID                                           *uint                 `json:"id"`
	Name                                         *string               `json:"name"`
	Description                                  *string               `json:"description"`
	Kind                                         *string               `json:"kind"`
	Required                                     *bool                 `json:"required"`
	Limit                                        *int                  `json:"limit"`
	Destroy                                      bool                  `json:"_destroy"`
	CalculatorAttributes                         *CalculatorRequest    `json:"calculator_attributes"`
	OptionValueProductPersonalizationsAttributes []OptionChoiceRequest `json:"option_value_product_personalizations_attributes" binding:"dive"`
}

// SavePersonalizationsRequest represents the nested personalization form of a product
type SavePersonalizationsRequest struct {
	ProductPersonalizationsAttributes []PersonalizationRequest `json:"product_personalizations_attributes" binding:"required,dive"`
}

func (r CalculatorRequest) attributes() *services.CalculatorAttributes {
	return &services.CalculatorAttributes{ID: r.ID, Type: r.Type, PreferredAmount: r.PreferredAmount}
}

// Batch converts the form into a batch command. _destroy on an entry without id is ignored.
func (r SavePersonalizationsRequest) Batch() services.PersonalizationBatch {
	var batch services.PersonalizationBatch
	for _, p := range r.ProductPersonalizationsAttributes {
		if p.Destroy {
			if p.ID != nil {
				batch.Deletes = append(batch.Deletes, *p.ID)
			}
			continue
		}

		up := services.PersonalizationUpsert{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Kind:        p.Kind,
			Required:    p.Required,
			Limit:       p.Limit,
		}
		if p.CalculatorAttributes != nil {
			up.Calculator = p.CalculatorAttributes.attributes()
		}
		for _, o := range p.OptionValueProductPersonalizationsAttributes {
			if o.Destroy {
				if o.ID != nil {
					up.OptionDeletes = append(up.OptionDeletes, *o.ID)
				}
				continue
			}
			choice := services.OptionChoiceUpsert{ID: o.ID, OptionValueID: o.OptionValueID, Position: o.Position}
			if o.CalculatorAttributes != nil {
				choice.Calculator = o.CalculatorAttributes.attributes()
			}
			up.OptionUpserts = append(up.OptionUpserts, choice)
		}
		batch.Upserts = append(batch.Upserts, up)
	}
	return batch
}

// ListPersonalizations handles GET /api/v1/products/:id/personalizations
func ListPersonalizations(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}

	defs, err := personalizationService().List(c.Request.Context(), productID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	for i := range defs {
		attachChoiceImageURLs(c.Request.Context(), defs[i].OptionValueProductPersonalizations)
	}
	respondSuccess(c, http.StatusOK, defs)
}

// SavePersonalizations handles PUT /api/v1/products/:id/personalizations - applies the nested form
// atomically (admins only). Messages are localized with the request locale.
func SavePersonalizations(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req SavePersonalizationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	defs, err := personalizationService().Save(c.Request.Context(), productID, req.Batch(), middleware.GetTranslator(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, defs)
}

// DeletePersonalization handles DELETE /api/v1/products/:id/personalizations/:personalization_id (admins only)
func DeletePersonalization(c *gin.Context) {
	productID, ok := paramID(c, "id")
	if !ok {
		return
	}
	id, ok := paramID(c, "personalization_id")
	if !ok {
		return
	}

	if err := personalizationService().Destroy(c.Request.Context(), productID, id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": id})
}
