package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/personalization-api/middleware"
	"github.com/kendall-kelly/personalization-api/models"
	"github.com/kendall-kelly/personalization-api/services"
	"github.com/shopspring/decimal"
)

// PersonalizationCaptureRequest is what the customer entered for one personalization
type PersonalizationCaptureRequest struct {
	ProductPersonalizationID uint   `json:"product_personalization_id" binding:"required"`
	Value                    string `json:"value"`
	OptionValueID            *uint  `json:"option_value_id"`
}

// AddLineItemRequest represents the request body for adding a product to a cart
type AddLineItemRequest struct {
	ProductID        uint                            `json:"product_id" binding:"required"`
	Quantity         int                             `json:"quantity" binding:"omitempty,gt=0"`
	Personalizations []PersonalizationCaptureRequest `json:"personalizations" binding:"dive"`
}

// ReplacePersonalizationsRequest represents the request body for editing a line item's personalizations
type ReplacePersonalizationsRequest struct {
	Personalizations []PersonalizationCaptureRequest `json:"personalizations" binding:"dive"`
}

// LineItemResponse is a line item with its computed prices
type LineItemResponse struct {
	models.LineItem
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// OrderResponse is an order with its computed totals
type OrderResponse struct {
	models.Order
	LineItems []LineItemResponse `json:"line_items"`
	ItemTotal decimal.Decimal    `json:"item_total"`
}

func newLineItemResponse(li *models.LineItem) LineItemResponse {
	if li.Personalizations == nil {
		li.Personalizations = []models.LineItemPersonalization{}
	}
	return LineItemResponse{LineItem: *li, UnitPrice: li.UnitPrice(), Amount: li.Amount()}
}

func newOrderResponse(order *models.Order) OrderResponse {
	resp := OrderResponse{Order: *order, LineItems: []LineItemResponse{}, ItemTotal: order.ItemTotal()}
	for i := range order.LineItems {
		resp.LineItems = append(resp.LineItems, newLineItemResponse(&order.LineItems[i]))
	}
	return resp
}

func toCaptures(reqs []PersonalizationCaptureRequest) []services.PersonalizationCapture {
	captures := make([]services.PersonalizationCapture, 0, len(reqs))
	for _, r := range reqs {
		captures = append(captures, services.PersonalizationCapture{
			ProductPersonalizationID: r.ProductPersonalizationID,
			Value:                    r.Value,
			OptionValueID:            r.OptionValueID,
		})
	}
	return captures
}

// currentCustomer returns the profile loaded by middleware.RequireUser
func currentCustomer(c *gin.Context) (*models.User, bool) {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}
	return user, true
}

// CreateOrder handles POST /api/v1/orders - opens an empty cart for the current user
func CreateOrder(c *gin.Context) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}

	order, err := cartService().CreateOrder(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, newOrderResponse(order))
}

// GetOrder handles GET /api/v1/orders/:id - returns one of the current user's orders with totals
func GetOrder(c *gin.Context) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := cartService().GetOrder(c.Request.Context(), user.ID, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, newOrderResponse(order))
}

// AddLineItem handles POST /api/v1/orders/:id/line_items. Responds 201 for a new line item and 200
// when the quantity of an identical line item was increased.
func AddLineItem(c *gin.Context) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req AddLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, merged, err := cartService().AddItem(c.Request.Context(), user.ID, orderID, services.AddItemInput{
		ProductID:        req.ProductID,
		Quantity:         req.Quantity,
		Personalizations: toCaptures(req.Personalizations),
	}, middleware.GetTranslator(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if merged {
		status = http.StatusOK
	}
	respondSuccess(c, status, gin.H{
		"line_item": newLineItemResponse(item),
		"merged":    merged,
	})
}

// ReplaceLineItemPersonalizations handles PUT /api/v1/orders/:id/line_items/:line_item_id/personalizations
func ReplaceLineItemPersonalizations(c *gin.Context) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	lineItemID, ok := paramID(c, "line_item_id")
	if !ok {
		return
	}

	var req ReplacePersonalizationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, merged, err := cartService().ReplacePersonalizations(c.Request.Context(), user.ID, orderID, lineItemID,
		toCaptures(req.Personalizations), middleware.GetTranslator(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"line_item": newLineItemResponse(item),
		"merged":    merged,
	})
}

// RemoveLineItem handles DELETE /api/v1/orders/:id/line_items/:line_item_id
func RemoveLineItem(c *gin.Context) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	lineItemID, ok := paramID(c, "line_item_id")
	if !ok {
		return
	}

	if err := cartService().RemoveItem(c.Request.Context(), user.ID, orderID, lineItemID); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": lineItemID})
}

// CompleteOrder handles POST /api/v1/orders/:id/complete - closes the cart
func CompleteOrder(c *gin.Context) {
	user, ok := currentCustomer(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	order, err := cartService().CompleteOrder(c.Request.Context(), user.ID, orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, newOrderResponse(order))
}
