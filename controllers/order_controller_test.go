package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/personalization-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type lineItemResult struct {
	LineItem struct {
		ID               uint                             `json:"id"`
		Quantity         int                              `json:"quantity"`
		UnitPrice        string                           `json:"unit_price"`
		Amount           string                           `json:"amount"`
		Personalizations []models.LineItemPersonalization `json:"personalizations"`
	} `json:"line_item"`
	Merged bool `json:"merged"`
}

type orderResult struct {
	ID        uint   `json:"id"`
	State     string `json:"state"`
	Currency  string `json:"currency"`
	ItemTotal string `json:"item_total"`
	LineItems []struct {
		ID               uint                             `json:"id"`
		Quantity         int                              `json:"quantity"`
		UnitPrice        string                           `json:"unit_price"`
		Personalizations []models.LineItemPersonalization `json:"personalizations"`
	} `json:"line_items"`
}

// OrderControllerSuite drives the cart API end to end: an admin sets up personalizations and a
// customer fills a cart.
type OrderControllerSuite struct {
	suite.Suite
	db       *gorm.DB
	admin    *gin.Engine
	customer *gin.Engine
	product  models.Product
	red      models.OptionValue
	blue     models.OptionValue
	color    models.ProductPersonalization
	initials models.ProductPersonalization
	orderID  uint
}

func TestOrderController(t *testing.T) {
	suite.Run(t, new(OrderControllerSuite))
}

func (s *OrderControllerSuite) SetupTest() {
	t := s.T()
	s.db = setupTestDB(t)
	createUser(t, s.db, "auth0|admin", models.RoleAdmin)
	createUser(t, s.db, "auth0|customer", models.RoleCustomer)
	s.admin = setupTestRouter("auth0|admin", "")
	s.customer = setupTestRouter("auth0|customer", "")

	s.product, s.red, s.blue = seedCatalog(t, s.db)
	defs := savePersonalizationForm(t, s.admin, s.product.ID, personalizationForm(s.red, s.blue))
	s.color, s.initials = defs[0], defs[1]

	w, resp := performJSON(t, s.customer, http.MethodPost, "/api/v1/orders", nil)
	s.Require().Equal(http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var order orderResult
	decodeData(t, resp, &order)
	s.Equal(models.OrderStateCart, order.State)
	s.Equal("USD", order.Currency)
	s.orderID = order.ID
}

func (s *OrderControllerSuite) colorCapture(optionValueID uint) map[string]interface{} {
	return map[string]interface{}{"product_personalization_id": s.color.ID, "option_value_id": optionValueID}
}

func (s *OrderControllerSuite) initialsCapture(value string) map[string]interface{} {
	return map[string]interface{}{"product_personalization_id": s.initials.ID, "value": value}
}

func (s *OrderControllerSuite) addLineItem(quantity int, captures ...map[string]interface{}) (int, envelope) {
	w, resp := performJSON(s.T(), s.customer, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/line_items", s.orderID),
		map[string]interface{}{"product_id": s.product.ID, "quantity": quantity, "personalizations": captures})
	return w.Code, resp
}

func (s *OrderControllerSuite) getOrder() orderResult {
	w, resp := performJSON(s.T(), s.customer, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", s.orderID), nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var order orderResult
	decodeData(s.T(), resp, &order)
	return order
}

func (s *OrderControllerSuite) TestPersonalizationPricesAddUp() {
	status, resp := s.addLineItem(1, s.colorCapture(s.red.ID))
	s.Require().Equal(http.StatusCreated, status)
	status, resp = s.addLineItem(1, s.colorCapture(s.blue.ID))
	s.Require().Equal(http.StatusCreated, status)

	var item lineItemResult
	decodeData(s.T(), resp, &item)
	s.Equal("Blue", item.LineItem.Personalizations[0].Value)
	s.Equal("14", item.LineItem.UnitPrice)

	order := s.getOrder()
	s.Require().Len(order.LineItems, 2)
	personalizationTotal := order.LineItems[0].Personalizations[0].Price.Add(order.LineItems[1].Personalizations[0].Price)
	s.Equal("6.00", personalizationTotal.StringFixed(2))
	s.Equal("26", order.ItemTotal)
}

func (s *OrderControllerSuite) TestIdenticalLineItemsMerge() {
	status, _ := s.addLineItem(1, s.colorCapture(s.red.ID), s.initialsCapture("AB"))
	s.Require().Equal(http.StatusCreated, status)

	status, resp := s.addLineItem(2, s.initialsCapture("AB "), s.colorCapture(s.red.ID))
	s.Require().Equal(http.StatusOK, status)
	var item lineItemResult
	decodeData(s.T(), resp, &item)
	s.True(item.Merged)
	s.Equal(3, item.LineItem.Quantity)
	s.Equal("40.5", item.LineItem.Amount)
}

func (s *OrderControllerSuite) TestValidationErrors() {
	status, resp := s.addLineItem(1, s.initialsCapture("ABCD"))
	s.Require().Equal(http.StatusUnprocessableEntity, status)
	s.Equal("VALIDATION_FAILED", resp.Error.Code)
	s.Contains(resp.Error.Message, "Color is required")
	s.Contains(resp.Error.Message, "Initials is too long (maximum is 3 characters)")

	w, resp := performJSON(s.T(), s.customer, http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/line_items", s.orderID),
		map[string]interface{}{"product_id": s.product.ID, "personalizations": []map[string]interface{}{s.colorCapture(s.red.ID)}},
	)
	s.Equal(http.StatusCreated, w.Code, "quantity defaults to one")
	var item lineItemResult
	decodeData(s.T(), resp, &item)
	s.Equal(1, item.LineItem.Quantity)

	status, resp = s.addLineItem(1, s.colorCapture(4242))
	s.Equal(http.StatusNotFound, status)
	s.Equal("OPTION_VALUE_NOT_FOUND", resp.Error.Code)
}

func (s *OrderControllerSuite) TestSnapshotsAreImmutable() {
	status, _ := s.addLineItem(1, s.colorCapture(s.blue.ID))
	s.Require().Equal(http.StatusCreated, status)

	blueChoice := s.color.OptionValueProductPersonalizations[1]
	savePersonalizationForm(s.T(), s.admin, s.product.ID, map[string]interface{}{
		"product_personalizations_attributes": []map[string]interface{}{
			{
				"id":                    s.color.ID,
				"name":                  "Color",
				"kind":                  "list",
				"required":              true,
				"limit":                 100,
				"calculator_attributes": map[string]interface{}{"preferred_amount": "0"},
				"option_value_product_personalizations_attributes": []map[string]interface{}{
					{"id": blueChoice.ID, "_destroy": true},
				},
			},
		},
	})

	order := s.getOrder()
	s.Require().Len(order.LineItems, 1)
	snapshot := order.LineItems[0].Personalizations[0]
	s.Equal("Color", snapshot.Name)
	s.Equal("Blue", snapshot.Value)
	s.Equal("4.00", snapshot.Price.StringFixed(2))
	s.Nil(snapshot.OptionValueProductPersonalizationID)
	s.Equal("14", order.ItemTotal)
}

func (s *OrderControllerSuite) TestReplaceAndRemoveLineItem() {
	status, resp := s.addLineItem(1, s.colorCapture(s.red.ID))
	s.Require().Equal(http.StatusCreated, status)
	var item lineItemResult
	decodeData(s.T(), resp, &item)

	path := fmt.Sprintf("/api/v1/orders/%d/line_items/%d", s.orderID, item.LineItem.ID)
	w, resp := performJSON(s.T(), s.customer, http.MethodPut, path+"/personalizations",
		map[string]interface{}{"personalizations": []map[string]interface{}{s.colorCapture(s.blue.ID), s.initialsCapture("XY")}})
	s.Require().Equal(http.StatusOK, w.Code, "body: %s", w.Body.String())
	decodeData(s.T(), resp, &item)
	s.Len(item.LineItem.Personalizations, 2)
	s.Equal("15.5", item.LineItem.UnitPrice)

	w, _ = performJSON(s.T(), s.customer, http.MethodDelete, path, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Empty(s.getOrder().LineItems)

	w, resp = performJSON(s.T(), s.customer, http.MethodDelete, path, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("LINE_ITEM_NOT_FOUND", resp.Error.Code)
}

func (s *OrderControllerSuite) TestCompleteOrder() {
	path := fmt.Sprintf("/api/v1/orders/%d/complete", s.orderID)
	w, resp := performJSON(s.T(), s.customer, http.MethodPost, path, nil)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("ORDER_EMPTY", resp.Error.Code)

	status, _ := s.addLineItem(1, s.colorCapture(s.red.ID))
	s.Require().Equal(http.StatusCreated, status)

	w, _ = performJSON(s.T(), s.customer, http.MethodPost, path, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(models.OrderStateComplete, s.getOrder().State)

	status, resp = s.addLineItem(1, s.colorCapture(s.red.ID))
	s.Equal(http.StatusConflict, status)
	s.Equal("ORDER_NOT_EDITABLE", resp.Error.Code)
}

func (s *OrderControllerSuite) TestOrdersArePrivate() {
	createUser(s.T(), s.db, "auth0|other", models.RoleCustomer)
	other := setupTestRouter("auth0|other", "")

	w, resp := performJSON(s.T(), other, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", s.orderID), nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("ORDER_NOT_FOUND", resp.Error.Code)
}

func TestCreateOrder_WithoutProfile(t *testing.T) {
	setupTestDB(t)

	w, resp := performJSON(t, setupTestRouter("auth0|ghost", ""), http.MethodPost, "/api/v1/orders", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, "USER_NOT_FOUND", resp.Error.Code)
}
