package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/personalization-api/config"
	"github.com/kendall-kelly/personalization-api/logger"
	"github.com/kendall-kelly/personalization-api/models"
	"github.com/kendall-kelly/personalization-api/services"
)

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string, details ...interface{}) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if len(details) > 0 {
		body["details"] = details[0]
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   body,
	})
}

// respondServiceError maps domain errors to the JSON error envelope
func respondServiceError(c *gin.Context, err error) {
	if verrs, ok := models.AsValidationErrors(err); ok {
		respondError(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", verrs.Error(), verrs)
		return
	}

	switch {
	case errors.Is(err, services.ErrProductNotFound):
		respondError(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
	case errors.Is(err, services.ErrPersonalizationNotFound):
		respondError(c, http.StatusNotFound, "PERSONALIZATION_NOT_FOUND", "Personalization not found")
	case errors.Is(err, services.ErrOptionChoiceNotFound):
		respondError(c, http.StatusNotFound, "OPTION_CHOICE_NOT_FOUND", "Option choice not found")
	case errors.Is(err, models.ErrOptionValueNotFound):
		respondError(c, http.StatusNotFound, "OPTION_VALUE_NOT_FOUND", "Option value not found", err.Error())
	case errors.Is(err, services.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
	case errors.Is(err, services.ErrLineItemNotFound):
		respondError(c, http.StatusNotFound, "LINE_ITEM_NOT_FOUND", "Line item not found")
	case errors.Is(err, services.ErrOrderNotEditable):
		respondError(c, http.StatusConflict, "ORDER_NOT_EDITABLE", "Order can no longer be changed")
	case errors.Is(err, services.ErrOrderEmpty):
		respondError(c, http.StatusConflict, "ORDER_EMPTY", "Order has no line items")
	case errors.Is(err, services.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
	case errors.Is(err, services.ErrUserExists):
		respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this Auth0 ID or email already exists")
	case errors.Is(err, services.ErrEmailTaken):
		respondError(c, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
	case errors.Is(err, services.ErrIncompleteEmail):
		respondError(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
	case errors.Is(err, services.ErrIncompleteName):
		respondError(c, http.StatusBadRequest, "MISSING_NAME", "Name not provided by Auth0")
	default:
		logger.Get().Error("request failed", "path", c.FullPath(), "error", err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to process request")
	}
}

// paramID parses a positive numeric path parameter, responding 400 when it is malformed
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func bindError(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", err.Error())
}

func storeCurrency() string {
	if cfg := config.GetConfig(); cfg != nil && cfg.Currency != "" {
		return cfg.Currency
	}
	return "USD"
}

func catalogService() *services.CatalogService {
	return services.NewCatalogService(config.GetDB(), logger.Get(), storeCurrency())
}

func personalizationService() *services.PersonalizationService {
	return services.NewPersonalizationService(config.GetDB(), logger.Get(), storeCurrency())
}

func cartService() *services.CartService {
	return services.NewCartService(config.GetDB(), logger.Get(), storeCurrency())
}

func userService() *services.UserService {
	return services.NewUserService(config.GetDB(), logger.Get())
}
