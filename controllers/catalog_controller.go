package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/personalization-api/logger"
	"github.com/kendall-kelly/personalization-api/models"
	"github.com/kendall-kelly/personalization-api/services"
	"github.com/kendall-kelly/personalization-api/utils"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents the request body for creating a product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
}

// CreateOptionValueRequest represents the request body for creating an option value
type CreateOptionValueRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Presentation string `json:"presentation" binding:"max=100"`
}

// CreateProduct handles POST /api/v1/products - creates a product (admins only)
func CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Price.IsNegative() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data", "price must not be negative")
		return
	}

	product := models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Currency:    strings.ToUpper(req.Currency),
	}
	if err := catalogService().CreateProduct(c.Request.Context(), &product); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, product)
}

// GetProduct handles GET /api/v1/products/:id - returns a product with its personalizations
func GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	product, err := catalogService().GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	for i := range product.Personalizations {
		attachChoiceImageURLs(c.Request.Context(), product.Personalizations[i].OptionValueProductPersonalizations)
	}
	respondSuccess(c, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/v1/products/:id - deletes a product and its personalizations (admins only)
func DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := catalogService().DestroyProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": id})
}

// CreateOptionValue handles POST /api/v1/option_values - creates a catalog option value (admins only)
func CreateOptionValue(c *gin.Context) {
	var req CreateOptionValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	optionValue := models.OptionValue{
		Name:         strings.TrimSpace(req.Name),
		Presentation: strings.TrimSpace(req.Presentation),
	}
	if optionValue.Presentation == "" {
		optionValue.Presentation = optionValue.Name
	}
	if err := catalogService().CreateOptionValue(c.Request.Context(), &optionValue); err != nil {
		respondServiceError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, optionValue)
}

// ListOptionValues handles GET /api/v1/option_values
func ListOptionValues(c *gin.Context) {
	values, err := catalogService().ListOptionValues(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	for i := range values {
		attachImageURL(c.Request.Context(), &values[i])
	}
	respondSuccess(c, http.StatusOK, values)
}

// UploadOptionValueImage handles POST /api/v1/option_values/:id/image - stores a swatch image (admins only).
// The previous image, if any, is removed from storage.
func UploadOptionValueImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	images := services.GetImageService()
	if images == nil {
		respondError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Image storage is not configured")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required in the 'image' field")
		return
	}

	ctx := c.Request.Context()
	catalog := catalogService()
	if _, err := catalog.FindOptionValue(ctx, id); err != nil {
		respondServiceError(c, err)
		return
	}

	key, err := images.UploadSwatch(ctx, id, fileHeader)
	if err != nil {
		var fileErr *utils.FileUploadError
		if errors.As(err, &fileErr) {
			respondError(c, http.StatusBadRequest, fileErr.Code, fileErr.Message)
			return
		}
		logger.Get().Error("failed to upload swatch image", "option_value_id", id, "error", err)
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to upload image")
		return
	}

	previous, err := catalog.SetOptionValueImage(ctx, id, key)
	if err != nil {
		if delErr := images.DeleteImage(ctx, key); delErr != nil {
			logger.Get().Warn("failed to remove orphaned swatch image", "key", key, "error", delErr)
		}
		respondServiceError(c, err)
		return
	}
	if previous != nil && *previous != key {
		if err := images.DeleteImage(ctx, *previous); err != nil {
			logger.Get().Warn("failed to remove replaced swatch image", "key", *previous, "error", err)
		}
	}

	optionValue, err := catalog.FindOptionValue(ctx, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	attachImageURL(ctx, optionValue)
	respondSuccess(c, http.StatusOK, optionValue)
}

// attachImageURL fills the presigned swatch URL. Storage failures leave it empty.
func attachImageURL(ctx context.Context, optionValue *models.OptionValue) {
	images := services.GetImageService()
	if images == nil || optionValue == nil || optionValue.ImageS3Key == nil {
		return
	}
	url, err := images.GetImageURL(ctx, *optionValue.ImageS3Key)
	if err != nil {
		logger.Get().Warn("failed to presign swatch image", "option_value_id", optionValue.ID, "error", err)
		return
	}
	optionValue.ImageURL = &url
}

func attachChoiceImageURLs(ctx context.Context, choices []models.OptionValueProductPersonalization) {
	for i := range choices {
		attachImageURL(ctx, choices[i].OptionValue)
	}
}
