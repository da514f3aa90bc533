package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/personalization-api/middleware"
	"github.com/kendall-kelly/personalization-api/models"
)

// RegisterRoutes mounts the API on v1. authenticate validates the bearer token and is
// middleware.EnsureValidToken outside of tests.
func RegisterRoutes(v1 *gin.RouterGroup, authenticate gin.HandlerFunc) {
	// Public catalog
	v1.GET("/products/:id", GetProduct)
	v1.GET("/products/:id/personalizations", ListPersonalizations)
	v1.GET("/option_values", ListOptionValues)

	// Profiles can be created before a user exists
	users := v1.Group("/users", authenticate)
	{
		users.POST("", CreateUser)
		users.GET("/me", GetMyProfile)
		users.PUT("/me", UpdateMyProfile)
	}

	admin := v1.Group("", authenticate, middleware.RequireUser(), middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/products", CreateProduct)
		admin.DELETE("/products/:id", DeleteProduct)
		admin.PUT("/products/:id/personalizations", SavePersonalizations)
		admin.DELETE("/products/:id/personalizations/:personalization_id", DeletePersonalization)
		admin.POST("/option_values", CreateOptionValue)
		admin.POST("/option_values/:id/image", UploadOptionValueImage)
	}

	orders := v1.Group("/orders", authenticate, middleware.RequireUser())
	{
		orders.POST("", CreateOrder)
		orders.GET("/:id", GetOrder)
		orders.POST("/:id/complete", CompleteOrder)
		orders.POST("/:id/line_items", AddLineItem)
		orders.PUT("/:id/line_items/:line_item_id/personalizations", ReplaceLineItemPersonalizations)
		orders.DELETE("/:id/line_items/:line_item_id", RemoveLineItem)
	}
}
