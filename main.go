package main

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/personalization-api/config"
	"github.com/kendall-kelly/personalization-api/controllers"
	"github.com/kendall-kelly/personalization-api/i18n"
	"github.com/kendall-kelly/personalization-api/logger"
	"github.com/kendall-kelly/personalization-api/middleware"
	"github.com/kendall-kelly/personalization-api/services"
)

func main() {
	bootstrap, err := logger.New("development", "info")
	if err != nil {
		panic(err)
	}
	logger.SetLogger(bootstrap)

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Fatal("Failed to load configuration", "error", err)
	}

	log, err := logger.New(cfg.GoEnv, cfg.LogLevel)
	if err != nil {
		bootstrap.Fatal("Failed to build logger", "error", err)
	}
	logger.SetLogger(log)
	defer log.Sync()

	log.Info("Starting Personalization API server...", "env", cfg.GoEnv)

	if err := i18n.Load(); err != nil {
		log.Fatal("Failed to load translations", "error", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	if err := config.Migrate(config.GetDB()); err != nil {
		log.Fatal("Failed to migrate database", "error", err)
	}
	log.Info("Database migration completed successfully")

	// Swatch images are optional, the catalog works without them
	s3Service, err := services.InitS3Service(context.Background(), cfg)
	if err != nil {
		log.Warn("S3 storage unavailable, swatch uploads are disabled", "error", err)
	} else {
		services.InitImageService(s3Service)
	}

	router := setupRouter(cfg, middleware.EnsureValidToken(cfg))

	port := ":" + cfg.Port
	log.Info("Server is running", "addr", "http://localhost"+port)
	if err := router.Run(port); err != nil {
		log.Fatal("Failed to start server", "error", err)
	}
}

// setupRouter wires middleware and every route; authenticate guards the private routes
func setupRouter(cfg *config.Config, authenticate gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(middleware.Locale(cfg))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)
	}
	controllers.RegisterRoutes(v1, authenticate)

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "Accept-Language")
	if cfg.AllowsAllOrigins() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
		corsCfg.AllowCredentials = true
	}
	return corsCfg
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Personalization API is running",
	})
}

// tableListQuery returns the statement listing user tables for the connected dialect
func tableListQuery(dialect string) string {
	if dialect == "sqlite" {
		return "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	}
	return "SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename"
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Database is not configured",
			},
		})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		logger.Get().Error("Database ping failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	var tables []string
	if err := db.Raw(tableListQuery(db.Dialector.Name())).Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
