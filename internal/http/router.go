package http

import (
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/waveconnect/backend-go/internal/buoy"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(fetcher buoy.RecordsFetcher, checks ...HealthCheck) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	corsConfig := cors.DefaultConfig()

	// Default to allow all origins if not specified.
	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(allowedOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}

	router.Use(cors.New(corsConfig))

	handler := NewHandler(fetcher, checks...)

	v1 := router.Group("/v1")
	buoys := v1.Group("/buoys")
	buoys.GET("", handler.GetBuoys)
	buoys.GET("/:buoy/records", handler.GetRecords)

	router.GET("/health", handler.HealthCheck)

	return router
}
