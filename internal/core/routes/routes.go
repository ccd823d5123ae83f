package routes

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/nadirsultanli/order-management-system-sub008/internal/core/container"
	"github.com/nadirsultanli/order-management-system-sub008/internal/middleware"
	"go.uber.org/zap"
)

const openapiFilePath = "./docs/index.html"

func NewRouter(c *container.Container) *gin.Engine {
	if c.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(c.Logger),
		middleware.RequestLogger(c.Logger),
	)

	RegisterUtilityRoutes(router, c)
	RegisterSessionRoutes(router, c)
	RegisterAPIRoutes(router, c)

	return router
}

func RegisterSessionRoutes(router *gin.Engine, c *container.Container) {
	c.SessionHandler.RegisterRoutes(router, middleware.RateLimit(c.LoginLimiter))
}

// RegisterAPIRoutes mounts every route that calls the remote API.
// The websocket route stays outside the request timeout.
func RegisterAPIRoutes(router *gin.Engine, c *container.Container) {
	c.Hub.RegisterRoutes(router)

	api := router.Group("")
	api.Use(middleware.TimeoutMiddleware(c.Config.RequestTimeout))

	c.TransferHandler.RegisterRoutes(api)
	c.TruckHandler.RegisterRoutes(api)
	c.AuditLogHandler.RegisterRoutes(api)
}

func RegisterUtilityRoutes(router *gin.Engine, c *container.Container) {
	router.GET("/health", c.Health.Handler())

	if _, err := os.Stat(openapiFilePath); err == nil {
		router.GET("/openapi.html", func(ctx *gin.Context) {
			ctx.File(openapiFilePath)
		})
		c.Logger.Info("Route /openapi.html registered")
	} else {
		c.Logger.Debug("OpenAPI document not found, /openapi.html not registered", zap.String("path", openapiFilePath))
	}
}
