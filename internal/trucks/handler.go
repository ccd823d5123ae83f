package trucks

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nadirsultanli/order-management-system-sub008/internal/mutation"
	custom_error "github.com/nadirsultanli/order-management-system-sub008/pkg/errors"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"go.uber.org/zap"
)

type TruckHandler struct {
	loader *Loader
	logger *zap.Logger
}

func NewHandler(loader *Loader, logger *zap.Logger) *TruckHandler {
	return &TruckHandler{loader: loader, logger: logger}
}

func (h *TruckHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/trucks/:id", h.GetTruck)
	router.GET("/trucks/:id/inventory", h.GetInventory)
	router.GET("/trucks/:id/load-status", h.GetLoadStatus)
	router.POST("/trucks/:id/load", h.LoadTruck)
}

func (h *TruckHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mutation.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "Truck is already being loaded"})
	case errors.Is(err, ErrNoItems):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		status := custom_error.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Truck request failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": "Remote request failed", "details": err.Error(), "retryable": custom_error.IsRetryable(err)})
	}
}

func (h *TruckHandler) GetTruck(c *gin.Context) {
	truck, err := h.loader.Truck(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, truck)
}

func (h *TruckHandler) GetInventory(c *gin.Context) {
	rows, err := h.loader.Inventory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *TruckHandler) GetLoadStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.loader.Status(c.Param("id")))
}

func (h *TruckHandler) LoadTruck(c *gin.Context) {
	var req models.LoadTruckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	req.TruckID = c.Param("id")

	result, err := h.loader.LoadTruck(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
