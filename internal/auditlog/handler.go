package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nadirsultanli/order-management-system-sub008/internal/repository"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"go.uber.org/zap"
)

type Lister interface {
	List(ctx context.Context, f *repository.Filter, limit uint) ([]models.AuditLog, error)
}

type AuditLogHandler struct {
	repository Lister
	logger     *zap.Logger
}

// NewHandler accepts a nil repository when no database is configured.
func NewHandler(r Lister, logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{repository: r, logger: logger}
}

func (h *AuditLogHandler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/audit-logs", h.GetLogs)
}

func (h *AuditLogHandler) GetLogs(c *gin.Context) {
	if h.repository == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Audit log storage is not configured"})
		return
	}

	var limit uint64
	if raw := c.Query("limit"); raw != "" {
		var err error
		limit, err = strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit", "details": err.Error()})
			return
		}
	}

	since, err := queryTime(c, "since")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since", "details": err.Error()})
		return
	}
	until, err := queryTime(c, "until")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid until", "details": err.Error()})
		return
	}

	filter := repository.NewFilter().
		Equal("resource_type", c.Query("resource_type")).
		Equal("resource_id", c.Query("resource_id")).
		Equal("action", c.Query("action")).
		Since("created_at", since).
		Until("created_at", until)

	logs, err := h.repository.List(c.Request.Context(), filter, uint(limit))
	if err != nil {
		h.logger.Error("Failed to list audit logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
		return
	}

	c.JSON(http.StatusOK, logs)
}

// queryTime parses an RFC 3339 query parameter. A missing parameter is the zero time.
func queryTime(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
