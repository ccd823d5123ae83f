package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
	custom_error "github.com/nadirsultanli/order-management-system-sub008/pkg/errors"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"go.uber.org/zap"
)

type SessionHandler struct {
	manager *Manager
	logger  *zap.Logger
}

func NewHandler(manager *Manager, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{manager: manager, logger: logger}
}

// RegisterRoutes mounts the session endpoints. middlewares run only on login.
func (h *SessionHandler) RegisterRoutes(router gin.IRoutes, middlewares ...gin.HandlerFunc) {
	router.POST("/session/login", append(middlewares, h.Login)...)
	router.GET("/session", h.Status)
	router.DELETE("/session", h.Logout)
}

func (h *SessionHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	status, err := h.manager.Login(c.Request.Context(), req)
	if err != nil {
		if remoteErr, ok := custom_error.AsRemote(err); ok {
			c.JSON(custom_error.HTTPStatus(err), gin.H{"error": remoteErr.Message})
			return
		}
		h.logger.Error("Unable to store session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to store session"})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *SessionHandler) Status(c *gin.Context) {
	status, _ := h.manager.Status()
	c.JSON(http.StatusOK, status)
}

func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.manager.Logout(); err != nil {
		h.logger.Error("Unable to clear session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to clear session"})
		return
	}
	c.Status(http.StatusNoContent)
}
