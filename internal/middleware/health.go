package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthStatus struct {
	Status      string    `json:"status"`
	LastChecked time.Time `json:"last_checked"`
	Uptime      string    `json:"uptime"`
	Version     string    `json:"version"`
	Dashboards  int       `json:"dashboards"`
	Wizards     int       `json:"open_wizards"`
}

// Gauge reports a live count for the health response.
type Gauge func() int

type Health struct {
	mu         sync.RWMutex
	status     string
	version    string
	started    time.Time
	dashboards Gauge
	wizards    Gauge
}

func NewHealth(version string, dashboards, wizards Gauge) *Health {
	return &Health{
		status:     "ok",
		version:    version,
		started:    time.Now(),
		dashboards: dashboards,
		wizards:    wizards,
	}
}

func (h *Health) SetStatus(status string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = status
}

func (h *Health) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.mu.RLock()
		status := HealthStatus{
			Status:      h.status,
			LastChecked: time.Now(),
			Uptime:      time.Since(h.started).Truncate(time.Second).String(),
			Version:     h.version,
		}
		h.mu.RUnlock()

		if h.dashboards != nil {
			status.Dashboards = h.dashboards()
		}
		if h.wizards != nil {
			status.Wizards = h.wizards()
		}

		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
