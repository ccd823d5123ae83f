package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type client struct {
	conn *ws.Conn
	mu   sync.Mutex
}

// Hub broadcasts notifications to connected dashboards over websockets.
type Hub struct {
	logger   *zap.Logger
	upgrader ws.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger: logger,
		upgrader: ws.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *Hub) register(c *client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	return len(h.clients)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		_ = c.conn.Close()
	}
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Notify(_ context.Context, n Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		h.logger.Error("Failed to marshal notification", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.logger.Debug("Dropping websocket client", zap.Error(err))
			h.unregister(c)
		}
	}
}

func (c *client) write(data []byte) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("websocket write panic: %v", r)
		}
	}()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(ws.TextMessage, data)
}

// Handle upgrades the request and keeps the connection alive until the client leaves.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn}
	count := h.register(cl)
	h.logger.Debug("Websocket client connected", zap.Int("clients", count))

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				cl.mu.Lock()
				err := conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait))
				cl.mu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(cl)
	h.logger.Debug("Websocket client disconnected")
}

func (h *Hub) RegisterRoutes(router gin.IRoutes) {
	router.GET("/ws", h.Handle)
}
