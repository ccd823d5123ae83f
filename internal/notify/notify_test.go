package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n Notification) {
	m.Called(ctx, n)
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return f.err
}

func TestMultiDeliversToEveryNotifier(t *testing.T) {
	first := new(MockNotifier)
	second := new(MockNotifier)
	n := New(LevelSuccess, "Truck loaded", "3 items loaded").About("truck", "t1")

	first.On("Notify", mock.Anything, n).Return()
	second.On("Notify", mock.Anything, n).Return()

	Multi{first, nil, second}.Notify(context.Background(), n)

	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestNATSPublisherSendsJSON(t *testing.T) {
	pub := &fakePublisher{}
	p := &NATSPublisher{conn: pub, subject: "dashboard.outcomes", logger: zap.NewNop()}

	n := New(LevelWarning, "Verification failed", "inventory mismatch")
	p.Notify(context.Background(), n)

	assert.Equal(t, "dashboard.outcomes", pub.subject)
	var got Notification
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, LevelWarning, got.Level)
}

func TestNATSPublisherSwallowsErrors(t *testing.T) {
	p := &NATSPublisher{conn: &fakePublisher{err: errors.New("no responders")}, subject: "x", logger: zap.NewNop()}
	assert.NotPanics(t, func() {
		p.Notify(context.Background(), New(LevelInfo, "t", "m"))
	})
}

func TestHubBroadcastsToConnectedClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(zap.NewNop())
	router := gin.New()
	hub.RegisterRoutes(router)

	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	n := New(LevelError, "Load failed", "insufficient stock").About("truck", "t1")
	hub.Notify(context.Background(), n)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Notification
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, "truck", got.Resource)
	assert.Equal(t, "t1", got.ResourceID)
}

func TestHubDropsClientOnDisconnect(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	router := gin.New()
	hub.RegisterRoutes(router)

	server := httptest.NewServer(router)
	defer server.Close()

	conn, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}
