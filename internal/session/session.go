package session

import (
	"context"
	"time"

	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"go.uber.org/zap"
)

type Status struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// Manager owns login and logout against the authentication endpoints.
type Manager struct {
	store  *Store
	auth   Authenticator
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(store *Store, auth Authenticator, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, auth: auth, logger: logger, now: time.Now}
}

func (m *Manager) Login(ctx context.Context, req models.LoginRequest) (*Status, error) {
	resp, err := m.auth.Login(ctx, req)
	if err != nil {
		m.logger.Info("Login rejected", zap.String("username", req.Username), zap.Error(err))
		return nil, err
	}

	tokens := &Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiryOf(resp, m.now()),
	}
	if err := m.store.Save(tokens); err != nil {
		return nil, err
	}

	m.logger.Info("Logged in", zap.String("username", req.Username))
	return statusOf(tokens), nil
}

func (m *Manager) Logout() error {
	if err := m.store.Clear(); err != nil {
		return err
	}
	m.logger.Info("Logged out")
	return nil
}

func (m *Manager) Status() (*Status, error) {
	tokens, err := m.store.Load()
	if err != nil {
		return &Status{}, nil
	}
	return statusOf(tokens), nil
}

func statusOf(tokens *Tokens) *Status {
	status := &Status{Authenticated: true}
	if !tokens.ExpiresAt.IsZero() {
		expires := tokens.ExpiresAt
		status.ExpiresAt = &expires
	}
	return status
}
