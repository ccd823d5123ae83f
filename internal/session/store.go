package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	custom_error "github.com/nadirsultanli/order-management-system-sub008/pkg/errors"
)

const (
	keyAccessToken  = "cylinderops.access_token"
	keyRefreshToken = "cylinderops.refresh_token"
	keyExpiresAt    = "cylinderops.expires_at"
)

type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Store persists the session tokens in a single user-readable file.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns custom_error.ErrUnauthenticated when no session is stored.
func (s *Store) Load() (*Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, custom_error.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if values[keyAccessToken] == "" {
		return nil, custom_error.ErrUnauthenticated
	}

	tokens := &Tokens{
		AccessToken:  values[keyAccessToken],
		RefreshToken: values[keyRefreshToken],
	}
	if raw := values[keyExpiresAt]; raw != "" {
		tokens.ExpiresAt, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode session expiry: %w", err)
		}
	}

	return tokens, nil
}

func (s *Store) Save(tokens *Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := map[string]string{
		keyAccessToken:  tokens.AccessToken,
		keyRefreshToken: tokens.RefreshToken,
	}
	if !tokens.ExpiresAt.IsZero() {
		values[keyExpiresAt] = tokens.ExpiresAt.UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
