package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	custom_error "github.com/nadirsultanli/order-management-system-sub008/pkg/errors"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// expirySkew refreshes tokens this long before they expire.
const expirySkew = 60 * time.Second

type Authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
}

// TokenSource serves the stored access token and refreshes it when it is about to expire.
type TokenSource struct {
	store   *Store
	auth    Authenticator
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu sync.Mutex
}

var _ oauth2.TokenSource = (*TokenSource)(nil)

func NewTokenSource(store *Store, auth Authenticator, timeout time.Duration, logger *zap.Logger) *TokenSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenSource{store: store, auth: auth, timeout: timeout, logger: logger, now: time.Now}
}

func (s *TokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokens, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	if tokens.ExpiresAt.IsZero() || s.now().Add(expirySkew).Before(tokens.ExpiresAt) {
		return toOAuth(tokens), nil
	}

	if tokens.RefreshToken == "" {
		return nil, fmt.Errorf("session expired: %w", custom_error.ErrUnauthenticated)
	}

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.auth.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		if remoteErr, ok := custom_error.AsRemote(err); ok && remoteErr.Kind == custom_error.KindUnauthorized {
			if clearErr := s.store.Clear(); clearErr != nil {
				s.logger.Error("Unable to clear rejected session", zap.Error(clearErr))
			}
			return nil, fmt.Errorf("session refresh rejected: %w", custom_error.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("session refresh failed: %w", err)
	}

	refreshed := s.fromResponse(resp)
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tokens.RefreshToken
	}
	if err := s.store.Save(refreshed); err != nil {
		return nil, err
	}

	s.logger.Debug("Access token refreshed", zap.Time("expires_at", refreshed.ExpiresAt))
	return toOAuth(refreshed), nil
}

func (s *TokenSource) fromResponse(resp *models.TokenResponse) *Tokens {
	return &Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiryOf(resp, s.now()),
	}
}

func toOAuth(t *Tokens) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiresAt,
	}
}

// expiryOf prefers expires_in and falls back to the access token's exp claim.
// The token is not verified; the gateway only needs to know when to refresh.
func expiryOf(resp *models.TokenResponse, now time.Time) time.Time {
	if resp.ExpiresIn > 0 {
		return now.Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(resp.AccessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
