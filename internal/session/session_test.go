package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	custom_error "github.com/nadirsultanli/order-management-system-sub008/pkg/errors"
	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

func (m *MockAuthenticator) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}

var fixedNow = time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "state", "session.json"))
}

func TestStoreRoundTrip(t *testing.T) {
	store := newStore(t)

	_, err := store.Load()
	assert.ErrorIs(t, err, custom_error.ErrUnauthenticated)

	tokens := &Tokens{AccessToken: "access", RefreshToken: "refresh", ExpiresAt: fixedNow}
	require.NoError(t, store.Save(tokens))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	var values map[string]string
	require.NoError(t, json.Unmarshal(raw, &values))
	assert.Equal(t, "access", values["cylinderops.access_token"])
	assert.Equal(t, "refresh", values["cylinderops.refresh_token"])
	assert.Equal(t, "2026-10-16T09:00:00Z", values["cylinderops.expires_at"])

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.True(t, fixedNow.Equal(loaded.ExpiresAt))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, custom_error.ErrUnauthenticated)
}

func TestTokenSourceServesValidToken(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(&Tokens{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: fixedNow.Add(10 * time.Minute)}))

	auth := new(MockAuthenticator)
	src := NewTokenSource(store, auth, time.Second, nil)
	src.now = func() time.Time { return fixedNow }

	token, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "a1", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	auth.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestTokenSourceRefreshesInsideSkew(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(&Tokens{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: fixedNow.Add(30 * time.Second)}))

	auth := new(MockAuthenticator)
	auth.On("Refresh", mock.Anything, "r1").Return(&models.TokenResponse{AccessToken: "a2", ExpiresIn: 900}, nil).Once()

	src := NewTokenSource(store, auth, time.Second, nil)
	src.now = func() time.Time { return fixedNow }

	token, err := src.Token()
	require.NoError(t, err)
	assert.Equal(t, "a2", token.AccessToken)

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a2", stored.AccessToken)
	assert.Equal(t, "r1", stored.RefreshToken)
	assert.True(t, fixedNow.Add(15*time.Minute).Equal(stored.ExpiresAt))

	// second call is served from the refreshed token
	_, err = src.Token()
	require.NoError(t, err)
	auth.AssertExpectations(t)
}

func TestTokenSourceRejectedRefreshClearsSession(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(&Tokens{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: fixedNow.Add(-time.Minute)}))

	auth := new(MockAuthenticator)
	auth.On("Refresh", mock.Anything, "r1").Return(nil, custom_error.NewStatusError("refresh token", http.StatusUnauthorized, "expired"))

	src := NewTokenSource(store, auth, time.Second, nil)
	src.now = func() time.Time { return fixedNow }

	_, err := src.Token()
	assert.ErrorIs(t, err, custom_error.ErrUnauthenticated)

	_, err = store.Load()
	assert.ErrorIs(t, err, custom_error.ErrUnauthenticated)
}

func TestTokenSourceKeepsSessionOnTransientRefreshFailure(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(&Tokens{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: fixedNow.Add(-time.Minute)}))

	auth := new(MockAuthenticator)
	auth.On("Refresh", mock.Anything, "r1").Return(nil, custom_error.NewStatusError("refresh token", http.StatusBadGateway, ""))

	src := NewTokenSource(store, auth, time.Second, nil)
	src.now = func() time.Time { return fixedNow }

	_, err := src.Token()
	require.Error(t, err)
	assert.NotErrorIs(t, err, custom_error.ErrUnauthenticated)

	_, err = store.Load()
	assert.NoError(t, err)
}

func TestExpiryFallsBackToTokenClaim(t *testing.T) {
	exp := fixedNow.Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("unused"))
	require.NoError(t, err)

	got := expiryOf(&models.TokenResponse{AccessToken: signed}, fixedNow)
	assert.True(t, exp.Equal(got), "got %s", got)

	assert.True(t, expiryOf(&models.TokenResponse{AccessToken: "opaque"}, fixedNow).IsZero())
	assert.True(t, fixedNow.Add(time.Minute).Equal(expiryOf(&models.TokenResponse{AccessToken: signed, ExpiresIn: 60}, fixedNow)))
}

func TestTransportAttachesBearerToken(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(&Tokens{AccessToken: "a1", RefreshToken: "r1"}))
	src := NewTokenSource(store, new(MockAuthenticator), time.Second, nil)

	var header string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("Authorization")
	}))
	t.Cleanup(server.Close)

	client := &http.Client{Transport: &oauth2.Transport{Source: src}}
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer a1", header)

	require.NoError(t, store.Clear())
	_, err = client.Get(server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, custom_error.ErrUnauthenticated)
}

func setupRouter(t *testing.T, auth Authenticator) (*gin.Engine, *Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := newStore(t)
	manager := NewManager(store, auth, nil)
	manager.now = func() time.Time { return fixedNow }

	router := gin.New()
	NewHandler(manager, nil).RegisterRoutes(router)
	return router, store
}

func TestLoginHandler(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, models.LoginRequest{Username: "ops@example.com", Password: "secret"}).
		Return(&models.TokenResponse{AccessToken: "a1", RefreshToken: "r1", ExpiresIn: 3600}, nil)
	auth.On("Login", mock.Anything, models.LoginRequest{Username: "ops@example.com", Password: "wrong"}).
		Return(nil, custom_error.NewStatusError("login", http.StatusUnauthorized, "invalid credentials"))

	router, store := setupRouter(t, auth)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/session/login", strings.NewReader(`{"email":"ops@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid credentials")

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/session/login", strings.NewReader(`{"email":"ops@example.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var status Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Authenticated)
	require.NotNil(t, status.ExpiresAt)
	assert.True(t, fixedNow.Add(time.Hour).Equal(*status.ExpiresAt))

	tokens, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a1", tokens.AccessToken)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodDelete, "/session", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/session", nil)
	router.ServeHTTP(w, req)
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
}

func TestLoginHandlerRejectsMissingFields(t *testing.T) {
	router, _ := setupRouter(t, new(MockAuthenticator))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/session/login", strings.NewReader(`{"email":"ops@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
