package custom_error

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestNewStatusErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		kind      Kind
		retryable bool
	}{
		{http.StatusUnauthorized, KindUnauthorized, false},
		{http.StatusForbidden, KindUnauthorized, false},
		{http.StatusConflict, KindRejected, false},
		{http.StatusUnprocessableEntity, KindRejected, false},
		{http.StatusGatewayTimeout, KindTimeout, true},
		{http.StatusInternalServerError, KindServer, true},
		{http.StatusServiceUnavailable, KindServer, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := NewStatusError("op", tt.status, "")
			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.retryable, err.Retryable())
			assert.NotEmpty(t, err.Message)
		})
	}
}

func TestNewTransportErrorDetectsTimeout(t *testing.T) {
	err := NewTransportError("validate transfer", fmt.Errorf("do: %w", context.DeadlineExceeded))
	assert.Equal(t, KindTimeout, err.Kind)
	assert.True(t, IsRetryable(err))

	err = NewTransportError("list transfers", fmt.Errorf("token: %w", ErrUnauthenticated))
	assert.Equal(t, KindUnauthorized, err.Kind)
	assert.Equal(t, 401, HTTPStatus(err))

	err = NewTransportError("validate transfer", errors.New("connection refused"))
	assert.Equal(t, KindNetwork, err.Kind)
	assert.True(t, IsRetryable(err))
}

func TestContractErrorIsNotRetryable(t *testing.T) {
	var dst struct{ Valid bool }
	decodeErr := json.Unmarshal([]byte(`{"valid":"yes"}`), &dst)

	err := NewContractError("validate transfer", decodeErr)
	assert.Equal(t, KindContract, err.Kind)
	assert.False(t, IsRetryable(err))
	assert.ErrorIs(t, err, decodeErr)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(&RemoteError{Kind: KindTimeout}))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(&RemoteError{Kind: KindServer}))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(&RemoteError{Kind: KindRejected, Status: 422}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestWrapDBError(t *testing.T) {
	err := WrapDBError("audit log", &pq.Error{Code: "23505"})
	var unique *UniqueViolationError
	assert.ErrorAs(t, err, &unique)

	err = WrapDBError("audit log", &pq.Error{Code: "23503"})
	var fk *ForeignKeyViolationError
	assert.ErrorAs(t, err, &fk)

	plain := errors.New("boom")
	assert.ErrorIs(t, WrapDBError("audit log", plain), plain)
	assert.NoError(t, WrapDBError("audit log", nil))
}
