package remote

import (
	"context"
	"net/http"

	"github.com/nadirsultanli/order-management-system-sub008/pkg/models"
)

// Login and Refresh must be called on a client without the bearer transport.

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	var tokens models.TokenResponse
	err := c.do(ctx, call{
		op:      "login",
		method:  http.MethodPost,
		path:    "/auth/login",
		body:    req,
		timeout: c.requestTimeout,
	}, &tokens)
	if err != nil {
		return nil, err
	}

	return &tokens, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	var tokens models.TokenResponse
	err := c.do(ctx, call{
		op:      "refresh token",
		method:  http.MethodPost,
		path:    "/auth/refresh",
		body:    map[string]string{"refresh_token": refreshToken},
		timeout: c.requestTimeout,
	}, &tokens)
	if err != nil {
		return nil, err
	}

	return &tokens, nil
}
