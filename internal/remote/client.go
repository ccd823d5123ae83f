package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	custom_error "github.com/nadirsultanli/order-management-system-sub008/pkg/errors"
)

// Client is the typed request/response channel to the logistics backend.
type Client struct {
	baseURL           string
	http              *http.Client
	validationTimeout time.Duration
	mutationTimeout   time.Duration
	requestTimeout    time.Duration
}

type Options struct {
	BaseURL           string
	HTTPClient        *http.Client
	ValidationTimeout time.Duration
	MutationTimeout   time.Duration
	RequestTimeout    time.Duration
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:           strings.TrimRight(opts.BaseURL, "/"),
		http:              httpClient,
		validationTimeout: opts.ValidationTimeout,
		mutationTimeout:   opts.MutationTimeout,
		requestTimeout:    opts.RequestTimeout,
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (b errorBody) text() string {
	for _, s := range []string{b.Message, b.Error, b.Detail} {
		if s != "" {
			return s
		}
	}
	return ""
}

type call struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    interface{}
	timeout time.Duration
}

func (c *Client) do(ctx context.Context, cl call, dest interface{}) error {
	if c.http == nil {
		return &custom_error.RemoteError{Kind: custom_error.KindNetwork, Op: cl.op, Message: "remote client not configured"}
	}

	if cl.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cl.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", cl.op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return custom_error.NewTransportError(cl.op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return custom_error.NewTransportError(cl.op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body errorBody
		_ = json.Unmarshal(raw, &body)
		return custom_error.NewStatusError(cl.op, resp.StatusCode, body.text())
	}

	if dest == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return custom_error.NewContractError(cl.op, err)
	}

	return nil
}
