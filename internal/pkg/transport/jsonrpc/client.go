// Package jsonrpc provides a generic JSON-RPC 2.0 client implementation over
// HTTP. It supports configurable HTTP transports with retries and surfaces
// provider errors with their JSON-RPC error code, which callers can use to
// classify failures (e.g. rate limiting) without parsing message text.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrProviderReturnedError indicates that the remote JSON-RPC server returned
// an error response. Use errors.As with *ProviderError to inspect the code.
var ErrProviderReturnedError = errors.New("provider error")

// ProviderError carries the code and message of a JSON-RPC error object
// returned by the server. It unwraps to ErrProviderReturnedError.
type ProviderError struct {
	Code    int    // error code defined by the JSON-RPC spec or custom server logic
	Message string // human-readable error message
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: [%d] - %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return ErrProviderReturnedError
}

// response represents a standard JSON-RPC 2.0 response.
type response struct {
	JsonRPC string `json:"jsonrpc"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Result json.RawMessage `json:"result"`
}

// err returns a *ProviderError if the response includes a JSON-RPC error
// object, or nil otherwise.
func (r response) err() error {
	if r.Error == nil {
		return nil
	}

	return &ProviderError{
		Code:    r.Error.Code,
		Message: r.Error.Message,
	}
}

// Client defines the interface for a generic JSON-RPC client.
// It can be used to abstract the underlying implementation and facilitate mocking or testing.
type Client interface {
	// Fetch sends a JSON-RPC request with the given method name and parameters.
	// It returns the raw JSON result or an error if the request or response fails.
	Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// client is the default implementation of the Client interface.
// It sends JSON-RPC requests to the configured provider endpoint using the provided HTTP client.
type client struct {
	providerEndpoint string       // the URL of the remote JSON-RPC server
	httpClient       *http.Client // the HTTP client used to perform requests
}

// Compile-time assertion that client implements the Client interface.
var _ Client = (*client)(nil)

// Fetch sends a JSON-RPC request to the remote server with the given method
// and parameters. It returns the raw result as a json.RawMessage, or an error
// if the transport fails or the server responds with an error object. The
// request id is a generated UUID string.
func (c *client) Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      uuid.NewString(),
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.providerEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var data response
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}

	return data.Result, data.err()
}

// NewClient constructs and returns a Client that will send JSON-RPC requests
// to the specified provider endpoint using the given HTTP client.
func NewClient(httpClient *http.Client, providerEndpoint string) *client {
	return &client{
		providerEndpoint: providerEndpoint,
		httpClient:       httpClient,
	}
}
