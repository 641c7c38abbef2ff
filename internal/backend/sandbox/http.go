package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
)

// HTTPExecutor talks to any service exposing the execute shape over
// HTTP: POST {"command": ...} returning {"output", "exit_code",
// "truncated"}. Cloud code-interpreter gateways fit behind this
// without a vendor SDK in the tree.
type HTTPExecutor struct {
	client   *retryablehttp.Client
	endpoint string
}

// HTTPOption configures an HTTPExecutor.
type HTTPOption func(*HTTPExecutor)

// WithRetryMax sets the retry budget for transport failures.
func WithRetryMax(n int) HTTPOption {
	return func(e *HTTPExecutor) { e.client.RetryMax = n }
}

// NewHTTPExecutor builds an executor against endpoint.
func NewHTTPExecutor(endpoint string, opts ...HTTPOption) *HTTPExecutor {
	client := retryablehttp.NewClient()
	client.Logger = nil
	e := &HTTPExecutor{
		client:   client,
		endpoint: endpoint,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type execRequest struct {
	Command string `json:"command"`
}

// Execute implements Executor. Retries happen only at the transport
// layer; a response with a non-zero exit code is a completed result.
func (e *HTTPExecutor) Execute(ctx context.Context, command string) (Result, error) {
	body, err := sonic.Marshal(execRequest{Command: command})
	if err != nil {
		return Result{}, fmt.Errorf("encode execute request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build execute request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read execute response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("execute endpoint returned %d: %s", resp.StatusCode, payload)
	}

	var res Result
	if err := sonic.Unmarshal(payload, &res); err != nil {
		return Result{}, fmt.Errorf("decode execute response: %w", err)
	}
	return res, nil
}
