package algod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Samarth07-ctrl/squadvault/internal/config"
)

// ErrUnavailable marks transport-level failures (node unreachable, timeout,
// 5xx). Callers may retry; the client already retries a bounded number of
// times before returning it.
var ErrUnavailable = errors.New("algod node unavailable")

// CompileError is returned when the node rejects the TEAL source. Retrying is
// pointless until the source changes.
type CompileError struct {
	Detail string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("teal compilation rejected: %s", e.Detail)
}

// CompileResult is the node's compile response: the program hash and the
// base64-encoded bytecode.
type CompileResult struct {
	Hash   string `json:"hash"`
	Result string `json:"result"`
}

// Compiler compiles TEAL source to bytecode.
type Compiler interface {
	Compile(ctx context.Context, source string) (*CompileResult, error)
}

// Client talks to an Algorand node's REST API.
type Client struct {
	address     string
	token       string
	maxAttempts int
	httpClient  *http.Client
}

func NewClient(cfg *config.AlgodConfig) *Client {
	return &Client{
		address:     strings.TrimRight(cfg.Address, "/"),
		token:       cfg.Token,
		maxAttempts: cfg.MaxAttempts,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Compile submits TEAL source to POST /v2/teal/compile. Transport errors and
// 5xx responses are retried with a short backoff; a 400 is surfaced
// immediately as a CompileError.
func (c *Client) Compile(ctx context.Context, source string) (*CompileResult, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		result, err := c.compileOnce(ctx, source)
		if err == nil {
			return result, nil
		}

		var compileErr *CompileError
		if errors.As(err, &compileErr) {
			return nil, err
		}
		lastErr = err

		if attempt < c.maxAttempts {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) compileOnce(ctx context.Context, source string) (*CompileResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.address+"/v2/teal/compile", strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Algo-API-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var result CompileResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode compile response: %w", err)
		}
		return &result, nil
	case resp.StatusCode == http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(body))
		if msg := decodeNodeError(body); msg != "" {
			detail = msg
		}
		return nil, &CompileError{Detail: detail}
	default:
		return nil, fmt.Errorf("unexpected status %d from algod", resp.StatusCode)
	}
}

func decodeNodeError(body []byte) string {
	var nodeErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &nodeErr); err != nil {
		return ""
	}
	return nodeErr.Message
}
