// Package assistant is the HTTP client for the legal-assistant backend: chat,
// template schemas, designs, document generation, file analysis and feedback.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"legalassist-backend/internal/conversation"
)

const defaultTimeout = 60 * time.Second

// Options configures a Client.
type Options struct {
	BaseURL string
	// Token is sent as a bearer token when set.
	Token   string
	Timeout time.Duration
	// HTTPClient overrides the transport. Token is ignored when it is set.
	HTTPClient *http.Client
}

// Client implements the conversation collaborator ports over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("ASSISTANT_BASE_URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid ASSISTANT_BASE_URL: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		if token := strings.TrimSpace(opts.Token); token != "" {
			src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
			httpClient = oauth2.NewClient(context.Background(), src)
		} else {
			httpClient = &http.Client{}
		}
		httpClient.Timeout = timeout
	}
	return &Client{baseURL: base, httpClient: httpClient}, nil
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("assistant: http status %d: %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("assistant: http status %d: %s", e.Status, e.Message)
}

// Unwrap maps quota responses to conversation.ErrQuotaExhausted.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusPaymentRequired || e.Code == "quota_exhausted" {
		return conversation.ErrQuotaExhausted
	}
	return nil
}

type errorEnvelope struct {
	Error   json.RawMessage `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		if s := strings.TrimSpace(string(body)); s != "" && len(s) < 512 {
			apiErr.Message = s
		}
		return apiErr
	}
	if len(env.Error) > 0 {
		var nested struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(env.Error, &nested); err == nil {
			env.Code, env.Message = nested.Code, nested.Message
		} else {
			var s string
			if json.Unmarshal(env.Error, &s) == nil {
				env.Message = s
			}
		}
	}
	if env.Code != "" {
		apiErr.Code = env.Code
	}
	switch {
	case env.Message != "":
		apiErr.Message = env.Message
	case env.Detail != "":
		apiErr.Message = env.Detail
	}
	return apiErr
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return fmt.Errorf("assistant request timeout: %w", err)
		}
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("assistant response parse: %w", err)
	}
	return nil
}
