package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/logging"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

// HTTPClient calls the rainwise API.
type HTTPClient struct {
	base *url.URL
	hc   *http.Client
	log  logging.Logger
}

// New returns a client for baseURL. A nil hc uses a client with a 15s timeout.
func New(baseURL string, hc *http.Client, log logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &HTTPClient{base: u, hc: hc, log: log.With("component", "api")}, nil
}

// BaseURL returns the API root.
func (c *HTTPClient) BaseURL() string {
	return c.base.String()
}

// Do sends in as JSON (when non-nil) and decodes a 2xx reply into out
// (when non-nil).
func (c *HTTPClient) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "api call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var msg models.MessageResponse
	if json.Unmarshal(b, &msg) == nil {
		apiErr.Message = msg.Message
	}
	return apiErr
}

// transportError strips *url.Error so errors produced by the round tripper
// come through unchanged, and marks network failures as ErrUnavailable.
func transportError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// Login calls POST /auth/login.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	var resp models.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/login", nil, models.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// RefreshToken calls POST /auth/refresh-token.
func (c *HTTPClient) RefreshToken(ctx context.Context, refreshToken string) (*models.AuthResult, error) {
	var resp models.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/refresh-token", nil, models.RefreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Register calls POST /auth/register.
func (c *HTTPClient) Register(ctx context.Context, req models.RegisterRequest) (*models.RegisterResponse, error) {
	var resp models.RegisterResponse
	if err := c.Do(ctx, http.MethodPost, "/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmEmail calls POST /auth/confirm-email.
func (c *HTTPClient) ConfirmEmail(ctx context.Context, token string) error {
	return c.Do(ctx, http.MethodPost, "/auth/confirm-email", nil, models.ConfirmEmailRequest{Token: token}, nil)
}

// Ping checks that the API is reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.Do(ctx, http.MethodGet, "/public/health", nil, nil, nil)
}
