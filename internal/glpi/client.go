package glpi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"label-intake-api/internal/apperr"
)

// searchOptions maps GLPI column names to the search option ids of the
// /search endpoint.
var searchOptions = map[string]int{
	"name":        1,
	"id":          2,
	"serial":      5,
	"otherserial": 6,
}

// Config holds connection settings for the GLPI REST API.
type Config struct {
	BaseURL   string
	AppToken  string
	UserToken string
	Timeout   time.Duration
	// SecondaryField is the GLPI column holding the printed or QR-encoded
	// code. Defaults to "otherserial".
	SecondaryField string
	// ModelField is the GLPI column that receives model text. Defaults to
	// "name".
	ModelField string
}

// Client talks to the GLPI REST API. It holds no session state; callers
// open a Session per logical operation.
type Client struct {
	baseURL        string
	appToken       string
	userToken      string
	httpClient     *http.Client
	secondaryField string
	modelField     string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds a GLPI client. Missing credentials are not an error
// here; Open reports them.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := &Client{
		baseURL:        sanitizeBaseURL(cfg.BaseURL),
		appToken:       strings.TrimSpace(cfg.AppToken),
		userToken:      strings.TrimSpace(cfg.UserToken),
		httpClient:     &http.Client{Timeout: timeout},
		secondaryField: strings.TrimSpace(cfg.SecondaryField),
		modelField:     strings.TrimSpace(cfg.ModelField),
	}
	if c.secondaryField == "" {
		c.secondaryField = "otherserial"
	}
	if c.modelField == "" {
		c.modelField = "name"
	}
	if _, ok := searchOptions[c.secondaryField]; !ok || c.secondaryField == "id" {
		return nil, fmt.Errorf("glpi secondary field %q is not searchable", c.secondaryField)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Configured reports whether URL and both tokens are set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.appToken != "" && c.userToken != ""
}

// Open starts a GLPI session. The caller must Close it.
func (c *Client) Open(ctx context.Context) (*Session, error) {
	if !c.Configured() {
		return nil, apperr.Wrap(apperr.ErrConfiguration, "glpi", "set GLPI_URL, GLPI_APP_TOKEN and GLPI_USER_TOKEN", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/initSession", nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, "glpi init session", "", err)
	}
	req.Header.Set("App-Token", c.appToken)
	req.Header.Set("Authorization", "user_token "+c.userToken)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, "glpi init session", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, statusError("glpi init session", resp)
	}
	var payload struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperr.Wrap(apperr.ErrUpstream, "glpi init session", "decode response", err)
	}
	if payload.SessionToken == "" {
		return nil, apperr.Wrap(apperr.ErrUpstream, "glpi init session", "empty session token", nil)
	}
	return &Session{client: c, token: payload.SessionToken}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("App-Token", c.appToken)
	req.Header.Set("Session-Token", token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := resp.Status
	if text := strings.TrimSpace(string(body)); text != "" {
		msg += ": " + text
	}
	return apperr.Wrap(apperr.ErrUpstream, operation, msg, nil)
}

func sanitizeBaseURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	return strings.TrimRight(trimmed, "/")
}
