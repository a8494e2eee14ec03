package api

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

	"github.com/google/uuid"
)

// DefaultBaseURL is the backend origin used when none is configured.
const DefaultBaseURL = "http://0.0.0.0:8000"

// apiPrefix is the fixed versioned prefix prepended to every path.
const apiPrefix = "/api/v1"

// TokenSource supplies the bearer token attached to authenticated
// requests. Token reports ok=false when no token is available, in
// which case the Authorization header is omitted entirely.
type TokenSource interface {
	Token() (token string, ok bool)
}

// StaticToken is a fixed-token TokenSource. The empty string means
// "no token".
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() (string, bool) {
	return string(t), t != ""
}

// Client talks to a Memsient backend. The zero value is not usable;
// construct with New. Clients are safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	userAgent  string

	planCacheTTL time.Duration

	// Operation groups.
	Auth    *AuthService
	Memory  *MemoryService
	APIKeys *APIKeysService
	Billing *BillingService
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets the underlying transport. Use this to enforce
// timeouts; the client itself adds none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenSource sets the bearer token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithPlanCache enables an in-process TTL cache for plan lookups.
// Plans are read-mostly reference data; everything else is always
// fetched fresh. Invalidate with Billing.InvalidatePlans.
func WithPlanCache(ttl time.Duration) Option {
	return func(c *Client) {
		c.planCacheTTL = ttl
	}
}

// New creates a client for the backend at baseURL. An empty baseURL
// falls back to DefaultBaseURL; a trailing slash is stripped.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{client: c}
	c.Memory = &MemoryService{client: c}
	c.APIKeys = &APIKeysService{client: c}
	c.Billing = &BillingService{client: c}
	if c.planCacheTTL > 0 {
		c.Billing.cache = newPlanCache(c.planCacheTTL)
	}
	return c
}

// SetTokenSource replaces the token source. The session store calls
// this during construction to make itself the single writer of the
// client's credentials.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do executes one request against path (relative to the versioned
// prefix) and decodes the JSON response into out when non-nil.
//
// Exactly one attempt is made. Non-2xx responses become *Error. An
// empty or unparseable success body leaves out at its zero value:
// the backend contract is "valid JSON or nothing", and the client
// performs no schema validation beyond that.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, skipAuth bool, out any) error {
	u := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	hasBody := body != nil
	if hasBody {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if !skipAuth && c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	// Parse failures on success degrade to the zero value rather than
	// an error, matching the lenient read side of the wire contract.
	_ = json.Unmarshal(data, out)
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, false, out)
}

func (c *Client) post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.do(ctx, http.MethodPost, path, query, body, false, out)
}

func (c *Client) delete(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodDelete, path, query, nil, false, out)
}
