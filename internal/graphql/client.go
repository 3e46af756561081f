package graphql

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zilgopy/exa-mcp/internal/config"
)

const (
	defaultTimeout = 30 * time.Second

	// sessionValidity is a local policy constant, not a protocol fact: the
	// appliance never reports how long an issued session actually lives,
	// so the client assumes one hour and re-logs-in after that.
	sessionValidity = time.Hour

	sessionCookie = "sessionid"
)

// SessionClient is a Client that authenticates lazily against the EXAScaler
// session endpoint and attaches the issued session cookie to every GraphQL
// request. The session is shared by all callers; refresh is single-flight,
// so concurrent callers that observe an expired session produce exactly one
// login between them.
type SessionClient struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string

	// mu guards the session fields and is never held across a network
	// exchange, so callers holding a valid session read it without waiting
	// on an in-flight login.
	mu        sync.Mutex
	cookie    string
	expiresAt time.Time

	// loginMu serialises the credential exchange: concurrent callers that
	// observe a missing or expired session join one refresh.
	loginMu sync.Mutex

	// now is replaceable in tests.
	now func() time.Time
}

// Compile-time interface check.
var _ Client = (*SessionClient)(nil)

// NewSessionClient constructs a SessionClient from the provided
// ExascalerConfig. It returns an error if cfg.URL is empty. When cfg.Timeout
// is zero or negative, a default timeout of 30 seconds is used. No network
// traffic happens until the first Execute call.
func NewSessionClient(cfg config.ExascalerConfig) (*SessionClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("graphql: URL is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if !cfg.VerifyTLS() {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &SessionClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		now:        time.Now,
	}, nil
}

// loginRequest is the JSON body shape for the credential exchange.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// graphqlRequest is the JSON body shape for a GraphQL HTTP request.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the JSON body shape for a GraphQL HTTP response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// ensureSession returns a session cookie that is valid by the local clock,
// performing a login if the session is absent or expired. The session check
// is repeated after acquiring the login guard: waiters that queued behind an
// in-flight refresh pick up its result instead of logging in again.
func (c *SessionClient) ensureSession(ctx context.Context) (string, error) {
	if cookie, ok := c.validSession(); ok {
		return cookie, nil
	}

	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	if cookie, ok := c.validSession(); ok {
		return cookie, nil
	}
	return c.login(ctx)
}

// validSession returns the current session cookie if one is installed and
// still inside its validity window.
func (c *SessionClient) validSession() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cookie != "" && c.now().Before(c.expiresAt) {
		return c.cookie, true
	}
	return "", false
}

// login performs the credential exchange against <baseURL>/session and
// installs the issued session cookie. On any failure, no session is
// installed and the next caller retries the login. The caller must hold
// c.loginMu; c.mu is taken only to install the result.
func (c *SessionClient) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return "", fmt.Errorf("graphql: marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/session", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("graphql: create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ConnectivityError{Op: "login", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &AuthenticationError{Detail: fmt.Sprintf("login returned HTTP %d", resp.StatusCode)}
	}

	var cookie string
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookie {
			cookie = ck.Value
			break
		}
	}
	if cookie == "" {
		return "", &AuthenticationError{Detail: fmt.Sprintf("%q cookie not issued in login response", sessionCookie)}
	}

	c.mu.Lock()
	c.cookie = cookie
	c.expiresAt = c.now().Add(sessionValidity)
	c.mu.Unlock()
	return cookie, nil
}

// invalidate discards the current session if it is still the given stale
// cookie. A session installed by a concurrent login in the meantime is left
// alone.
func (c *SessionClient) invalidate(stale string) {
	c.mu.Lock()
	if c.cookie == stale {
		c.cookie = ""
		c.expiresAt = time.Time{}
	}
	c.mu.Unlock()
}

// Execute sends a GraphQL query or mutation to <baseURL>/graphql and returns
// the raw JSON bytes of the "data" field on success. A login is performed
// first when no session exists or the local validity window has elapsed.
//
// Because the validity window is only a local guess, an HTTP 401/403 from
// the GraphQL endpoint under a locally-valid session is treated as an
// implicit expiry signal: the session is discarded, one fresh login is
// attempted, and the request is retried exactly once.
func (c *SessionClient) Execute(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	cookie, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	data, err := c.post(ctx, cookie, query, variables)

	var opErr *OperationError
	if errors.As(err, &opErr) && opErr.authShaped() {
		c.invalidate(cookie)
		cookie, err = c.ensureSession(ctx)
		if err != nil {
			return nil, err
		}
		return c.post(ctx, cookie, query, variables)
	}

	return data, err
}

// post performs a single authenticated GraphQL HTTP exchange.
func (c *SessionClient) post(ctx context.Context, cookie, query string, variables map[string]any) ([]byte, error) {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("graphql: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: cookie})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectivityError{Op: "execute", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &OperationError{Status: resp.StatusCode}
	}

	var gqlResp graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return nil, fmt.Errorf("graphql: decode response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		msgs := make([]string, len(gqlResp.Errors))
		for i, e := range gqlResp.Errors {
			msgs[i] = e.Message
		}
		return nil, &OperationError{Messages: msgs}
	}

	return []byte(gqlResp.Data), nil
}
