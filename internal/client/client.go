package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	csrfPath   = "/api/auth/csrf"
	csrfHeader = "X-CSRF-Token"
)

// APIError is a non-2xx response.
type APIError struct {
	Status       int
	Message      string
	PointsNeeded int
	Body         string
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	case e.Body != "":
		return fmt.Sprintf("%d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("%d: %s", e.Status, http.StatusText(e.Status))
}

// ErrorMessage turns any request error into text fit for a notification.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.PointsNeeded > 0:
			return fmt.Sprintf("You need %d more points to redeem this reward", apiErr.PointsNeeded)
		case apiErr.Message != "":
			return apiErr.Message
		case apiErr.Body != "":
			return apiErr.Body
		}
		return http.StatusText(apiErr.Status)
	}

	return err.Error()
}

// Client talks JSON to the Trak server and keeps its cookies.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	jar     *resettableJar

	mu        sync.Mutex
	csrfToken string
}

type Option func(*Client)

// WithHTTPClient replaces the transport. Its Jar is overwritten.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
		jar:     newResettableJar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Jar = c.jar

	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cookies returns the cookies the server has set, for persistence.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// SetCookies restores previously persisted cookies.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.jar.SetCookies(c.baseURL, cookies)
}

// ResetCookies forgets every cookie and the CSRF token.
func (c *Client) ResetCookies() {
	c.jar.Reset()

	c.mu.Lock()
	c.csrfToken = ""
	c.mu.Unlock()
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.do(ctx, http.MethodPost, path, query, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, query, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	headers := http.Header{}

	if method != http.MethodGet && method != http.MethodHead {
		token, err := c.ensureCSRF(ctx)
		if err != nil {
			return err
		}
		headers.Set(csrfHeader, token)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
		headers.Set("Content-Type", "application/json")
	}

	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header = headers
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) error {
	apiErr := &APIError{
		Status: status,
		Body:   strings.TrimSpace(string(data)),
	}

	var body struct {
		Message      string `json:"message"`
		PointsNeeded int    `json:"pointsNeeded"`
	}
	if json.Unmarshal(data, &body) == nil {
		apiErr.Message = body.Message
		apiErr.PointsNeeded = body.PointsNeeded
	}

	return apiErr
}

// ensureCSRF fetches the double-submit token once per cookie jar.
func (c *Client) ensureCSRF(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.csrfToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	var body struct {
		Token string `json:"csrf_token"`
	}
	err := c.Get(ctx, csrfPath, nil, &body)
	if err != nil {
		return "", fmt.Errorf("failed to get csrf token: %w", err)
	}
	if body.Token == "" {
		return "", errors.New("server returned an empty csrf token")
	}

	c.mu.Lock()
	c.csrfToken = body.Token
	c.mu.Unlock()

	return body.Token, nil
}

// resettableJar is a cookie jar that can be emptied in place, so the
// http.Client holding it never has to be mutated.
type resettableJar struct {
	mu    sync.RWMutex
	inner *cookiejar.Jar
}

func newResettableJar() *resettableJar {
	j := &resettableJar{}
	j.Reset()
	return j
}

func (j *resettableJar) Reset() {
	// cookiejar.New only fails on a bad PublicSuffixList, and we pass none
	inner, _ := cookiejar.New(nil)

	j.mu.Lock()
	j.inner = inner
	j.mu.Unlock()
}

func (j *resettableJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.inner.SetCookies(u, cookies)
}

func (j *resettableJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.inner.Cookies(u)
}
