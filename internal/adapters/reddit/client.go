package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

const (
	DefaultAuthURL       = "https://www.reddit.com"
	DefaultAPIURL        = "https://oauth.reddit.com"
	DefaultSocketInfoURL = "https://strapi.reddit.com"
)

type Config struct {
	APIURL         string
	SocketInfoURL  string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// Client is the authenticated reddit API used by the bot. It fetches a token
// lazily and refreshes it once per request when upstream answers 401.
type Client struct {
	cfg   Config
	auth  ports.Authenticator
	creds domain.Credentials
	clock ports.Clock

	mu       sync.Mutex
	token    domain.Token
	identity string
}

var _ ports.RedditAPI = (*Client)(nil)

func NewClient(cfg Config, auth ports.Authenticator, creds domain.Credentials, clock ports.Clock) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.SocketInfoURL == "" {
		cfg.SocketInfoURL = DefaultSocketInfoURL
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Client{cfg: cfg, auth: auth, creds: creds, clock: clock}
}

type apiRequest struct {
	method  string
	baseURL string
	path    string
	query   url.Values
	form    url.Values
	header  http.Header
}

func (c *Client) get(path string, query url.Values) apiRequest {
	return apiRequest{method: http.MethodGet, baseURL: c.cfg.APIURL, path: path, query: query}
}

func (c *Client) post(path string, form url.Values) apiRequest {
	return apiRequest{method: http.MethodPost, baseURL: c.cfg.APIURL, path: path, form: form}
}

func (c *Client) do(ctx context.Context, call apiRequest, out any) error {
	for attempt := 0; ; attempt++ {
		token, err := c.accessToken(ctx)
		if err != nil {
			return err
		}

		resp, err := c.send(ctx, call, token)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			_ = resp.Body.Close()
			c.invalidate(token)
			continue
		}

		err = decodeResponse(resp, call, out)
		_ = resp.Body.Close()
		return err
	}
}

func (c *Client) send(ctx context.Context, call apiRequest, token string) (*http.Response, error) {
	endpoint, err := buildAPIURL(call.baseURL, call.path)
	if err != nil {
		return nil, err
	}
	if len(call.query) > 0 {
		endpoint += "?" + call.query.Encode()
	}

	var body io.Reader
	if call.form != nil {
		body = strings.NewReader(call.form.Encode())
	}

	requestCtx, cancel := withRequestTimeout(ctx, c.cfg.RequestTimeout)
	req, err := http.NewRequestWithContext(requestCtx, call.method, endpoint, body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create %s request: %w", call.path, err)
	}
	for key, values := range call.header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if call.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.creds.UserAgent)

	resp, err := httpClientOrDefault(c.cfg.HTTPClient).Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%s %s: %w", call.method, call.path, err)
	}
	resp.Body = cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func decodeResponse(resp *http.Response, call apiRequest, out any) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return rateLimitFromResponse(resp)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", call.method, call.path, domain.ErrNotFound)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return fmt.Errorf("%s %s: status %d", call.method, call.path, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", call.path, err)
	}
	if err := apiErrors(data); err != nil {
		return fmt.Errorf("%s %s: %w", call.method, call.path, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", call.path, err)
	}
	return nil
}

type jsonEnvelope struct {
	JSON *struct {
		Errors [][]string `json:"errors"`
	} `json:"json"`
}

// apiErrors surfaces the errors array of api_type=json responses. RATELIMIT
// entries become *domain.RateLimitError carrying the upstream wording.
func apiErrors(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}

	var envelope jsonEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.JSON == nil {
		return nil
	}

	var errs []error
	for _, entry := range envelope.JSON.Errors {
		if len(entry) == 0 {
			continue
		}
		message := entry[0]
		if len(entry) > 1 {
			message = entry[1]
		}
		if entry[0] == "RATELIMIT" {
			return domain.NewRateLimitError(message)
		}
		errs = append(errs, fmt.Errorf("%s: %s", entry[0], message))
	}
	return errors.Join(errs...)
}

func rateLimitFromResponse(resp *http.Response) *domain.RateLimitError {
	cooldown := domain.DefaultRateLimitCooldown
	if raw := strings.TrimSpace(resp.Header.Get("X-Ratelimit-Reset")); raw != "" {
		if seconds, err := strconv.ParseFloat(raw, 64); err == nil && seconds > 0 {
			cooldown = time.Duration(seconds * float64(time.Second))
		}
	}
	return &domain.RateLimitError{
		Message:  fmt.Sprintf("status %d, reset in %s", resp.StatusCode, cooldown),
		Cooldown: cooldown,
	}
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.Valid(c.clock.Now()) {
		return c.token.AccessToken, nil
	}

	token, err := c.auth.Authenticate(ctx, c.creds)
	if err != nil {
		return "", fmt.Errorf("authenticate %s: %w", c.creds.UserName, err)
	}
	c.token = token
	return token.AccessToken, nil
}

func (c *Client) invalidate(stale string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token.AccessToken == stale {
		c.token = domain.Token{}
	}
}
