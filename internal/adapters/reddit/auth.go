package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

const (
	defaultTokenPath        = "/api/v1/access_token"
	defaultRequestTimeout   = 30 * time.Second
	maxResponseBytes        = 4 << 20
	tokenExpirySafetyMargin = time.Minute
)

var ErrInvalidGrant = errors.New("reddit rejected the account credentials")

// PasswordGrant exchanges script-app credentials for a bearer token using the
// OAuth2 resource owner password grant.
type PasswordGrant struct {
	BaseURL        string
	TokenPath      string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Clock          ports.Clock
}

var _ ports.Authenticator = PasswordGrant{}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (g PasswordGrant) Authenticate(ctx context.Context, creds domain.Credentials) (domain.Token, error) {
	if creds.ClientID == "" || creds.UserName == "" {
		return domain.Token{}, errors.New("client id and user name are required")
	}

	tokenPath := g.TokenPath
	if tokenPath == "" {
		tokenPath = defaultTokenPath
	}
	endpoint, err := buildAPIURL(g.BaseURL, tokenPath)
	if err != nil {
		return domain.Token{}, err
	}

	values := url.Values{}
	values.Set("grant_type", "password")
	values.Set("username", creds.UserName)
	values.Set("password", creds.Password)

	requestCtx, cancel := withRequestTimeout(ctx, g.RequestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return domain.Token{}, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", creds.UserAgent)
	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)

	resp, err := httpClientOrDefault(g.HTTPClient).Do(req)
	if err != nil {
		return domain.Token{}, fmt.Errorf("request token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return domain.Token{}, rateLimitFromResponse(resp)
	}

	var payload tokenResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if decodeErr == nil && payload.Error != "" {
			return domain.Token{}, fmt.Errorf("request token: %s", formatOAuthError(payload))
		}
		return domain.Token{}, fmt.Errorf("request token: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return domain.Token{}, fmt.Errorf("decode token response: %w", decodeErr)
	}
	// Bad passwords come back as 200 with an error body.
	if payload.Error == "invalid_grant" {
		return domain.Token{}, ErrInvalidGrant
	}
	if payload.Error != "" {
		return domain.Token{}, fmt.Errorf("request token: %s", formatOAuthError(payload))
	}
	if payload.AccessToken == "" {
		return domain.Token{}, errors.New("token response missing access token")
	}

	clock := g.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	expiresIn := time.Duration(payload.ExpiresIn) * time.Second
	if expiresIn > tokenExpirySafetyMargin {
		expiresIn -= tokenExpirySafetyMargin
	}

	return domain.Token{
		AccessToken: payload.AccessToken,
		Scope:       payload.Scope,
		ExpiresAt:   clock.Now().Add(expiresIn),
	}, nil
}

func formatOAuthError(payload tokenResponse) string {
	if payload.ErrorDescription != "" {
		return payload.Error + ": " + payload.ErrorDescription
	}
	return payload.Error
}

func httpClientOrDefault(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return http.DefaultClient
}

func withRequestTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
