package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

const (
	defaultRequestTimeout = 15 * time.Second
	maxErrorBodyBytes     = 4 << 10
	embedColor            = 0xFF4500
)

// Notifier posts a Discord-compatible embed for every submission that goes live.
type Notifier struct {
	URL            string
	Username       string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.Notifier = Notifier{}

type payload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title     string       `json:"title"`
	URL       string       `json:"url"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields"`
	Timestamp string       `json:"timestamp,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func buildPayload(username string, submission domain.Submission) payload {
	e := embed{
		Title: submission.Title,
		URL:   submission.Shortlink,
		Color: embedColor,
		Fields: []embedField{
			{Name: "Subreddit", Value: "r/" + submission.Subreddit, Inline: true},
			{Name: "Author", Value: "u/" + submission.Author, Inline: true},
		},
	}
	if !submission.CreatedAt.IsZero() {
		e.Timestamp = submission.CreatedAt.UTC().Format(time.RFC3339)
	}
	return payload{Username: username, Embeds: []embed{e}}
}

func (n Notifier) AnnounceLive(ctx context.Context, submission domain.Submission) error {
	if strings.TrimSpace(n.URL) == "" {
		return errors.New("webhook url is empty")
	}

	body, err := json.Marshal(buildPayload(n.Username, submission))
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	timeout := n.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	requestCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return rateLimit(resp)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("post webhook: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// rateLimit reads Retry-After, which Discord sends in seconds and may carry a
// fraction.
func rateLimit(resp *http.Response) *domain.RateLimitError {
	cooldown := domain.DefaultRateLimitCooldown
	if raw := strings.TrimSpace(resp.Header.Get("Retry-After")); raw != "" {
		if seconds, err := strconv.ParseFloat(raw, 64); err == nil && seconds > 0 {
			cooldown = time.Duration(seconds * float64(time.Second))
		}
	}
	return &domain.RateLimitError{Message: "webhook rate limited", Cooldown: cooldown}
}
