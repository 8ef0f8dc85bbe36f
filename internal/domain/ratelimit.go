package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DefaultRateLimitCooldown = time.Minute

var cooldownPattern = regexp.MustCompile(`(\d+)\s*(hour|minute|second)s?\b`)

// RateLimitError is the only failure allowed to escape a pipeline cycle.
type RateLimitError struct {
	Message  string
	Cooldown time.Duration
}

func NewRateLimitError(message string) *RateLimitError {
	return &RateLimitError{Message: message, Cooldown: ParseRateLimitCooldown(message)}
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rate limited for %s", e.Cooldown)
	}
	return fmt.Sprintf("rate limited: %s", e.Message)
}

// ParseRateLimitCooldown converts the upstream "try again in N units" hint into a
// sleep duration, padding minute and hour windows so the retry lands after the reset.
func ParseRateLimitCooldown(message string) time.Duration {
	match := cooldownPattern.FindStringSubmatch(strings.ToLower(message))
	if match == nil {
		return DefaultRateLimitCooldown
	}

	n, err := strconv.Atoi(match[1])
	if err != nil {
		return DefaultRateLimitCooldown
	}

	switch match[2] {
	case "hour":
		return time.Duration(n)*time.Hour + time.Minute
	case "minute":
		return time.Duration(n)*time.Minute + 5*time.Second
	default:
		return time.Duration(n) * time.Second
	}
}
