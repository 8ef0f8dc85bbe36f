package application

import "github.com/bnema/streamwatch/internal/domain"

// SetAccountCommand creates or updates a bot account. Empty secret values keep
// whatever is already stored.
type SetAccountCommand struct {
	ID           domain.AccountID
	UserName     string
	ClientID     string
	UserAgent    string
	Password     string
	ClientSecret string
}
