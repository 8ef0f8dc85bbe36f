package domain

import (
	"strings"
	"time"
)

type AccountID string

// Account is a bot identity. Secret values never live here, only the refs into
// the secret store.
type Account struct {
	ID              AccountID
	UserName        string
	ClientID        string
	UserAgent       string
	PasswordRef     string
	ClientSecretRef string
}

func (a Account) SecretRefs() []string {
	refs := make([]string, 0, 2)
	for _, ref := range []string{a.PasswordRef, a.ClientSecretRef} {
		ref = strings.TrimSpace(ref)
		if ref != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

func (a Account) Complete() bool {
	return a.UserName != "" && a.ClientID != "" && a.PasswordRef != "" && a.ClientSecretRef != ""
}

func PasswordSecretKey(id AccountID) string {
	return "streamwatch/" + string(id) + "/password"
}

func ClientSecretKey(id AccountID) string {
	return "streamwatch/" + string(id) + "/client_secret"
}

// Credentials is an account with its secrets resolved, used for the token exchange.
type Credentials struct {
	UserName     string
	Password     string
	ClientID     string
	ClientSecret string
	UserAgent    string
}

type Token struct {
	AccessToken string
	Scope       string
	ExpiresAt   time.Time
}

func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt)
}
