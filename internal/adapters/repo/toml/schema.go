package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Accounts []accountSchema `toml:"accounts"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported accounts schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	ID        string        `toml:"id"`
	UserName  string        `toml:"user_name"`
	ClientID  string        `toml:"client_id"`
	UserAgent string        `toml:"user_agent,omitempty"`
	Secrets   secretsSchema `toml:"secrets"`
}

type secretsSchema struct {
	PasswordRef     string `toml:"password_ref"`
	ClientSecretRef string `toml:"client_secret_ref"`
}
