package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

var ErrUnavailable = errors.New("pass command unavailable")

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

// Store shells out to the pass(1) password manager. Secrets are stored as
// multiline entries so a value with embedded newlines survives unchanged.
type Store struct {
	run    runFunc
	prefix string
}

var _ ports.SecretStore = (*Store)(nil)

// NewStore returns a pass-backed store. A non-empty prefix is prepended to
// every key, for example "bots" turns "streamwatch/main/password" into
// "bots/streamwatch/main/password".
func NewStore(prefix string) *Store {
	return &Store{run: runPassCommand, prefix: strings.Trim(prefix, "/")}
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := s.entry(key)
	_, stderr, err := s.run(ctx, value+"\n", "insert", "-m", "-f", entry)
	if err != nil {
		return formatError("put", entry, err, stderr)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	entry := s.entry(key)
	stdout, stderr, err := s.run(ctx, "", "show", entry)
	if err != nil {
		if isNotInStore(stderr) {
			return "", fmt.Errorf("pass entry %q: %w", entry, domain.ErrSecretNotFound)
		}
		return "", formatError("get", entry, err, stderr)
	}

	stdout = strings.TrimSuffix(stdout, "\n")
	stdout = strings.TrimSuffix(stdout, "\r")

	return stdout, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := s.entry(key)
	_, stderr, err := s.run(ctx, "", "rm", "-f", entry)
	if err != nil {
		if isNotInStore(stderr) {
			return nil
		}
		return formatError("delete", entry, err, stderr)
	}

	return nil
}

func (s *Store) entry(key string) string {
	key = strings.Trim(strings.TrimSpace(key), "/")
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func isNotInStore(stderr string) bool {
	return strings.Contains(stderr, "is not in the password store")
}

func runPassCommand(ctx context.Context, input string, args ...string) (string, string, error) {
	path, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(op string, entry string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, entry, err)
	}

	return fmt.Errorf("pass %s %q: %w: %s", op, entry, err, stderr)
}
