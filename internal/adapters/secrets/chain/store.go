package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/streamwatch/internal/adapters/secrets/file"
	passstore "github.com/bnema/streamwatch/internal/adapters/secrets/pass"
	"github.com/bnema/streamwatch/internal/domain"
	"github.com/bnema/streamwatch/internal/ports"
)

// Store tries the primary backend first and falls back to the secondary one
// on any error other than context cancellation.
type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.SecretStore, fallback ports.SecretStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

// NewPassFirstWithFileFallback is the default backend chain used by the CLI.
func NewPassFirstWithFileFallback(passPrefix string, fileRoot string) (*Store, error) {
	return NewStoreChecked(passstore.NewStore(passPrefix), filestore.NewStore(fileRoot))
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

// Get reports domain.ErrSecretNotFound only when neither backend holds the
// key. A real failure in one backend wins over a miss in the other.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	primaryMissing := errors.Is(err, domain.ErrSecretNotFound)
	fallbackMissing := errors.Is(fallbackErr, domain.ErrSecretNotFound)
	switch {
	case primaryMissing && fallbackMissing:
		return "", fmt.Errorf("secret %q: %w", key, domain.ErrSecretNotFound)
	case primaryMissing:
		return "", fmt.Errorf("fallback backend get failed: %w", fallbackErr)
	case fallbackMissing:
		return "", fmt.Errorf("primary backend get failed: %w", err)
	}

	return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

// Delete removes the key from both backends so a stale copy in the fallback
// cannot shadow a later miss in the primary.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, key)
	switch {
	case err == nil || fallbackErr == nil:
		return nil
	default:
		return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
	}
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
