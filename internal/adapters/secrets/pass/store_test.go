package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/streamwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "streamwatch/main/client_secret"

func TestStorePutUsesMultilineInsert(t *testing.T) {
	t.Parallel()

	called := false
	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			called = true
			assert.Equal(t, []string{"insert", "-m", "-f", testKey}, args)
			assert.Equal(t, "s3cret\n", input)
			return "", "", nil
		},
	}

	require.NoError(t, store.Put(context.Background(), testKey, "s3cret"))
	assert.True(t, called)
}

func TestStorePrefixesEntries(t *testing.T) {
	t.Parallel()

	store := NewStore("/bots/")
	store.run = func(ctx context.Context, input string, args ...string) (string, string, error) {
		assert.Equal(t, []string{"show", "bots/" + testKey}, args)
		return "s3cret\n", "", nil
	}

	value, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", value)
}

func TestStoreGetTrimsTrailingNewline(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Empty(t, input)
			return "s3cret\r\n", "", nil
		},
	}

	value, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", value)
}

func TestStoreGetMapsMissingEntry(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "Error: " + testKey + " is not in the password store.", errors.New("exit status 1")
		},
	}

	_, err := store.Get(context.Background(), testKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreGetReturnsClearError(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "gpg: decryption failed: No secret key", errors.New("exit status 2")
		},
	}

	_, err := store.Get(context.Background(), testKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, "pass get")
	assert.ErrorContains(t, err, testKey)
	assert.ErrorContains(t, err, "decryption failed")
}

func TestStoreDeleteIgnoresMissingEntry(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"rm", "-f", testKey}, args)
			return "", "Error: " + testKey + " is not in the password store.", errors.New("exit status 1")
		},
	}

	require.NoError(t, store.Delete(context.Background(), testKey))
}
