package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bnema/streamwatch/internal/domain"
	portmocks "github.com/bnema/streamwatch/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testKey = "streamwatch/main/password"

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, testKey).Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, testKey).Return("", errors.New("pass unavailable")).Once()
	fallback.EXPECT().Get(mock.Anything, testKey).Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetReportsNotFoundOnlyWhenBothMiss(t *testing.T) {
	t.Parallel()

	missing := fmt.Errorf("x: %w", domain.ErrSecretNotFound)

	t.Run("both miss", func(t *testing.T) {
		primary := portmocks.NewMockSecretStore(t)
		fallback := portmocks.NewMockSecretStore(t)
		primary.EXPECT().Get(mock.Anything, testKey).Return("", missing).Once()
		fallback.EXPECT().Get(mock.Anything, testKey).Return("", missing).Once()

		_, err := NewStore(primary, fallback).Get(context.Background(), testKey)
		require.ErrorIs(t, err, domain.ErrSecretNotFound)
	})

	t.Run("fallback broken", func(t *testing.T) {
		primary := portmocks.NewMockSecretStore(t)
		fallback := portmocks.NewMockSecretStore(t)
		primary.EXPECT().Get(mock.Anything, testKey).Return("", missing).Once()
		fallback.EXPECT().Get(mock.Anything, testKey).Return("", errors.New("permission denied")).Once()

		_, err := NewStore(primary, fallback).Get(context.Background(), testKey)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrSecretNotFound)
		assert.ErrorContains(t, err, "permission denied")
	})
}

func TestStoreGetReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, testKey).Return("", errors.New("pass failed")).Once()
	fallback.EXPECT().Get(mock.Anything, testKey).Return("", errors.New("file failed")).Once()

	_, err := store.Get(context.Background(), testKey)
	require.Error(t, err)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
	assert.ErrorContains(t, err, "pass failed")
	assert.ErrorContains(t, err, "file failed")
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, testKey, "secret").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Put(mock.Anything, testKey, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), testKey, "secret"))
}

func TestStorePutDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Put(mock.Anything, testKey, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), testKey, "secret"))
}

func TestStoreDeleteClearsBothBackends(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, testKey).Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, testKey).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), testKey))
}

func TestStoreDeleteSucceedsWhenOneBackendSucceeds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Delete(mock.Anything, testKey).Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, testKey).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), testKey))
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store := NewStore(primary, fallback)

	primary.EXPECT().Get(mock.Anything, testKey).Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), testKey)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreCheckedRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStoreChecked(nil, portmocks.NewMockSecretStore(t))
	require.ErrorIs(t, err, errNilPrimaryStore)

	_, err = NewStoreChecked(portmocks.NewMockSecretStore(t), nil)
	require.ErrorIs(t, err, errNilFallbackStore)
}
