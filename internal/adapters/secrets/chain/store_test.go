package chain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bnema/hfmctl/internal/domain"
	portmocks "github.com/bnema/hfmctl/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newChain(t *testing.T) (*Store, *portmocks.MockSecretStore, *portmocks.MockSecretStore) {
	t.Helper()

	primary := portmocks.NewMockSecretStore(t)
	fallback := portmocks.NewMockSecretStore(t)
	store, err := NewStore(Backend{Name: "pass", Store: primary}, Backend{Name: "file", Store: fallback})
	require.NoError(t, err)

	return store, primary, fallback
}

func TestNewStoreRejectsEmptyChain(t *testing.T) {
	t.Parallel()

	_, err := NewStore()
	require.Error(t, err)

	_, err = NewStore(Backend{Name: "pass"})
	assert.ErrorContains(t, err, `"pass" is nil`)
}

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	store, primary, _ := newChain(t)
	primary.EXPECT().Get(mock.Anything, "prod/admin").Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), "prod/admin")
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Get(mock.Anything, "prod/admin").Return("", errors.New("pass unavailable")).Once()
	fallback.EXPECT().Get(mock.Anything, "prod/admin").Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), "prod/admin")
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetJoinsErrorsWhenEveryBackendFails(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Get(mock.Anything, "prod/admin").Return("", errors.New("pass failed")).Once()
	fallback.EXPECT().Get(mock.Anything, "prod/admin").Return("", fmt.Errorf("file: %w", domain.ErrSecretNotFound)).Once()

	_, err := store.Get(context.Background(), "prod/admin")
	require.Error(t, err)
	assert.ErrorContains(t, err, "pass backend get: pass failed")
	assert.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreStopsOnCancellation(t *testing.T) {
	t.Parallel()

	store, primary, _ := newChain(t)
	primary.EXPECT().Put(mock.Anything, "prod/admin", "v").Return(context.Canceled).Once()

	err := store.Put(context.Background(), "prod/admin", "v")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStoreDeleteReachesEveryBackend(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Delete(mock.Anything, "prod/admin").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, "prod/admin").Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), "prod/admin"))
}

func TestStoreDeleteFailsWhenNoBackendSucceeds(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Delete(mock.Anything, "prod/admin").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, "prod/admin").Return(errors.New("file failed")).Once()

	err := store.Delete(context.Background(), "prod/admin")
	assert.ErrorContains(t, err, "file backend delete: file failed")
}
