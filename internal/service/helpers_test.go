package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/portalapi/portal-api/internal/repository"
)

const testSecret = "test-secret"

type staticProvider struct {
	store repository.Store
	err   error
}

func (p staticProvider) EnsureReady(context.Context) (repository.Store, error) {
	return p.store, p.err
}

func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	store, err := repository.OpenSQL(context.Background(), repository.Options{DSN: "sqlite::memory:", Migrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })
	return store
}

func newStoreAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(staticProvider{store: newTestStore(t)}, testSecret, 24*time.Hour)
}
