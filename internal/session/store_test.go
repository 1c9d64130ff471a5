package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phonegate/portal/internal/model"
	"github.com/phonegate/portal/internal/storage"
)

var ada = model.User{
	ID:     "5d3c1b7e-0000-4000-8000-000000000001",
	Name:   "Ada Lovelace",
	Email:  "ada@example.com",
	Avatar: "https://randomuser.me/api/portraits/thumb/women/1.jpg",
}

func newLocal(backend storage.Backend) *storage.Local {
	return storage.NewLocal(backend, "client-1", zap.NewNop())
}

func persisted(t *testing.T, backend storage.Backend) (model.User, bool) {
	t.Helper()
	var u model.User
	ok := newLocal(backend).Get(context.Background(), storage.UserKey, &u)
	return u, ok
}

func TestNew_EmptyStorage(t *testing.T) {
	store := New(context.Background(), newLocal(storage.NewMemoryBackend()))

	_, ok := store.CurrentUser()
	assert.False(t, ok)
	assert.False(t, store.IsAuthenticated())
	assert.False(t, store.IsHydrating())
}

func TestNew_HydratesWithoutLoggedOutFlash(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	newLocal(backend).Set(ctx, storage.UserKey, ada)

	var seen []Snapshot
	store := New(ctx, newLocal(backend), WithObserver(func(s Snapshot) { seen = append(seen, s) }))

	require.Len(t, seen, 2)
	assert.True(t, seen[0].Hydrating)
	assert.False(t, seen[0].Authenticated())
	assert.False(t, seen[1].Hydrating)
	require.True(t, seen[1].Authenticated())
	assert.Equal(t, ada, *seen[1].User)

	for _, s := range seen {
		assert.False(t, !s.Hydrating && !s.Authenticated(), "observed logged-out state after hydration")
	}

	got, ok := store.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, ada, got)
	assert.False(t, store.IsHydrating())
}

// recordingPersistence captures the hydrating flag at the moment of the read.
type recordingPersistence struct {
	store          **Store
	hydratingAtGet []bool
}

func (r *recordingPersistence) Get(_ context.Context, _ string, v any) bool {
	if *r.store != nil {
		r.hydratingAtGet = append(r.hydratingAtGet, (*r.store).IsHydrating())
	}
	*(v.(*model.User)) = ada
	return true
}
func (r *recordingPersistence) Set(context.Context, string, any) {}
func (r *recordingPersistence) Remove(context.Context, string)   {}

func TestHydrate_ReadsBeforeClearingFlag(t *testing.T) {
	var store *Store
	rec := &recordingPersistence{store: &store}

	store = &Store{persist: rec, hydrating: true}
	store.hydrate(context.Background())

	require.Len(t, rec.hydratingAtGet, 1)
	assert.True(t, rec.hydratingAtGet[0], "persistence read must happen while hydrating")
	assert.False(t, store.IsHydrating())
	assert.True(t, store.IsAuthenticated())
}

func TestLogin_PersistsAndUpdatesMemory(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	store := New(ctx, newLocal(backend))

	store.Login(ctx, ada)

	inMemory, ok := store.CurrentUser()
	require.True(t, ok)
	stored, ok := persisted(t, backend)
	require.True(t, ok)
	assert.Equal(t, ada, inMemory)
	assert.Equal(t, inMemory, stored)
	assert.False(t, store.IsHydrating())
}

func TestLogin_ReplacesUserWholesale(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	store := New(ctx, newLocal(backend))

	store.Login(ctx, ada)
	grace := model.User{ID: "2", Name: "Grace Hopper"}
	store.Login(ctx, grace)

	got, _ := store.CurrentUser()
	assert.Equal(t, grace, got)
	assert.Empty(t, got.Email)
	stored, _ := persisted(t, backend)
	assert.Equal(t, grace, stored)
}

func TestLogout_ClearsMemoryAndStorage(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	newLocal(backend).Set(ctx, storage.UserKey, ada)
	store := New(ctx, newLocal(backend))
	require.True(t, store.IsAuthenticated())

	store.Logout(ctx)

	assert.False(t, store.IsAuthenticated())
	_, ok := persisted(t, backend)
	assert.False(t, ok)
	assert.Equal(t, 0, backend.Len())
}

type brokenBackend struct{}

func (brokenBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk full")
}
func (brokenBackend) Set(context.Context, string, []byte) error { return errors.New("disk full") }
func (brokenBackend) Delete(context.Context, string) error     { return errors.New("disk full") }

func TestStorageFailuresDegradeToMemoryOnly(t *testing.T) {
	ctx := context.Background()
	store := New(ctx, newLocal(brokenBackend{}))
	assert.False(t, store.IsAuthenticated())

	store.Login(ctx, ada)
	assert.True(t, store.IsAuthenticated())

	store.Logout(ctx)
	assert.False(t, store.IsAuthenticated())
}

func TestNew_NilPersistence(t *testing.T) {
	ctx := context.Background()
	store := New(ctx, nil)
	store.Login(ctx, ada)
	assert.True(t, store.IsAuthenticated())
}

func TestObserver_SeesLoginAndLogout(t *testing.T) {
	ctx := context.Background()
	var seen []Snapshot
	store := New(ctx, newLocal(storage.NewMemoryBackend()), WithObserver(func(s Snapshot) { seen = append(seen, s) }))

	store.Login(ctx, ada)
	store.Logout(ctx)

	require.Len(t, seen, 4)
	assert.True(t, seen[2].Authenticated())
	assert.False(t, seen[3].Authenticated())
}

func TestClose_StopsNotifications(t *testing.T) {
	ctx := context.Background()
	calls := 0
	store := New(ctx, newLocal(storage.NewMemoryBackend()), WithObserver(func(Snapshot) { calls++ }))
	require.Equal(t, 2, calls)

	store.Close()
	store.Login(ctx, ada)

	assert.Equal(t, 2, calls)
	assert.True(t, store.IsAuthenticated())
}

func TestSnapshot_IsACopy(t *testing.T) {
	ctx := context.Background()
	store := New(ctx, newLocal(storage.NewMemoryBackend()))
	store.Login(ctx, ada)

	snap := store.Snapshot()
	snap.User.Name = "changed"

	got, _ := store.CurrentUser()
	assert.Equal(t, "Ada Lovelace", got.Name)
}

func TestFactory(t *testing.T) {
	_, err := NewFactory(storage.NewMemoryBackend(), nil)
	require.ErrorIs(t, err, ErrMissingDependency)

	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	factory, err := NewFactory(backend, zap.NewNop())
	require.NoError(t, err)

	factory.Open(ctx, "a").Login(ctx, ada)

	assert.True(t, factory.Open(ctx, "a").IsAuthenticated())
	assert.False(t, factory.Open(ctx, "b").IsAuthenticated())
}

func TestFactory_NilBackendIsUnavailableStorage(t *testing.T) {
	ctx := context.Background()
	factory, err := NewFactory(nil, zap.NewNop())
	require.NoError(t, err)

	store := factory.Open(ctx, "a")
	store.Login(ctx, ada)
	assert.True(t, store.IsAuthenticated())
	assert.False(t, factory.Open(ctx, "a").IsAuthenticated())
}
