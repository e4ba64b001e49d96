package sessions_test

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
	"github.com/jrsteele09/go-rift-portal/internal/utils"
	"github.com/jrsteele09/go-rift-portal/sessions"
	"github.com/stretchr/testify/require"
)

var errBackendDown = errors.New("backend down")

// failingStorage fails every operation
type failingStorage struct{}

func (failingStorage) Get(context.Context, string, string) ([]byte, error) {
	return nil, errBackendDown
}
func (failingStorage) Set(context.Context, string, string, []byte) error { return errBackendDown }
func (failingStorage) Delete(context.Context, string, string) error      { return errBackendDown }
func (failingStorage) Close() error                                      { return nil }

func TestHolder_SignInCheckSignOut(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storageFactories() {
		t.Run(name, func(t *testing.T) {
			h := sessions.NewHolder(factory(t), "browser-1")

			ok, err := h.Check(ctx)
			require.NoError(t, err)
			require.False(t, ok)
			require.False(t, h.Authenticated())

			require.NoError(t, h.SignIn(ctx, sessions.Record{IdentityID: "1", Email: "test@example.com"}))
			require.True(t, h.Authenticated())

			ok, err = h.Check(ctx)
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, h.SignOut(ctx))
			require.False(t, h.Authenticated())

			ok, err = h.Check(ctx)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestHolder_CheckDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewInMemoryStorage(time.Hour)
	h := sessions.NewHolder(store, "browser-1")

	_, err := h.Check(ctx)
	require.NoError(t, err)

	_, err = store.Get(ctx, "browser-1", sessions.RecordKey)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestHolder_SignInOverwrites(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewInMemoryStorage(time.Hour)
	h := sessions.NewHolder(store, "browser-1")

	require.NoError(t, h.SignIn(ctx, sessions.Record{
		IdentityID:  "1",
		Email:       "first@example.com",
		DisplayName: "First",
		Preferences: &sessions.Preferences{Theme: sessions.ThemeDark},
	}))
	require.NoError(t, h.SignIn(ctx, sessions.Record{IdentityID: "2", Email: "second@example.com"}))

	record, err := h.Record(ctx)
	require.NoError(t, err)
	require.Equal(t, sessions.Record{IdentityID: "2", Email: "second@example.com"}, *record)
}

func TestHolder_EmptyValueIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewInMemoryStorage(time.Hour)
	require.NoError(t, store.Set(ctx, "browser-1", sessions.RecordKey, []byte{}))

	h := sessions.NewHolder(store, "browser-1")
	ok, err := h.Check(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = h.Record(ctx)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestHolder_ScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewInMemoryStorage(time.Hour)

	alice := sessions.NewHolder(store, "browser-alice")
	bob := sessions.NewHolder(store, "browser-bob")
	require.NoError(t, alice.SignIn(ctx, sessions.Record{IdentityID: "a", Email: "alice@example.com"}))

	ok, err := bob.Check(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHolder_StorageFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	h := sessions.NewHolder(failingStorage{}, "browser-1")

	_, err := h.Check(ctx)
	require.ErrorIs(t, err, errBackendDown)

	err = h.SignIn(ctx, sessions.Record{IdentityID: "1"})
	require.ErrorIs(t, err, errBackendDown)
	require.False(t, h.Authenticated())

	require.ErrorIs(t, h.SignOut(ctx), errBackendDown)
}

func TestHolder_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewInMemoryStorage(time.Hour)
	require.NoError(t, store.Set(ctx, "browser-1", sessions.RecordKey, []byte("not json")))

	h := sessions.NewHolder(store, "browser-1")
	ok, err := h.Check(ctx)
	require.NoError(t, err)
	require.True(t, ok, "presence alone decides authentication")

	_, err = h.Record(ctx)
	require.ErrorContains(t, err, "unmarshal record")
}

func TestHolder_Update(t *testing.T) {
	ctx := context.Background()
	h := sessions.NewHolder(sessions.NewInMemoryStorage(time.Hour), "browser-1")

	_, err := h.Update(ctx, func(r *sessions.Record) {})
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	require.NoError(t, h.SignIn(ctx, sessions.Record{IdentityID: "1", Email: "test@example.com"}))
	updated, err := h.Update(ctx, func(r *sessions.Record) {
		r.DisplayName = "Test User"
		r.Preferences = &sessions.Preferences{Theme: sessions.ThemeDark, Notifications: utils.Ptr(false)}
	})
	require.NoError(t, err)
	require.True(t, updated.HasProfile())

	stored, err := h.Record(ctx)
	require.NoError(t, err)
	require.Equal(t, "Test User", stored.DisplayName)
	require.Equal(t, sessions.ThemeDark, stored.ThemeOrDefault())
	require.False(t, stored.NotificationsEnabled())
}

func TestRecord_Defaults(t *testing.T) {
	r := sessions.Record{IdentityID: "1", Email: "test@example.com"}
	require.False(t, r.HasProfile())
	require.True(t, r.NotificationsEnabled())
	require.Equal(t, sessions.ThemeLight, r.ThemeOrDefault())
}
