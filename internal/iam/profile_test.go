package iam

import (
	"context"
	"errors"
	"testing"
	"time"

	"iam-service/internal/directory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfileStore struct {
	attrs   Attributes
	err     error
	fetches int
}

func (f *fakeProfileStore) FetchAttributes(ctx context.Context, uid string) (Attributes, error) {
	f.fetches++
	if f.err != nil {
		return Attributes{}, f.err
	}
	return f.attrs, nil
}

func newTestService(store *fakeProfileStore, dir directory.Store, now time.Time) *Service {
	svc := NewService(store, dir, DefaultRefreshInterval, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func TestProfileRefresh(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	uid := "ad|Mozilla-LDAP|jdoe"

	t.Run("fresh state skips the fetch", func(t *testing.T) {
		m := directory.NewMemory()
		last := now.Add(-14 * time.Minute)
		u := m.Seed(&directory.User{Email: "jdoe@email.com", IAMUID: uid, LastRefresh: &last})

		store := &fakeProfileStore{}
		svc := newTestService(store, m, now)

		out, err := svc.Profile(u, uid).Refresh(ctx, false)
		require.NoError(t, err)
		assert.Nil(t, out)
		assert.Zero(t, store.fetches)
	})

	t.Run("force bypasses the staleness gate", func(t *testing.T) {
		m := directory.NewMemory()
		last := now.Add(-time.Minute)
		u := m.Seed(&directory.User{Email: "jdoe@email.com", IAMUID: uid, LastRefresh: &last})

		store := &fakeProfileStore{attrs: Attributes{SecondaryEmails: []string{"alias@email.com"}}}
		svc := newTestService(store, m, now)

		out, err := svc.Profile(u, uid).Refresh(ctx, true)
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.Equal(t, 1, store.fetches)
	})

	t.Run("stale data triggers fetch and advances state", func(t *testing.T) {
		m := directory.NewMemory()
		last := now.Add(-16 * time.Minute)
		u := m.Seed(&directory.User{Email: "jdoe@email.com", IAMUID: uid, LastRefresh: &last})

		store := &fakeProfileStore{attrs: Attributes{SecondaryEmails: []string{"alias@email.com"}}}
		svc := newTestService(store, m, now)

		_, err := svc.Profile(u, uid).Refresh(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 1, store.fetches)

		got, err := m.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, uid, got.IAMUID)
		require.NotNil(t, got.LastRefresh)
		assert.True(t, got.LastRefresh.Equal(now))
		assert.Equal(t, []string{"alias@email.com"}, got.SecondaryEmails)
	})

	t.Run("subject change triggers fetch despite recent refresh", func(t *testing.T) {
		m := directory.NewMemory()
		last := now.Add(-time.Minute)
		u := m.Seed(&directory.User{Email: "jdoe@email.com", IAMUID: "the_best_uid", LastRefresh: &last})

		store := &fakeProfileStore{}
		svc := newTestService(store, m, now)

		_, err := svc.Profile(u, uid).Refresh(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 1, store.fetches)

		got, err := m.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, uid, got.IAMUID)
	})

	t.Run("fetch failure propagates and leaves state untouched", func(t *testing.T) {
		m := directory.NewMemory()
		u := m.Seed(&directory.User{Email: "jdoe@email.com", SecondaryEmails: []string{"keep@email.com"}})

		store := &fakeProfileStore{err: errors.New("person api unreachable")}
		svc := newTestService(store, m, now)

		_, err := svc.Profile(u, uid).Refresh(ctx, true)
		require.Error(t, err)

		var fe *FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, uid, fe.UID)

		got, err := m.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, got.IAMUID)
		assert.Nil(t, got.LastRefresh)
		assert.Equal(t, []string{"keep@email.com"}, got.SecondaryEmails)
	})

	t.Run("taken emails do not block the state update", func(t *testing.T) {
		m := directory.NewMemory()
		m.Seed(&directory.User{Email: "taken@email.com"})
		u := m.Seed(&directory.User{Email: "jdoe@email.com"})

		store := &fakeProfileStore{attrs: Attributes{SecondaryEmails: []string{"taken@email.com", "free@email.com"}}}
		svc := newTestService(store, m, now)

		out, err := svc.Profile(u, uid).Refresh(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"taken@email.com"}, out.TakenEmails)

		got, err := m.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, uid, got.IAMUID)
		assert.Equal(t, []string{"free@email.com"}, got.SecondaryEmails)
	})
}
