package authenticator

import (
	"context"
	"errors"
	"testing"
	"time"

	"iam-service/internal/auth"
	"iam-service/internal/auth/resolver"
	"iam-service/internal/directory"
	"iam-service/internal/iam"
	"iam-service/internal/redis"
	"iam-service/internal/session"
	"iam-service/internal/sessionpolicy"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticVerifier struct {
	claims *auth.Claims
	err    error
}

func (v *staticVerifier) Verify(ctx context.Context, raw string) (*auth.Claims, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

type staticProfileStore struct {
	attrs   iam.Attributes
	err     error
	fetches int
}

func (s *staticProfileStore) FetchAttributes(ctx context.Context, uid string) (iam.Attributes, error) {
	s.fetches++
	if s.err != nil {
		return iam.Attributes{}, s.err
	}
	return s.attrs, nil
}

type fixture struct {
	auth     *Authenticator
	dir      *directory.Memory
	profiles *staticProfileStore
	policy   *sessionpolicy.Policy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := redis.New(mr.Addr(), "")
	require.NoError(t, err)

	dir := directory.NewMemory()
	profiles := &staticProfileStore{}
	policy := sessionpolicy.New(client, time.Minute)

	svc := iam.NewService(profiles, dir, iam.DefaultRefreshInterval, nil)

	return &fixture{
		auth:     New(resolver.New(dir), svc, policy, nil),
		dir:      dir,
		profiles: profiles,
		policy:   policy,
	}
}

func goodClaims(email string) *auth.Claims {
	iat := time.Now().Add(-time.Minute)
	return &auth.Claims{
		Provider:      "auth0",
		Subject:       "ad|Mozilla-LDAP|jdoe",
		Email:         email,
		EmailVerified: true,
		Name:          "John Doe",
		IssuedAt:      iat,
		ExpiresAt:     iat.Add(2 * time.Hour),
	}
}

func TestAfterAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("new user authenticates without an account", func(t *testing.T) {
		f := newFixture(t)

		result := f.auth.AfterAuthenticate(ctx, &staticVerifier{claims: goodClaims("jdoe@email.com")}, "token", nil)

		require.False(t, result.Failed)
		assert.Nil(t, result.User)
		assert.Equal(t, "jdoe@email.com", result.Email)
		assert.True(t, result.EmailValid)
		assert.Equal(t, "John Doe", result.Name)
		assert.Equal(t, "ad|Mozilla-LDAP|jdoe", result.ExtraData.UID)
		assert.Zero(t, f.profiles.fetches)
	})

	t.Run("existing user gets a forced profile refresh", func(t *testing.T) {
		f := newFixture(t)
		last := time.Now().Add(-time.Minute)
		u := f.dir.Seed(&directory.User{
			Email:       "jdoe@email.com",
			IAMUID:      "ad|Mozilla-LDAP|jdoe",
			LastRefresh: &last,
		})
		f.profiles.attrs = iam.Attributes{SecondaryEmails: []string{"alias@email.com"}}

		result := f.auth.AfterAuthenticate(ctx, &staticVerifier{claims: goodClaims("jdoe@email.com")}, "token", nil)

		require.False(t, result.Failed)
		require.NotNil(t, result.User)
		assert.Equal(t, u.ID, result.User.ID)
		// forced: fresh state did not stop the fetch
		assert.Equal(t, 1, f.profiles.fetches)

		got, err := f.dir.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"alias@email.com"}, got.SecondaryEmails)
	})

	t.Run("records logout delay in both caches", func(t *testing.T) {
		f := newFixture(t)

		result := f.auth.AfterAuthenticate(ctx, &staticVerifier{claims: goodClaims("jdoe@email.com")}, "token", nil)
		require.False(t, result.Failed)

		delay, ok := f.policy.LogoutDelay(ctx)
		require.True(t, ok)
		assert.Equal(t, 2*time.Hour, delay)
	})

	t.Run("stamps the session refresh time", func(t *testing.T) {
		f := newFixture(t)
		sess := &session.Session{}

		result := f.auth.AfterAuthenticate(ctx, &staticVerifier{claims: goodClaims("jdoe@email.com")}, "token", sess)

		require.False(t, result.Failed)
		assert.WithinDuration(t, time.Now(), sess.LastRefresh, 5*time.Second)
	})

	t.Run("invalid token fails with the generic reason", func(t *testing.T) {
		f := newFixture(t)

		result := f.auth.AfterAuthenticate(ctx, &staticVerifier{err: errors.New("bad signature")}, "really_invalid", nil)

		assert.True(t, result.Failed)
		assert.Equal(t, failedReasonUnknown, result.FailedReason)
	})

	t.Run("secondary email sign-in fails with a specific reason", func(t *testing.T) {
		f := newFixture(t)
		f.dir.Seed(&directory.User{
			Email:           "primary@email.com",
			SecondaryEmails: []string{"alias@email.com"},
			IAMUID:          "ad|Mozilla-LDAP|jdoe",
		})

		result := f.auth.AfterAuthenticate(ctx, &staticVerifier{claims: goodClaims("alias@email.com")}, "token", nil)

		assert.True(t, result.Failed)
		assert.NotEqual(t, failedReasonUnknown, result.FailedReason)
		assert.Contains(t, result.FailedReason, "alias@email.com")
		assert.Contains(t, result.FailedReason, "primary@email.com")
		assert.Contains(t, result.FailedReason, "Mozilla-LDAP")
	})

	t.Run("failed profile fetch fails the attempt", func(t *testing.T) {
		f := newFixture(t)
		f.dir.Seed(&directory.User{Email: "jdoe@email.com"})
		f.profiles.err = errors.New("person api unreachable")

		result := f.auth.AfterAuthenticate(ctx, &staticVerifier{claims: goodClaims("jdoe@email.com")}, "token", nil)

		assert.True(t, result.Failed)
		assert.Equal(t, failedReasonUnknown, result.FailedReason)
	})
}

func TestAfterCreateAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	u := f.dir.Seed(&directory.User{Email: "new@email.com"})
	f.profiles.attrs = iam.Attributes{SecondaryEmails: []string{"alias@email.com"}}

	err := f.auth.AfterCreateAccount(ctx, u, ExtraData{UID: "ad|Mozilla-LDAP|new"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.profiles.fetches)

	got, err := f.dir.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ad|Mozilla-LDAP|new", got.IAMUID)
	require.NotNil(t, got.LastRefresh)
	assert.WithinDuration(t, time.Now(), *got.LastRefresh, 5*time.Second)
	assert.Equal(t, []string{"alias@email.com"}, got.SecondaryEmails)
}
