package resolver

import (
	"context"
	"testing"

	"iam-service/internal/auth"
	"iam-service/internal/directory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimsFor(email string, verified bool) *auth.Claims {
	return &auth.Claims{
		Provider:      "auth0",
		Subject:       "ad|Mozilla-LDAP|jdoe",
		Email:         email,
		EmailVerified: verified,
		Name:          "John Doe",
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("verified email resolves existing user", func(t *testing.T) {
		m := directory.NewMemory()
		u := m.Seed(&directory.User{Email: "jdoe@email.com"})

		r := New(m)
		res, err := r.Resolve(ctx, claimsFor("jdoe@email.com", true))
		require.NoError(t, err)

		require.NotNil(t, res.User)
		assert.Equal(t, u.ID, res.User.ID)
		assert.Equal(t, "jdoe@email.com", res.Email)
		assert.True(t, res.EmailValid)
		assert.Equal(t, "John Doe", res.Name)
		assert.Equal(t, "ad|Mozilla-LDAP|jdoe", res.UID)
	})

	t.Run("unverified email resolves no user", func(t *testing.T) {
		m := directory.NewMemory()
		m.Seed(&directory.User{Email: "jdoe@email.com"})

		r := New(m)
		res, err := r.Resolve(ctx, claimsFor("jdoe@email.com", false))
		require.NoError(t, err)

		assert.Nil(t, res.User)
		assert.False(t, res.EmailValid)
	})

	t.Run("unknown email resolves no user", func(t *testing.T) {
		r := New(directory.NewMemory())
		res, err := r.Resolve(ctx, claimsFor("new@email.com", true))
		require.NoError(t, err)
		assert.Nil(t, res.User)
		assert.True(t, res.EmailValid)
	})

	t.Run("secondary email sign-in is rejected", func(t *testing.T) {
		m := directory.NewMemory()
		u := m.Seed(&directory.User{
			Email:           "primary@email.com",
			SecondaryEmails: []string{"alias@email.com"},
			IAMUID:          "ad|Mozilla-LDAP|jdoe",
		})

		r := New(m)
		res, err := r.Resolve(ctx, claimsFor("alias@email.com", true))
		assert.Nil(t, res)

		var imp *SecondaryEmailImpersonationError
		require.ErrorAs(t, err, &imp)
		assert.Equal(t, u.ID, imp.User.ID)
		assert.Equal(t, "alias@email.com", imp.Email)
		assert.Equal(t, "Mozilla-LDAP", imp.IDP())

		// nothing mutated
		got, err := m.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"alias@email.com"}, got.SecondaryEmails)
		assert.Equal(t, "primary@email.com", got.Email)
	})

	t.Run("idp falls back to Unknown without stored subject", func(t *testing.T) {
		imp := &SecondaryEmailImpersonationError{
			User:  &directory.User{Email: "primary@email.com"},
			Email: "alias@email.com",
		}
		assert.Equal(t, auth.UnknownIDP, imp.IDP())
	})
}
