package resolver

import (
	"context"
	"fmt"

	"iam-service/internal/auth"
	"iam-service/internal/directory"
)

// Resolution is the outcome of mapping verified token claims to a local
// account. User is nil when no account matched, which is a normal state
// during sign-up, not an error.
type Resolution struct {
	Email      string
	EmailValid bool
	User       *directory.User
	Name       string
	UID        string
}

// SecondaryEmailImpersonationError reports a sign-in under an address
// that is only a secondary alias of an existing account. A provider-side
// account merge can associate such an address with the subject; treating
// it as the account's primary identity would let the merged identity
// take the account over, so the attempt is rejected before anything is
// mutated.
type SecondaryEmailImpersonationError struct {
	User  *directory.User
	Email string
}

func (e *SecondaryEmailImpersonationError) Error() string {
	return fmt.Sprintf("user %s attempted to log in with secondary email %s", e.User.ID, e.Email)
}

// IDP names the identity provider behind the account's stored subject,
// "Unknown" when the account was never synced.
func (e *SecondaryEmailImpersonationError) IDP() string {
	return auth.IDPName(e.User.IAMUID)
}

// Resolver maps claims to a local user and enforces the secondary-email
// guard. It is the only place identity-to-user mapping logic lives.
type Resolver struct {
	store directory.Store
}

func New(store directory.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve looks the user up by the claimed email, but only when the
// provider asserts ownership of it. An unverified email resolves to no
// user and the attempt continues as a sign-up.
func (r *Resolver) Resolve(ctx context.Context, claims *auth.Claims) (*Resolution, error) {
	res := &Resolution{
		Email:      claims.Email,
		EmailValid: claims.EmailVerified,
		Name:       claims.Name,
		UID:        claims.Subject,
	}

	if claims.EmailVerified {
		user, err := r.store.FindByEmail(ctx, claims.Email)
		if err != nil {
			return nil, err
		}
		res.User = user
	}

	if res.User != nil && res.User.HasSecondaryEmail(claims.Email) {
		return nil, &SecondaryEmailImpersonationError{User: res.User, Email: claims.Email}
	}

	return res, nil
}
