package directory

import (
	"context"
	"errors"
	"strings"
	"time"
)

// User is a local directory account. The IAM layer only ever mutates
// SecondaryEmails, IAMUID and LastRefresh; the primary Email is owned by
// the account itself and is never rewritten from provider data.
type User struct {
	ID              string
	Email           string // primary address
	EmailVerified   bool
	Name            string
	SecondaryEmails []string
	IAMUID          string     // provider subject this account was last synced against
	LastRefresh     *time.Time // when profile data was last pulled, nil if never
}

// ErrEmailTaken reports that an address is already owned by some account,
// as its primary or as one of its secondaries. Callers treat this as an
// ordinary outcome, not a failure.
var ErrEmailTaken = errors.New("directory: email already in use by another account")

// ErrNotFound reports a lookup for an account that does not exist.
var ErrNotFound = errors.New("directory: user not found")

// Store is the local user directory. Email matching is case-insensitive
// everywhere; primary and secondary addresses share one uniqueness domain.
type Store interface {
	// FindByID returns the user with all secondary emails loaded, or
	// ErrNotFound.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail matches the address against primary AND secondary
	// emails and returns (nil, nil) when nothing matches. Matching
	// secondaries is deliberate: it is what lets a caller detect a
	// sign-in attempt under a secondary alias.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Create inserts a new account. Returns ErrEmailTaken when the
	// address is already owned.
	Create(ctx context.Context, email string, emailVerified bool, name string) (*User, error)

	// AddSecondaryEmail attaches an address to the account. Returns
	// ErrEmailTaken when any account (including this one via its
	// primary) already owns the address; any other error is fatal.
	AddSecondaryEmail(ctx context.Context, userID, email string) error

	RemoveSecondaryEmail(ctx context.Context, userID, email string) error

	// SetIAMState writes iam_uid and iam_last_refresh in a single
	// statement so the pair is never observed half-updated.
	SetIAMState(ctx context.Context, userID, iamUID string, lastRefresh time.Time) error
}

// HasEmail reports whether addr is one of the user's emails, primary or
// secondary.
func (u *User) HasEmail(addr string) bool {
	if strings.EqualFold(u.Email, addr) {
		return true
	}
	return u.HasSecondaryEmail(addr)
}

// HasSecondaryEmail reports whether addr is one of the user's secondary
// emails.
func (u *User) HasSecondaryEmail(addr string) bool {
	for _, e := range u.SecondaryEmails {
		if strings.EqualFold(e, addr) {
			return true
		}
	}
	return false
}
