package iam

import (
	"context"
	"fmt"
	"time"
)

// DefaultRefreshInterval is the maximum age of locally cached profile
// data before the next refresh pulls from the remote store again.
const DefaultRefreshInterval = 15 * time.Minute

// Attributes is the set of profile attributes the service consumes from
// the remote identity record.
type Attributes struct {
	SecondaryEmails []string
}

// ProfileStore fetches the remote identity record for a provider subject.
// Implementations talk to the network; a failed fetch is surfaced as a
// FetchError.
type ProfileStore interface {
	FetchAttributes(ctx context.Context, uid string) (Attributes, error)
}

// FetchError wraps a failed remote attribute fetch. It is fatal to the
// authentication attempt that triggered it.
type FetchError struct {
	UID string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("iam: fetching profile attributes for %q: %v", e.UID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Freshness is the persisted sync state a staleness decision is made
// from. Keeping it a plain value keeps the decision testable without any
// store behind it.
type Freshness struct {
	UID         string
	LastRefresh *time.Time
}

// Stale reports whether profile data synced under this state must be
// fetched again for the given subject. Data is stale when it was synced
// against a different subject, never synced, or synced longer than
// interval ago.
func (f Freshness) Stale(uid string, now time.Time, interval time.Duration) bool {
	if f.UID != uid {
		return true
	}
	if f.LastRefresh == nil {
		return true
	}
	return now.Sub(*f.LastRefresh) > interval
}
