package iam

import (
	"context"
	"errors"
	"strings"

	"iam-service/internal/directory"
)

// Outcome records what one email reconciliation actually did.
// TakenEmails lists addresses that could not become secondaries of this
// account because another account already owns them; they are
// diagnostics, not failures.
type Outcome struct {
	Applied     []string
	TakenEmails []string
}

// reconcileEmails syncs the user's secondary email set to the remote
// one. The primary address is never touched and never added as a
// secondary, even when the remote set lists it. Each add and remove is
// its own failure domain: an address owned elsewhere is recorded and
// skipped, everything else still applies.
func reconcileEmails(ctx context.Context, store directory.Store, user *directory.User, remote []string) (*Outcome, error) {
	target := make([]string, 0, len(remote))
	targetSet := make(map[string]struct{}, len(remote))
	for _, e := range remote {
		if strings.EqualFold(e, user.Email) {
			continue
		}
		k := strings.ToLower(e)
		if _, dup := targetSet[k]; dup {
			continue
		}
		targetSet[k] = struct{}{}
		target = append(target, e)
	}

	out := &Outcome{}

	for _, e := range user.SecondaryEmails {
		if _, keep := targetSet[strings.ToLower(e)]; keep {
			continue
		}
		if err := store.RemoveSecondaryEmail(ctx, user.ID, e); err != nil {
			return nil, err
		}
	}

	for _, e := range target {
		if user.HasSecondaryEmail(e) {
			out.Applied = append(out.Applied, e)
			continue
		}
		err := store.AddSecondaryEmail(ctx, user.ID, e)
		if errors.Is(err, directory.ErrEmailTaken) {
			out.TakenEmails = append(out.TakenEmails, e)
			continue
		}
		if err != nil {
			return nil, err
		}
		out.Applied = append(out.Applied, e)
	}

	user.SecondaryEmails = append([]string(nil), out.Applied...)
	return out, nil
}
