package iam

import (
	"context"
	"time"

	"iam-service/internal/directory"

	"go.uber.org/zap"
)

// Service builds per-authentication Profile values around the shared
// collaborators.
type Service struct {
	profiles ProfileStore
	dir      directory.Store
	interval time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func NewService(profiles ProfileStore, dir directory.Store, interval time.Duration, log *zap.Logger) *Service {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		profiles: profiles,
		dir:      dir,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
}

// Profile binds a user to the provider subject one authentication
// attempt presented. Profiles are throwaway values, one per attempt.
func (s *Service) Profile(user *directory.User, uid string) *Profile {
	return &Profile{svc: s, user: user, uid: uid}
}

type Profile struct {
	svc  *Service
	user *directory.User
	uid  string
}

// Refresh pulls the remote identity record and syncs it into the local
// account. Without force it is a no-op while the stored sync state is
// still fresh for this subject, which makes repeated calls cheap. A
// failed fetch propagates to the caller; the sync state is only advanced
// after a (possibly partial) successful reconciliation.
func (p *Profile) Refresh(ctx context.Context, force bool) (*Outcome, error) {
	now := p.svc.now()

	fr := Freshness{UID: p.user.IAMUID, LastRefresh: p.user.LastRefresh}
	if !force && !fr.Stale(p.uid, now, p.svc.interval) {
		return nil, nil
	}

	attrs, err := p.svc.profiles.FetchAttributes(ctx, p.uid)
	if err != nil {
		return nil, &FetchError{UID: p.uid, Err: err}
	}

	out, err := reconcileEmails(ctx, p.svc.dir, p.user, attrs.SecondaryEmails)
	if err != nil {
		return nil, err
	}

	if err := p.svc.dir.SetIAMState(ctx, p.user.ID, p.uid, now); err != nil {
		return nil, err
	}
	p.user.IAMUID = p.uid
	p.user.LastRefresh = &now

	if len(out.TakenEmails) > 0 {
		p.svc.log.Warn("secondary emails owned by other accounts",
			zap.String("user_id", p.user.ID),
			zap.Strings("taken_emails", out.TakenEmails),
		)
	}

	return out, nil
}
