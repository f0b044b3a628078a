package authenticator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"iam-service/internal/auth"
	"iam-service/internal/auth/resolver"
	"iam-service/internal/directory"
	"iam-service/internal/iam"
	"iam-service/internal/session"
	"iam-service/internal/sessionpolicy"

	"go.uber.org/zap"
)

// failedReasonUnknown is the only message shown to users for errors that
// carry no safe detail of their own. The real error goes to the log.
const failedReasonUnknown = "unknown authentication error"

// TokenVerifier checks an ID token's signature, audience and expiry and
// extracts its claims. Providers satisfy this with their OIDC verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*auth.Claims, error)
}

// Authenticator runs everything between a verified token exchange and
// the authentication result: claim extraction, session-lifetime policy,
// user resolution and the impersonation guard, and the profile sync for
// resolved accounts.
type Authenticator struct {
	resolver *resolver.Resolver
	profiles *iam.Service
	policy   *sessionpolicy.Policy
	log      *zap.Logger
}

func New(r *resolver.Resolver, profiles *iam.Service, policy *sessionpolicy.Policy, log *zap.Logger) *Authenticator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{
		resolver: r,
		profiles: profiles,
		policy:   policy,
		log:      log,
	}
}

// AfterAuthenticate turns a raw ID token into a Result. It never returns
// an error: every failure is caught here, logged with full detail, and
// converted to a failed Result with a user-safe reason.
func (a *Authenticator) AfterAuthenticate(ctx context.Context, verifier TokenVerifier, rawIDToken string, sess *session.Session) *Result {
	claims, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return a.failure(fmt.Errorf("id_token decode failed: %w", err))
	}

	// Session lifetime tracks the token lifetime. Both caches are
	// overwritten on every successful decode.
	if err := a.policy.Record(ctx, claims.LogoutDelay()); err != nil {
		return a.failure(fmt.Errorf("recording logout delay: %w", err))
	}

	if sess != nil {
		sess.LastRefresh = time.Now()
	}

	res, err := a.resolver.Resolve(ctx, claims)
	if err != nil {
		return a.failure(err)
	}

	result := &Result{
		Email:      res.Email,
		EmailValid: res.EmailValid,
		User:       res.User,
		Name:       res.Name,
		ExtraData:  ExtraData{UID: res.UID},
	}

	if res.User != nil {
		if _, err := a.profiles.Profile(res.User, res.UID).Refresh(ctx, true); err != nil {
			return a.failure(err)
		}
	}

	return result
}

// AfterCreateAccount runs once a new account has been created for a
// successful attempt that matched no user: it forces an immediate
// profile sync under the subject carried in the result's extra data.
func (a *Authenticator) AfterCreateAccount(ctx context.Context, user *directory.User, extra ExtraData) error {
	_, err := a.profiles.Profile(user, extra.UID).Refresh(ctx, true)
	return err
}

func (a *Authenticator) failure(err error) *Result {
	reason := failedReasonUnknown

	var imp *resolver.SecondaryEmailImpersonationError
	if errors.As(err, &imp) {
		reason = fmt.Sprintf(
			"%s is a secondary email of the account %s on %s; sign in with that account's primary email instead",
			imp.Email, imp.User.Email, imp.IDP(),
		)
	}

	a.log.Error("authentication failed", zap.Error(err))

	return &Result{Failed: true, FailedReason: reason}
}
