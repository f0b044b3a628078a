package middleware

import (
	"context"
	"net/http"
	"time"

	"iam-service/internal/directory"
	"iam-service/internal/iam"
	"iam-service/internal/logger"
	"iam-service/internal/session"
	"iam-service/internal/sessionpolicy"
)

// unexported, collision-proof context key
type userIDContextKeyType struct{}

var userIDKey = userIDContextKeyType{}

// UserIDFromContext extracts the authenticated user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// AuthMiddleware gates requests on a live session. Beyond the absolute
// expiry it enforces the logout delay recorded at sign-in, and keeps the
// user's synced profile data fresh on the way through. Policy, Directory
// and Profiles are optional; leaving them nil disables the corresponding
// step.
type AuthMiddleware struct {
	Store     session.Store
	Policy    *sessionpolicy.Policy
	Directory directory.Store
	Profiles  *iam.Service
}

func NewAuthMiddleware(store session.Store) *AuthMiddleware {
	return &AuthMiddleware{Store: store}
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Read session cookie
		cookie, err := r.Cookie(session.CookieName)
		if err != nil || cookie.Value == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sessionID := cookie.Value

		// 2. Load session
		sess, err := a.Store.Get(r.Context(), sessionID)
		if err != nil || sess == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 3. Enforce absolute session expiry
		if time.Now().After(sess.ExpiresAt) {
			_ = a.Store.Delete(r.Context(), sessionID)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 4. Enforce the logout delay: the session may not outlive
		// the ID token that produced it.
		if a.Policy != nil && !sess.LastRefresh.IsZero() {
			if delay, ok := a.Policy.LogoutDelay(r.Context()); ok {
				if time.Since(sess.LastRefresh) > delay {
					_ = a.Store.Delete(r.Context(), sessionID)
					session.ClearCookie(w, session.CookieOptions{
						Secure:   true,
						SameSite: http.SameSiteLaxMode,
					})
					http.Error(w, "unauthorized", http.StatusUnauthorized)
					return
				}
			}
		}

		// 5. Opportunistic profile refresh, gated by staleness. A
		// failed refresh never blocks the request.
		a.refreshProfile(r.Context(), sess.UserID)

		// 6. Attach user_id to context
		ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)

		// 7. Continue request
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AuthMiddleware) refreshProfile(ctx context.Context, userID string) {
	if a.Directory == nil || a.Profiles == nil {
		return
	}

	user, err := a.Directory.FindByID(ctx, userID)
	if err != nil || user == nil || user.IAMUID == "" {
		return
	}

	if _, err := a.Profiles.Profile(user, user.IAMUID).Refresh(ctx, false); err != nil {
		logger.Warn("profile refresh failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}
