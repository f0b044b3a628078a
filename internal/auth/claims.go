package auth

import "time"

// Claims is the decoded, verified payload of an ID token. It is built
// once per sign-in attempt and never persisted.
type Claims struct {
	Provider      string // e.g. "auth0", "google"
	Subject       string // provider-scoped stable identifier ("protocol|provider|local-id")
	Email         string
	EmailVerified bool // whether the provider asserts email ownership
	Name          string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// LogoutDelay is how long the local session may outlive this token:
// the token's own lifetime, exp minus iat.
func (c *Claims) LogoutDelay() time.Duration {
	return c.ExpiresAt.Sub(c.IssuedAt)
}
