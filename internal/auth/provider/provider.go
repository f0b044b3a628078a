package provider

import (
	"context"

	"iam-service/internal/auth"
)

// OAuthProvider defines the contract every external auth provider must
// implement. Implementations return the raw ID token and verified claim
// facts only; they must not perform user creation, linking, or session
// management.
type OAuthProvider interface {
	// Name returns the provider identifier (e.g. "auth0", "google").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code for provider
	// credentials and returns the raw ID token. Verification and claim
	// extraction happen in Verify so callers own claim handling.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (rawIDToken string, err error)

	// Verify checks the ID token's signature, audience and expiry and
	// decodes its claims. A malformed or expired token fails here.
	Verify(ctx context.Context, rawIDToken string) (*auth.Claims, error)
}
