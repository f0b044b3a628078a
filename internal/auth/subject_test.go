package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSubject(t *testing.T) {
	tests := []struct {
		name     string
		uid      string
		provider string
		ok       bool
	}{
		{"ldap subject", "ad|Mozilla-LDAP|jdoe", "Mozilla-LDAP", true},
		{"oauth subject", "oauth2|firefoxaccounts|abc123", "firefoxaccounts", true},
		{"missing segment", "ad|jdoe", "", false},
		{"empty segment", "ad||jdoe", "", false},
		{"too many segments", "a|b|c|d", "", false},
		{"empty string", "", "", false},
		{"no delimiters", "google-oauth2-12345", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, provider, _, ok := ParseSubject(tt.uid)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.provider, provider)
		})
	}
}

func TestIDPName(t *testing.T) {
	assert.Equal(t, "Mozilla-LDAP", IDPName("ad|Mozilla-LDAP|jdoe"))
	assert.Equal(t, UnknownIDP, IDPName(""))
	assert.Equal(t, UnknownIDP, IDPName("garbage"))
}

func TestClaimsLogoutDelay(t *testing.T) {
	iat := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &Claims{IssuedAt: iat, ExpiresAt: iat.Add(2 * time.Hour)}
	assert.Equal(t, 2*time.Hour, c.LogoutDelay())
}
