package auth

import "strings"

// UnknownIDP is reported when a subject identifier carries no readable
// provider segment.
const UnknownIDP = "Unknown"

// ParseSubject splits a provider subject of the form
// "protocol|provider|local-id". ok is false when the value does not have
// all three segments.
func ParseSubject(uid string) (protocol, provider, localID string, ok bool) {
	parts := strings.Split(uid, "|")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// IDPName extracts the provider segment of a subject identifier, falling
// back to UnknownIDP when the subject is empty or malformed.
func IDPName(uid string) string {
	_, provider, _, ok := ParseSubject(uid)
	if !ok {
		return UnknownIDP
	}
	return provider
}
