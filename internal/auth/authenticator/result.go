package authenticator

import "iam-service/internal/directory"

// ExtraData travels with a successful result so that later hooks (e.g.
// account creation) still know which provider subject authenticated.
type ExtraData struct {
	UID string `json:"uid"`
}

// Result is the outward-facing outcome of one authentication attempt.
// Exactly one of the two shapes is populated: the identity fields on
// success, Failed plus FailedReason otherwise.
type Result struct {
	Email      string
	EmailValid bool
	User       *directory.User // nil when no local account matched
	Name       string
	ExtraData  ExtraData

	Failed       bool
	FailedReason string // safe to show to the user
}
