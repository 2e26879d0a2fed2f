package model

import "time"

// Session is a server-issued, time-bounded authorization handle for the
// mail backend. It carries an opaque id, never the user's password.
type Session struct {
	Identity  string    `json:"identity"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// Expired reports whether the session's expiry is at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// CredentialStalenessWindow is how long a stored legacy credential is
// considered validated before the UI should prompt for re-entry. The
// window is advisory only; nothing enforces it.
const CredentialStalenessWindow = 24 * time.Hour

// CredentialMeta is the non-secret half of a legacy credential record
// for the secondary file-sync service. The secret itself lives in the
// platform keyring, never alongside this metadata.
type CredentialMeta struct {
	Username      string    `json:"username"`
	LastValidated time.Time `json:"last_validated"`
}

// Stale reports whether the credential was last validated more than
// CredentialStalenessWindow before now.
func (c CredentialMeta) Stale(now time.Time) bool {
	return now.Sub(c.LastValidated) > CredentialStalenessWindow
}
