package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, Session{ExpiresAt: now.Add(time.Second)}.Expired(now))
	assert.True(t, Session{ExpiresAt: now}.Expired(now), "expiry boundary counts as expired")
	assert.True(t, Session{ExpiresAt: now.Add(-time.Second)}.Expired(now))
}

func TestCredentialMetaStale(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	meta := CredentialMeta{Username: "u", LastValidated: now}

	assert.False(t, meta.Stale(now.Add(CredentialStalenessWindow)))
	assert.True(t, meta.Stale(now.Add(CredentialStalenessWindow+time.Second)))
}
