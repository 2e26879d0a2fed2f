package credential

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bheem-platform/workspace-cli/internal/model"
	"github.com/bheem-platform/workspace-cli/tests/testutil"
)

// memSecrets is an in-memory Secrets for tests.
type memSecrets map[string]string

func (m memSecrets) Get(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (m memSecrets) Set(key, value string) error {
	m[key] = value
	return nil
}

func (m memSecrets) Delete(key string) error {
	delete(m, key)
	return nil
}

func newTestStore(t *testing.T, now func() time.Time) (*Store, memSecrets) {
	t.Helper()
	secrets := memSecrets{}
	s := NewStore(secrets, testutil.NewTestState(t)).WithClock(now)
	return s, secrets
}

func TestSetAndGet(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, secrets := newTestStore(t, func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "sync-user", "sync-pass"))

	username, secret, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sync-user", username)
	assert.Equal(t, "sync-pass", secret)

	// The secret lives only in the keyring.
	assert.Equal(t, "sync-pass", secrets[keyringSecret])

	meta, err := s.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CredentialMeta{Username: "sync-user", LastValidated: now}, meta)
}

func TestGetWithoutCredentials(t *testing.T) {
	s, _ := newTestStore(t, time.Now)

	_, _, err := s.Get(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestStaleness(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	s, _ := newTestStore(t, func() time.Time { return *clock })
	ctx := context.Background()

	// Nothing stored yet: stale.
	assert.True(t, s.Stale(ctx))

	require.NoError(t, s.Set(ctx, "sync-user", "sync-pass"))
	assert.False(t, s.Stale(ctx))

	// Just inside the window.
	*clock = now.Add(model.CredentialStalenessWindow - time.Minute)
	assert.False(t, s.Stale(ctx))

	// Past the window.
	*clock = now.Add(model.CredentialStalenessWindow + time.Minute)
	assert.True(t, s.Stale(ctx))
}

func TestMarkValidatedResetsWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	s, _ := newTestStore(t, func() time.Time { return clock })
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "sync-user", "sync-pass"))

	clock = start.Add(25 * time.Hour)
	require.True(t, s.Stale(ctx))

	require.NoError(t, s.MarkValidated(ctx))
	assert.False(t, s.Stale(ctx))
}

func TestDeleteRemovesSecretAndMeta(t *testing.T) {
	s, secrets := newTestStore(t, time.Now)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "sync-user", "sync-pass"))
	require.NoError(t, s.Delete(ctx))

	assert.NotContains(t, secrets, keyringSecret)
	_, err := s.Meta(ctx)
	assert.ErrorIs(t, err, ErrNoCredentials)
}
