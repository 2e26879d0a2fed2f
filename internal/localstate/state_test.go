package localstate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	type pref struct {
		Key  string `json:"key"`
		Desc bool   `json:"desc"`
	}

	require.NoError(t, s.Set(ctx, KeyDriveSort, pref{Key: "size", Desc: true}))

	var got pref
	require.NoError(t, s.Get(ctx, KeyDriveSort, &got))
	assert.Equal(t, pref{Key: "size", Desc: true}, got)
}

func TestSetReplacesPreviousValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeySession, "first"))
	require.NoError(t, s.Set(ctx, KeySession, "second"))

	var got string
	require.NoError(t, s.Get(ctx, KeySession, &got))
	assert.Equal(t, "second", got)
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	var out string
	err := s.Get(context.Background(), "never-set", &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMissingKeyIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Delete(context.Background(), "never-set"))
}

func TestDeleteRemovesValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyCredentialMeta, map[string]string{"username": "u"}))
	require.NoError(t, s.Delete(ctx, KeyCredentialMeta))

	var out map[string]string
	assert.ErrorIs(t, s.Get(ctx, KeyCredentialMeta, &out), ErrNotFound)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.runMigrations())
}
