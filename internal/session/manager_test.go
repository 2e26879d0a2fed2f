package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bheem-platform/workspace-cli/internal/api"
	"github.com/bheem-platform/workspace-cli/internal/localstate"
	"github.com/bheem-platform/workspace-cli/internal/logging"
	"github.com/bheem-platform/workspace-cli/internal/model"
	"github.com/bheem-platform/workspace-cli/tests/testutil"
)

// fakeBackend is a minimal mail-session backend with a request counter.
type fakeBackend struct {
	calls     atomic.Int64
	expiresIn int64
	active    bool

	createStatus  int
	refreshStatus int
	currentStatus int
	deleteStatus  int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	return &fakeBackend{
		expiresIn:     3600,
		active:        true,
		createStatus:  http.StatusOK,
		refreshStatus: http.StatusOK,
		currentStatus: http.StatusOK,
		deleteStatus:  http.StatusNoContent,
	}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	respond := func(w http.ResponseWriter, status int) {
		if status >= 400 {
			w.WriteHeader(status)
			w.Write([]byte(`{"detail":"invalid credentials"}`))
			return
		}
		w.WriteHeader(status)
		if status != http.StatusNoContent {
			json.NewEncoder(w).Encode(map[string]any{
				"session_id": "sess-1",
				"expires_in": b.expiresIn,
				"active":     b.active,
			})
		}
	}
	mux.HandleFunc("POST /api/v1/mail/sessions", func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		respond(w, b.createStatus)
	})
	mux.HandleFunc("POST /api/v1/mail/sessions/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		respond(w, b.refreshStatus)
	})
	mux.HandleFunc("GET /api/v1/mail/sessions/current", func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		respond(w, b.currentStatus)
	})
	mux.HandleFunc("DELETE /api/v1/mail/sessions/current", func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		respond(w, b.deleteStatus)
	})
	return mux
}

func newTestManager(t *testing.T, backend *fakeBackend, opts ...Option) (*Manager, *api.TokenHolder, *localstate.Store) {
	t.Helper()

	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	tokens := api.NewTokenHolder()
	client := api.NewClient(srv.URL, tokens, time.Second)
	state := testutil.NewTestState(t)
	return NewManager(client, tokens, state, logging.Discard(), opts...), tokens, state
}

func TestCreateStoresSessionAndToken(t *testing.T) {
	backend := newFakeBackend(t)
	m, tokens, state := newTestManager(t, backend)
	ctx := context.Background()

	require.True(t, m.Create(ctx, "user@example.com", "secret"))
	assert.True(t, m.Authenticated())
	assert.Empty(t, m.LastError())
	assert.Equal(t, "sess-1", tokens.Token())

	var persisted model.Session
	require.NoError(t, state.Get(ctx, localstate.KeySession, &persisted))
	assert.Equal(t, "user@example.com", persisted.Identity)
	assert.Equal(t, "sess-1", persisted.SessionID)

	assert.True(t, m.Check(ctx))
}

func TestCreateFailureSetsError(t *testing.T) {
	backend := newFakeBackend(t)
	backend.createStatus = http.StatusUnauthorized
	m, tokens, _ := newTestManager(t, backend)

	require.False(t, m.Create(context.Background(), "user@example.com", "wrong"))
	assert.False(t, m.Authenticated())
	assert.Equal(t, "invalid credentials", m.LastError())
	assert.Empty(t, tokens.Token())
}

func TestCheckLocallyExpiredClearsWithoutNetwork(t *testing.T) {
	now := time.Now()
	clock := &now
	backend := newFakeBackend(t)
	backend.expiresIn = 60
	m, tokens, state := newTestManager(t, backend, WithClock(func() time.Time { return *clock }))
	ctx := context.Background()

	require.True(t, m.Create(ctx, "user@example.com", "secret"))
	callsAfterCreate := backend.calls.Load()

	// Move past the expiry; the check must not touch the network.
	*clock = now.Add(2 * time.Minute)
	assert.False(t, m.Check(ctx))
	assert.Equal(t, callsAfterCreate, backend.calls.Load())
	assert.False(t, m.Authenticated())
	assert.Empty(t, tokens.Token())

	err := state.Get(ctx, localstate.KeySession, &model.Session{})
	assert.ErrorIs(t, err, localstate.ErrNotFound)
}

func TestCheckRemoteInactiveClears(t *testing.T) {
	backend := newFakeBackend(t)
	m, _, _ := newTestManager(t, backend)
	ctx := context.Background()

	require.True(t, m.Create(ctx, "user@example.com", "secret"))
	backend.active = false
	assert.False(t, m.Check(ctx))
	assert.False(t, m.Authenticated())
}

func TestCheckTransportFailureKeepsLocalState(t *testing.T) {
	backend := newFakeBackend(t)
	srv := httptest.NewServer(backend.handler())

	tokens := api.NewTokenHolder()
	client := api.NewClient(srv.URL, tokens, time.Second)
	state := testutil.NewTestState(t)
	m := NewManager(client, tokens, state, logging.Discard())
	ctx := context.Background()

	require.True(t, m.Create(ctx, "user@example.com", "secret"))

	// Backend unreachable: the answer is stale but available.
	srv.Close()
	assert.True(t, m.Check(ctx))
	assert.True(t, m.Authenticated())
}

func TestCheckAuthErrorClears(t *testing.T) {
	backend := newFakeBackend(t)
	m, _, _ := newTestManager(t, backend)
	ctx := context.Background()

	require.True(t, m.Create(ctx, "user@example.com", "secret"))
	backend.currentStatus = http.StatusUnauthorized
	assert.False(t, m.Check(ctx))
	assert.False(t, m.Authenticated())
}

func TestRefreshWithoutSessionIsNoop(t *testing.T) {
	backend := newFakeBackend(t)
	m, _, _ := newTestManager(t, backend)

	assert.False(t, m.Refresh(context.Background()))
	assert.Zero(t, backend.calls.Load())
}

func TestRefreshFailureClearsSession(t *testing.T) {
	backend := newFakeBackend(t)
	m, tokens, _ := newTestManager(t, backend)
	ctx := context.Background()

	require.True(t, m.Create(ctx, "user@example.com", "secret"))
	backend.refreshStatus = http.StatusInternalServerError

	assert.False(t, m.Refresh(ctx))
	assert.False(t, m.Authenticated())
	assert.Empty(t, tokens.Token())
}

func TestRefreshExtendsExpiry(t *testing.T) {
	backend := newFakeBackend(t)
	backend.expiresIn = 60
	m, _, _ := newTestManager(t, backend)
	ctx := context.Background()

	require.True(t, m.Create(ctx, "user@example.com", "secret"))
	before := m.Session().ExpiresAt

	backend.expiresIn = 3600
	require.True(t, m.Refresh(ctx))
	assert.True(t, m.Session().ExpiresAt.After(before))
}

func TestDestroyIsBestEffort(t *testing.T) {
	backend := newFakeBackend(t)
	backend.deleteStatus = http.StatusInternalServerError
	m, tokens, state := newTestManager(t, backend)
	ctx := context.Background()

	require.True(t, m.Create(ctx, "user@example.com", "secret"))
	m.Destroy(ctx)

	assert.False(t, m.Authenticated())
	assert.Empty(t, tokens.Token())
	err := state.Get(ctx, localstate.KeySession, &model.Session{})
	assert.ErrorIs(t, err, localstate.ErrNotFound)
}

func TestLoadRestoresPersistedSession(t *testing.T) {
	backend := newFakeBackend(t)
	m, tokens, state := newTestManager(t, backend)
	ctx := context.Background()

	s := model.Session{
		Identity:  "user@example.com",
		SessionID: "sess-old",
		ExpiresAt: time.Now().Add(time.Hour),
		Active:    true,
	}
	require.NoError(t, state.Set(ctx, localstate.KeySession, s))

	m.Load(ctx)
	assert.True(t, m.Authenticated())
	assert.Equal(t, "sess-old", tokens.Token())
}

func TestLoadDiscardsExpiredSession(t *testing.T) {
	backend := newFakeBackend(t)
	m, tokens, state := newTestManager(t, backend)
	ctx := context.Background()

	s := model.Session{
		Identity:  "user@example.com",
		SessionID: "sess-old",
		ExpiresAt: time.Now().Add(-time.Hour),
		Active:    true,
	}
	require.NoError(t, state.Set(ctx, localstate.KeySession, s))

	m.Load(ctx)
	assert.False(t, m.Authenticated())
	assert.Empty(t, tokens.Token())

	err := state.Get(ctx, localstate.KeySession, &model.Session{})
	assert.ErrorIs(t, err, localstate.ErrNotFound)
}

func TestScheduleRefreshFiresOnce(t *testing.T) {
	now := time.Now()
	backend := newFakeBackend(t)
	m, _, _ := newTestManager(t, backend, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.True(t, m.Create(ctx, "user@example.com", "secret"))

	// Shrink the window: expiry 100ms out means the timer fires at 90ms.
	m.mu.Lock()
	m.session.ExpiresAt = now.Add(100 * time.Millisecond)
	m.mu.Unlock()

	var fired atomic.Int64
	require.True(t, m.ScheduleRefresh(func() { fired.Add(1) }))

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int64(1), fired.Load(), "one-shot timer must fire exactly once and not re-arm")
}

func TestScheduleRefreshWithoutSession(t *testing.T) {
	backend := newFakeBackend(t)
	m, _, _ := newTestManager(t, backend)

	assert.False(t, m.ScheduleRefresh(func() {}))
}

func TestStopRefreshCancelsTimer(t *testing.T) {
	backend := newFakeBackend(t)
	backend.expiresIn = 1
	m, _, _ := newTestManager(t, backend)
	ctx := context.Background()

	require.True(t, m.Create(ctx, "user@example.com", "secret"))

	var fired atomic.Int64
	require.True(t, m.ScheduleRefresh(func() { fired.Add(1) }))
	m.StopRefresh()

	time.Sleep(1100 * time.Millisecond)
	assert.Zero(t, fired.Load())
}
