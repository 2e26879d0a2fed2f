package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bheem-platform/workspace-cli/internal/api"
	"github.com/bheem-platform/workspace-cli/internal/localstate"
	"github.com/bheem-platform/workspace-cli/internal/logging"
	"github.com/bheem-platform/workspace-cli/internal/model"
	"github.com/bheem-platform/workspace-cli/internal/session"
	"github.com/bheem-platform/workspace-cli/internal/store"
	"github.com/bheem-platform/workspace-cli/tests/testutil"
)

func newPollerFixture(t *testing.T, mux *http.ServeMux) (*Poller, *session.Manager, *localstate.Store) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tokens := api.NewTokenHolder()
	client := api.NewClient(srv.URL, tokens, 5*time.Second)
	state := testutil.NewTestState(t)
	sessions := session.NewManager(client, tokens, state, logging.Discard())
	mail := store.NewMailStore(client, logging.Discard(), 50)

	p := New(mail, sessions, logging.Discard())
	t.Cleanup(p.Stop)
	return p, sessions, state
}

func collectMsg(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poller message")
		return nil
	}
}

func TestPollerDeliversUnreadCounts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/mail/unread", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"counts": map[string]int{"inbox": 4, "spam": 1},
		})
	})

	p, _, _ := newPollerFixture(t, mux)
	p.SetIntervals(time.Hour, time.Hour)

	cmd := p.Start()
	require.NotNil(t, cmd)

	msg := collectMsg(t, cmd)
	unread, ok := msg.(UnreadMsg)
	require.True(t, ok, "expected UnreadMsg, got %T", msg)
	assert.Equal(t, 5, unread.Counts.Total())
}

func TestPollerStartIsIdempotent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/mail/unread", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"counts": map[string]int{}})
	})

	p, _, _ := newPollerFixture(t, mux)
	p.SetIntervals(time.Hour, time.Hour)

	require.NotNil(t, p.Start())
	assert.Nil(t, p.Start())
}

func TestPollerStopHaltsUnreadLoop(t *testing.T) {
	var calls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/mail/unread", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"counts": map[string]int{}})
	})

	p, _, _ := newPollerFixture(t, mux)
	p.SetIntervals(10*time.Millisecond, time.Hour)

	p.Start()
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	p.Stop()
	settled := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), settled+1)
}

func TestPollerRestartsAfterStop(t *testing.T) {
	var calls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/mail/unread", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"counts": map[string]int{}})
	})

	p, _, _ := newPollerFixture(t, mux)
	p.SetIntervals(10*time.Millisecond, time.Hour)

	require.NotNil(t, p.Start())
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	p.Stop()

	// A second Start must get interval ticks again, not just the
	// immediate fetch.
	restartFrom := calls.Load()
	require.NotNil(t, p.Start())
	require.Eventually(t, func() bool {
		return calls.Load() >= restartFrom+3
	}, 2*time.Second, 5*time.Millisecond)
}

type scriptedChecker struct {
	calls    atomic.Int64
	admitAt  int64
	checkErr error
}

func (c *scriptedChecker) Check(ctx context.Context) (bool, error) {
	n := c.calls.Add(1)
	if c.checkErr != nil {
		return false, c.checkErr
	}
	return n >= c.admitAt, nil
}

func TestPollerAdmissionStopsOnceAdmitted(t *testing.T) {
	p, _, _ := newPollerFixture(t, http.NewServeMux())
	p.SetIntervals(time.Hour, 10*time.Millisecond)

	checker := &scriptedChecker{admitAt: 3}
	p.StartWaitingRoom(checker)

	var admitted bool
	for !admitted {
		msg := collectMsg(t, p.WaitForNextResult())
		adm, ok := msg.(AdmissionMsg)
		require.True(t, ok, "expected AdmissionMsg, got %T", msg)
		require.NoError(t, adm.Err)
		admitted = adm.Admitted
	}

	// Admission ends the loop without StopWaitingRoom being called.
	settled := checker.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, checker.calls.Load())
}

func TestPollerStopWaitingRoomCancelsPoll(t *testing.T) {
	p, _, _ := newPollerFixture(t, http.NewServeMux())
	p.SetIntervals(time.Hour, 10*time.Millisecond)

	checker := &scriptedChecker{admitAt: 1000}
	p.StartWaitingRoom(checker)

	require.Eventually(t, func() bool { return checker.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	p.StopWaitingRoom()

	settled := checker.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, checker.calls.Load(), settled+1)
}

func TestPollerSchedulesSessionRefresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/mail/sessions/refresh", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"session_id": "sess-1",
			"expires_in": 3600,
			"active":     true,
		})
	})

	p, sessions, state := newPollerFixture(t, mux)

	ctx := context.Background()
	require.NoError(t, state.Set(ctx, localstate.KeySession, model.Session{
		Identity:  "user@example.com",
		SessionID: "sess-1",
		ExpiresAt: time.Now().Add(100 * time.Millisecond),
		Active:    true,
	}))
	sessions.Load(ctx)
	require.True(t, sessions.Authenticated())

	require.True(t, p.ScheduleSessionRefresh())

	msg := collectMsg(t, p.WaitForNextResult())
	refresh, ok := msg.(SessionRefreshMsg)
	require.True(t, ok, "expected SessionRefreshMsg, got %T", msg)
	assert.True(t, refresh.OK)
	assert.True(t, sessions.Authenticated())
}

func TestPollerScheduleRefreshWithoutSession(t *testing.T) {
	p, _, _ := newPollerFixture(t, http.NewServeMux())
	assert.False(t, p.ScheduleSessionRefresh())
}
