package app

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
	"github.com/bheem-platform/workspace-cli/internal/meet"
	"github.com/bheem-platform/workspace-cli/internal/model"
	"github.com/bheem-platform/workspace-cli/internal/session"
	"github.com/bheem-platform/workspace-cli/internal/store"
	appsync "github.com/bheem-platform/workspace-cli/internal/sync"
	"github.com/bheem-platform/workspace-cli/tests/testutil"
)

func TestSessionRefreshOKReArmsTimer(t *testing.T) {
	var refreshes atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/mail/sessions/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"session_id": "sess-1",
			"expires_in": 3600,
			"active":     true,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tokens := api.NewTokenHolder()
	client := api.NewClient(srv.URL, tokens, 5*time.Second)
	state := testutil.NewTestState(t)
	sessions := session.NewManager(client, tokens, state, logging.Discard())

	ctx := context.Background()
	require.NoError(t, state.Set(ctx, localstate.KeySession, model.Session{
		Identity:  "user@example.com",
		SessionID: "sess-1",
		ExpiresAt: time.Now().Add(100 * time.Millisecond),
		Active:    true,
	}))
	sessions.Load(ctx)
	require.True(t, sessions.Authenticated())

	mail := store.NewMailStore(client, logging.Discard(), 50)
	poller := appsync.New(mail, sessions, logging.Discard())
	t.Cleanup(poller.Stop)

	root := New(Deps{
		Sessions: sessions,
		Poller:   poller,
		Mail:     mail,
		Drive:    store.NewDriveStore(client, state, logging.Discard(), 50),
		Docs:     store.NewDocsStore(client, logging.Discard()),
		Sites:    store.NewSitesStore(client, logging.Discard()),
		Search:   store.NewSearchStore(client, logging.Discard(), 20),
		Room:     meet.NewWaitingRoom(client, logging.Discard()),
	})

	// The timer is one-shot, so a successful refresh result must arm
	// the next one against the extended TTL. It fires at 90% of the
	// 100ms remaining and calls the refresh endpoint.
	_, _ = root.Update(appsync.SessionRefreshMsg{OK: true})

	require.Eventually(t, func() bool {
		return refreshes.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond, "no refresh scheduled after a successful one")
	assert.True(t, sessions.Authenticated())
}
