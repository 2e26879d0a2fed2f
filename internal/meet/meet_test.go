package meet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bheem-platform/workspace-cli/internal/api"
	"github.com/bheem-platform/workspace-cli/internal/logging"
)

func newRoom(t *testing.T, mux *http.ServeMux) *WaitingRoom {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, api.StaticToken("tok"), 5*time.Second)
	return NewWaitingRoom(client, logging.Discard())
}

func TestWaitingRoomJoinThenCheck(t *testing.T) {
	admitted := false
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/meet/meetings/{id}/join", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Alex", body["display_name"])
	})
	mux.HandleFunc("GET /api/v1/meet/meetings/{id}/admission", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"admitted": admitted})
	})

	room := newRoom(t, mux)
	ctx := context.Background()
	require.NoError(t, room.Join(ctx, "mtg-1", "Alex"))

	ok, err := room.Check(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	admitted = true
	ok, err = room.Check(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWaitingRoomCheckWithoutJoin(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/meet/meetings/{id}/admission", func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	room := newRoom(t, mux)
	ok, err := room.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, calls, "no join means no network call")
}

func TestWaitingRoomLeaveIsBestEffort(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/meet/meetings/{id}/join", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("DELETE /api/v1/meet/meetings/{id}/join", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("GET /api/v1/meet/meetings/{id}/admission", func(w http.ResponseWriter, r *http.Request) {
		t.Error("admission checked after leave")
	})

	room := newRoom(t, mux)
	ctx := context.Background()
	require.NoError(t, room.Join(ctx, "mtg-1", "Alex"))

	room.Leave(ctx)

	// Leaving forgets the meeting even when the server call fails.
	ok, err := room.Check(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

type fakeSDK struct {
	ready    func()
	failed   func(string)
	changed  func(int)
	connects int
}

func (f *fakeSDK) OnReady(fn func())                  { f.ready = fn }
func (f *fakeSDK) OnError(fn func(string))            { f.failed = fn }
func (f *fakeSDK) OnParticipantsChanged(fn func(int)) { f.changed = fn }
func (f *fakeSDK) Connect(_ context.Context, _ string) error {
	f.connects++
	f.ready()
	return nil
}
func (f *fakeSDK) Disconnect() {}

func TestRoomAdapterTracksSDKState(t *testing.T) {
	sdk := &fakeSDK{}
	a := NewRoomAdapter(sdk)

	require.NoError(t, a.Connect(context.Background(), "room-token"))
	assert.Equal(t, 1, sdk.connects)
	assert.True(t, a.State().Connected)

	sdk.changed(3)
	assert.Equal(t, 3, a.State().Participants)

	sdk.failed("ice negotiation failed")
	st := a.State()
	assert.False(t, st.Connected)
	assert.Equal(t, "ice negotiation failed", st.Err)

	a.Disconnect()
	assert.False(t, a.State().Connected)
}
