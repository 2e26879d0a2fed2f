// Package meet covers the small client-side surface of meetings: the
// waiting-room admission flow, and the adapter that narrows the
// external audio/video room SDK to the vocabulary the UI understands.
// The SDK itself is a consumed collaborator, never reimplemented.
package meet

import (
	"context"
	"sync"

	"github.com/bheem-platform/workspace-cli/internal/api"
	"github.com/bheem-platform/workspace-cli/internal/logging"
)

type admissionResponse struct {
	Admitted bool `json:"admitted"`
}

// WaitingRoom asks to join a meeting and polls for admission. The
// admission check is driven by the poller at a fixed 3-second interval
// while the waiting screen is shown.
type WaitingRoom struct {
	client *api.Client
	log    logging.Logger

	mu        sync.Mutex
	meetingID string
}

// NewWaitingRoom builds a waiting-room client.
func NewWaitingRoom(client *api.Client, log logging.Logger) *WaitingRoom {
	return &WaitingRoom{client: client, log: log}
}

// Join submits a join request for the meeting and remembers the id for
// subsequent admission checks.
func (w *WaitingRoom) Join(ctx context.Context, meetingID, displayName string) error {
	err := w.client.Post(ctx, "/api/v1/meet/meetings/"+meetingID+"/join", map[string]string{
		"display_name": displayName,
	}, nil)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.meetingID = meetingID
	w.mu.Unlock()
	return nil
}

// Check asks whether the host has admitted us yet.
func (w *WaitingRoom) Check(ctx context.Context) (bool, error) {
	w.mu.Lock()
	meetingID := w.meetingID
	w.mu.Unlock()
	if meetingID == "" {
		return false, nil
	}

	var resp admissionResponse
	err := w.client.Get(ctx, "/api/v1/meet/meetings/"+meetingID+"/admission", &resp)
	if err != nil {
		return false, err
	}
	return resp.Admitted, nil
}

// Leave abandons the waiting room.
func (w *WaitingRoom) Leave(ctx context.Context) {
	w.mu.Lock()
	meetingID := w.meetingID
	w.meetingID = ""
	w.mu.Unlock()
	if meetingID == "" {
		return
	}

	// Best effort; the server times waiting participants out anyway.
	if err := w.client.Delete(ctx, "/api/v1/meet/meetings/"+meetingID+"/join", nil); err != nil {
		w.log.Debug(ctx, "leaving waiting room", "meeting", meetingID, "err", err)
	}
}

// RoomSDK is the narrow contract the external realtime room SDK is
// consumed through: register callbacks, connect, disconnect. Everything
// else about the SDK is opaque to this client.
type RoomSDK interface {
	OnReady(func())
	OnError(func(msg string))
	OnParticipantsChanged(func(count int))
	Connect(ctx context.Context, roomToken string) error
	Disconnect()
}

// RoomState is the room status the UI renders.
type RoomState struct {
	Connected    bool
	Participants int
	Err          string
}

// RoomAdapter translates SDK callbacks into RoomState snapshots for
// the UI.
type RoomAdapter struct {
	sdk RoomSDK

	mu    sync.Mutex
	state RoomState
}

// NewRoomAdapter wires callbacks on the given SDK.
func NewRoomAdapter(sdk RoomSDK) *RoomAdapter {
	a := &RoomAdapter{sdk: sdk}

	sdk.OnReady(func() {
		a.mu.Lock()
		a.state.Connected = true
		a.state.Err = ""
		a.mu.Unlock()
	})
	sdk.OnError(func(msg string) {
		a.mu.Lock()
		a.state.Connected = false
		a.state.Err = msg
		a.mu.Unlock()
	})
	sdk.OnParticipantsChanged(func(count int) {
		a.mu.Lock()
		a.state.Participants = count
		a.mu.Unlock()
	})

	return a
}

// Connect joins the room with the token issued on admission.
func (a *RoomAdapter) Connect(ctx context.Context, roomToken string) error {
	return a.sdk.Connect(ctx, roomToken)
}

// Disconnect leaves the room.
func (a *RoomAdapter) Disconnect() {
	a.sdk.Disconnect()
	a.mu.Lock()
	a.state.Connected = false
	a.mu.Unlock()
}

// State returns the current room state snapshot.
func (a *RoomAdapter) State() RoomState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}
