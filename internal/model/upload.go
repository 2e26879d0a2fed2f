package model

import "time"

// UploadState tracks an upload queue item through its lifecycle.
type UploadState string

const (
	UploadPending   UploadState = "pending"
	UploadUploading UploadState = "uploading"
	UploadCompleted UploadState = "completed"
	UploadError     UploadState = "error"
)

// UploadItem is an ephemeral queue entry created when the user picks a
// file to upload. It is never persisted; completed and failed entries
// are dropped after a fixed display delay.
type UploadItem struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Size      int64       `json:"size"`
	ParentID  string      `json:"parent_id"`
	State     UploadState `json:"state"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// Done reports whether the item has reached a terminal state.
func (u UploadItem) Done() bool {
	return u.State == UploadCompleted || u.State == UploadError
}
