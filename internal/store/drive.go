package store

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bheem-platform/workspace-cli/internal/api"
	"github.com/bheem-platform/workspace-cli/internal/localstate"
	"github.com/bheem-platform/workspace-cli/internal/logging"
	"github.com/bheem-platform/workspace-cli/internal/model"
)

// uploadDisplayDelay is how long a finished upload queue item stays
// visible before being dropped.
const uploadDisplayDelay = 5 * time.Second

type driveListResponse struct {
	Items []model.DriveItem `json:"items"`
	Total int               `json:"total"`
}

// DriveDialog identifies which modal dialog, if any, the drive view is
// showing. The flag and its target item live in the store so every view
// reads the same state.
type DriveDialog int

const (
	DriveDialogNone DriveDialog = iota
	DriveDialogNewFolder
	DriveDialogRename
	DriveDialogMove
	DriveDialogDelete
)

// driveSortPref is the persisted shape of the drive sort preference.
type driveSortPref struct {
	Key  model.DriveSortKey `json:"key"`
	Desc bool               `json:"desc"`
}

// DriveStore mirrors one folder listing of the drive backend, plus the
// transient upload queue and dialog state.
type DriveStore struct {
	client   *api.Client
	state    *localstate.Store
	log      logging.Logger
	pageSize int

	mu        sync.Mutex
	items     []model.DriveItem
	folderID  string
	sortKey   model.DriveSortKey
	sortDesc  bool
	selection Selection
	uploads   []model.UploadItem
	dialog    DriveDialog
	target    *model.DriveItem
	pg        page
	loading   bool
	err       string
}

// NewDriveStore builds a drive store, restoring the persisted sort
// preference when one exists.
func NewDriveStore(client *api.Client, state *localstate.Store, log logging.Logger, pageSize int) *DriveStore {
	if pageSize <= 0 {
		pageSize = 100
	}
	s := &DriveStore{
		client:    client,
		state:     state,
		log:       log,
		pageSize:  pageSize,
		sortKey:   model.DriveSortName,
		selection: NewSelection(),
	}

	var pref driveSortPref
	if state != nil {
		if err := state.Get(context.Background(), localstate.KeyDriveSort, &pref); err == nil {
			s.sortKey = pref.Key
			s.sortDesc = pref.Desc
		}
	}
	return s
}

// FetchItems opens a folder ("" is the root): resets pagination and
// selection, replaces the listing with the first page, and applies the
// local sort order.
func (s *DriveStore) FetchItems(ctx context.Context, folderID string) {
	s.begin()

	s.mu.Lock()
	s.folderID = folderID
	s.pg = page{skip: 0, limit: s.pageSize}
	s.selection.Clear()
	s.mu.Unlock()

	var resp driveListResponse
	err := s.client.Get(ctx, "/api/v1/drive/items"+api.Query(map[string]string{
		"parent_id": folderID,
		"skip":      "0",
		"limit":     fmt.Sprintf("%d", s.pageSize),
	}), &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = api.UserMessage(err)
		return
	}
	s.items = resp.Items
	s.pg.total = resp.Total
	s.pg.skip = len(resp.Items)
	model.SortDriveItems(s.items, s.sortKey, s.sortDesc)
}

// LoadMore appends the next page and re-applies the sort.
func (s *DriveStore) LoadMore(ctx context.Context) {
	s.mu.Lock()
	if !s.pg.hasMore(len(s.items)) {
		s.mu.Unlock()
		return
	}
	folderID := s.folderID
	skip := s.pg.skip
	s.mu.Unlock()

	s.begin()

	var resp driveListResponse
	err := s.client.Get(ctx, "/api/v1/drive/items"+api.Query(map[string]string{
		"parent_id": folderID,
		"skip":      fmt.Sprintf("%d", skip),
		"limit":     fmt.Sprintf("%d", s.pageSize),
	}), &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = api.UserMessage(err)
		return
	}
	s.items = append(s.items, resp.Items...)
	s.pg.total = resp.Total
	s.pg.skip = len(s.items)
	model.SortDriveItems(s.items, s.sortKey, s.sortDesc)
}

// SetSort changes the sort order, re-sorts the current listing, and
// persists the preference.
func (s *DriveStore) SetSort(key model.DriveSortKey, desc bool) {
	s.mu.Lock()
	s.sortKey = key
	s.sortDesc = desc
	model.SortDriveItems(s.items, key, desc)
	s.mu.Unlock()

	if s.state != nil {
		err := s.state.Set(context.Background(), localstate.KeyDriveSort, driveSortPref{Key: key, Desc: desc})
		if err != nil {
			s.log.Warn(context.Background(), "persisting drive sort", "err", err)
		}
	}
}

// CreateFolder creates a folder under the open folder and refetches.
func (s *DriveStore) CreateFolder(ctx context.Context, name string) {
	s.mu.Lock()
	folderID := s.folderID
	s.mu.Unlock()

	err := s.client.Post(ctx, "/api/v1/drive/folders", map[string]string{
		"name":      name,
		"parent_id": folderID,
	}, nil)
	if err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
		return
	}
	s.CloseDialog()
	s.FetchItems(ctx, folderID)
}

// Rename renames an item and refetches.
func (s *DriveStore) Rename(ctx context.Context, id, newName string) {
	err := s.client.Patch(ctx, "/api/v1/drive/items/"+id, map[string]string{
		"name": newName,
	}, nil)
	if err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
		return
	}
	s.CloseDialog()
	s.refetch(ctx)
}

// Move moves items into targetFolderID and refetches.
func (s *DriveStore) Move(ctx context.Context, ids []string, targetFolderID string) {
	err := s.client.Post(ctx, "/api/v1/drive/items/move", map[string]interface{}{
		"ids":       ids,
		"parent_id": targetFolderID,
	}, nil)
	if err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.selection.Clear()
	s.mu.Unlock()
	s.CloseDialog()
	s.refetch(ctx)
}

// Delete removes items one by one; a failure stops the loop with a
// single error message. The refetch afterwards reconciles the listing
// with whatever actually happened server-side.
func (s *DriveStore) Delete(ctx context.Context, ids []string) {
	var failMsg string
	for _, id := range ids {
		if err := s.client.Delete(ctx, "/api/v1/drive/items/"+id, nil); err != nil {
			failMsg = api.UserMessage(err)
			break
		}
	}

	s.mu.Lock()
	s.selection.Clear()
	s.mu.Unlock()
	s.CloseDialog()
	s.refetch(ctx)
	if failMsg != "" {
		// Re-set after the refetch so the banner survives it.
		s.mu.Lock()
		s.err = failMsg
		s.mu.Unlock()
	}
}

// ToggleStar flips the starred flag in place (optimistic, no rollback
// on failure).
func (s *DriveStore) ToggleStar(ctx context.Context, id string, starred bool) {
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].IsStarred = !starred
			break
		}
	}
	s.mu.Unlock()

	err := s.client.Patch(ctx, "/api/v1/drive/items/"+id, map[string]bool{
		"is_starred": !starred,
	}, nil)
	if err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
	}
}

// Upload queues and performs a file upload into the open folder. The
// queue item moves pending → uploading → completed|error and is
// dropped after a fixed display delay. Queue items never persist.
func (s *DriveStore) Upload(ctx context.Context, name string, size int64, r io.Reader) {
	s.mu.Lock()
	folderID := s.folderID
	item := model.UploadItem{
		ID:        uuid.NewString(),
		Name:      name,
		Size:      size,
		ParentID:  folderID,
		State:     model.UploadPending,
		CreatedAt: time.Now(),
	}
	s.uploads = append(s.uploads, item)
	s.mu.Unlock()

	s.setUploadState(item.ID, model.UploadUploading, "")

	err := s.client.Upload(ctx, "/api/v1/drive/files", name, r, map[string]string{
		"parent_id": folderID,
	}, nil)
	if err != nil {
		s.setUploadState(item.ID, model.UploadError, api.UserMessage(err))
	} else {
		s.setUploadState(item.ID, model.UploadCompleted, "")
		s.refetch(ctx)
	}

	time.AfterFunc(uploadDisplayDelay, func() {
		s.dropUpload(item.ID)
	})
}

// OpenDialog shows a modal dialog, optionally bound to a target item.
func (s *DriveStore) OpenDialog(d DriveDialog, target *model.DriveItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialog = d
	s.target = target
}

// CloseDialog resets the dialog flag and its target. Called whenever
// the owning action completes or is cancelled.
func (s *DriveStore) CloseDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialog = DriveDialogNone
	s.target = nil
}

// Dialog returns the visible dialog and its target item.
func (s *DriveStore) Dialog() (DriveDialog, *model.DriveItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialog, s.target
}

// Items returns a copy of the current listing.
func (s *DriveStore) Items() []model.DriveItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.DriveItem, len(s.items))
	copy(out, s.items)
	return out
}

// Uploads returns a copy of the visible upload queue.
func (s *DriveStore) Uploads() []model.UploadItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.UploadItem, len(s.uploads))
	copy(out, s.uploads)
	return out
}

// Selection returns the live selection set.
func (s *DriveStore) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Sort returns the current sort key and direction.
func (s *DriveStore) Sort() (model.DriveSortKey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortKey, s.sortDesc
}

// FolderID returns the open folder id ("" for the root).
func (s *DriveStore) FolderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.folderID
}

// HasMore reports whether another page exists.
func (s *DriveStore) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pg.hasMore(len(s.items))
}

// Loading reports whether a fetch is in flight.
func (s *DriveStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the scoped error message, or "".
func (s *DriveStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearErr dismisses the scoped error banner.
func (s *DriveStore) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

func (s *DriveStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

func (s *DriveStore) refetch(ctx context.Context) {
	s.mu.Lock()
	folderID := s.folderID
	s.mu.Unlock()
	s.FetchItems(ctx, folderID)
}

func (s *DriveStore) setUploadState(id string, state model.UploadState, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.uploads {
		if s.uploads[i].ID == id {
			s.uploads[i].State = state
			s.uploads[i].Error = errMsg
			return
		}
	}
}

func (s *DriveStore) dropUpload(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.uploads {
		if s.uploads[i].ID == id {
			s.uploads = append(s.uploads[:i], s.uploads[i+1:]...)
			return
		}
	}
}
