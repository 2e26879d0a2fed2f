package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/bheem-platform/workspace-cli/internal/api"
	"github.com/bheem-platform/workspace-cli/internal/logging"
	"github.com/bheem-platform/workspace-cli/internal/model"
)

type messageListResponse struct {
	Messages []model.Message `json:"messages"`
	Total    int             `json:"total"`
}

type folderListResponse struct {
	Folders []model.MailFolder `json:"folders"`
}

type unreadResponse struct {
	Counts model.UnreadCounts `json:"counts"`
}

type rawMessageResponse struct {
	Raw string `json:"raw"`
}

// ExternalSource mirrors an extra mailbox that lives outside the
// workspace backend. The mail view lists it under one synthetic folder.
type ExternalSource interface {
	Fetch(ctx context.Context) ([]model.Message, error)
	ToggleStar(ctx context.Context, id string, starred bool) error
	MarkRead(ctx context.Context, id string) error
}

// MailStore mirrors the mail backend: folder list, the message list of
// the currently open folder, and the per-folder unread counts.
type MailStore struct {
	client   *api.Client
	log      logging.Logger
	pageSize int
	external ExternalSource

	mu        sync.Mutex
	folders   []model.MailFolder
	messages  []model.Message
	folderID  string
	unread    model.UnreadCounts
	selection Selection
	pg        page
	loading   bool
	err       string
}

// NewMailStore builds a mail store. pageSize controls load-more paging;
// zero means 50.
func NewMailStore(client *api.Client, log logging.Logger, pageSize int) *MailStore {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &MailStore{
		client:    client,
		log:       log,
		pageSize:  pageSize,
		unread:    make(model.UnreadCounts),
		selection: NewSelection(),
	}
}

// AttachExternal registers an optional external mailbox mirror. Must be
// called before the first FetchFolders.
func (s *MailStore) AttachExternal(src ExternalSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.external = src
}

// FetchFolders replaces the folder list from the backend. An attached
// external mailbox is appended as one synthetic folder.
func (s *MailStore) FetchFolders(ctx context.Context) {
	s.begin()

	var resp folderListResponse
	err := s.client.Get(ctx, "/api/v1/mail/folders", &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = api.UserMessage(err)
		return
	}
	s.folders = resp.Folders
	if s.external != nil {
		s.folders = append(s.folders, model.MailFolder{
			ID:   model.ExternalFolderID,
			Name: "External",
		})
	}
}

// FetchMessages opens a folder: resets pagination and selection, then
// replaces the message list with the first page.
func (s *MailStore) FetchMessages(ctx context.Context, folderID string) {
	s.begin()

	s.mu.Lock()
	s.folderID = folderID
	s.pg = page{skip: 0, limit: s.pageSize}
	s.selection.Clear()
	external := s.external
	s.mu.Unlock()

	if folderID == model.ExternalFolderID && external != nil {
		s.fetchExternal(ctx, external)
		return
	}

	var resp messageListResponse
	err := s.client.Get(ctx, fmt.Sprintf(
		"/api/v1/mail/folders/%s/messages%s",
		folderID,
		api.Query(map[string]string{
			"skip":  "0",
			"limit": fmt.Sprintf("%d", s.pageSize),
		}),
	), &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = api.UserMessage(err)
		return
	}
	s.messages = resp.Messages
	s.pg.total = resp.Total
	s.pg.skip = len(resp.Messages)
}

// fetchExternal replaces the message list with the external mailbox
// mirror. The external folder is a single page; there is no load-more.
func (s *MailStore) fetchExternal(ctx context.Context, external ExternalSource) {
	messages, err := external.Fetch(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = api.GenericErrorMessage
		s.log.Debug(ctx, "external mailbox fetch failed", "err", err)
		return
	}
	s.messages = messages
	s.pg.total = len(messages)
	s.pg.skip = len(messages)
}

// LoadMore appends the next page to the current message list. A no-op
// when no folder is open or everything is already loaded.
func (s *MailStore) LoadMore(ctx context.Context) {
	s.mu.Lock()
	if s.folderID == "" || !s.pg.hasMore(len(s.messages)) {
		s.mu.Unlock()
		return
	}
	folderID := s.folderID
	skip := s.pg.skip
	s.mu.Unlock()

	s.begin()

	var resp messageListResponse
	err := s.client.Get(ctx, fmt.Sprintf(
		"/api/v1/mail/folders/%s/messages%s",
		folderID,
		api.Query(map[string]string{
			"skip":  fmt.Sprintf("%d", skip),
			"limit": fmt.Sprintf("%d", s.pageSize),
		}),
	), &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = api.UserMessage(err)
		return
	}
	s.messages = append(s.messages, resp.Messages...)
	s.pg.total = resp.Total
	s.pg.skip = len(s.messages)
}

// FetchUnread refreshes the per-folder unread counts. Called by the
// poller on a fixed interval; failures are recorded but the previous
// counts stay visible.
func (s *MailStore) FetchUnread(ctx context.Context) {
	var resp unreadResponse
	err := s.client.Get(ctx, "/api/v1/mail/unread", &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.log.Debug(ctx, "unread count refresh failed", "err", err)
		return
	}
	s.unread = resp.Counts
}

// ToggleStar flips the starred flag on a message. The local item is
// mutated immediately (optimistic); the network result does not roll
// the flag back on failure. A refetch is the only way the list
// reconverges.
func (s *MailStore) ToggleStar(ctx context.Context, id string, starred bool) {
	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].IsStarred = !starred
			break
		}
	}
	external := s.external
	onExternal := s.folderID == model.ExternalFolderID
	s.mu.Unlock()

	var err error
	if onExternal && external != nil {
		err = external.ToggleStar(ctx, id, starred)
	} else {
		err = s.client.Patch(ctx, "/api/v1/mail/messages/"+id, map[string]bool{
			"is_starred": !starred,
		}, nil)
	}
	if err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
	}
}

// MarkRead marks a message read locally and remotely. Like ToggleStar,
// the local mutation is optimistic.
func (s *MailStore) MarkRead(ctx context.Context, id string) {
	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].IsRead = true
			break
		}
	}
	external := s.external
	onExternal := s.folderID == model.ExternalFolderID
	s.mu.Unlock()

	var err error
	if onExternal && external != nil {
		err = external.MarkRead(ctx, id)
	} else {
		err = s.client.Patch(ctx, "/api/v1/mail/messages/"+id, map[string]bool{
			"is_read": true,
		}, nil)
	}
	if err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
	}
}

// Move moves the given messages to another folder, then refetches the
// open folder to resynchronize.
func (s *MailStore) Move(ctx context.Context, ids []string, targetFolderID string) {
	err := s.client.Post(ctx, "/api/v1/mail/messages/move", map[string]interface{}{
		"ids":       ids,
		"folder_id": targetFolderID,
	}, nil)
	if err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.selection.Clear()
	folderID := s.folderID
	s.mu.Unlock()
	if folderID != "" {
		s.FetchMessages(ctx, folderID)
	}
}

// Delete removes messages one by one. A failure partway through stops
// the loop and surfaces a single error with no per-item accounting;
// the refetch afterwards reconciles the list with server truth either
// way.
func (s *MailStore) Delete(ctx context.Context, ids []string) {
	var failMsg string
	for _, id := range ids {
		if err := s.client.Delete(ctx, "/api/v1/mail/messages/"+id, nil); err != nil {
			failMsg = api.UserMessage(err)
			break
		}
	}

	s.mu.Lock()
	s.selection.Clear()
	folderID := s.folderID
	s.mu.Unlock()

	if folderID != "" {
		s.FetchMessages(ctx, folderID)
	}
	if failMsg != "" {
		// Re-set after the refetch so the banner survives it.
		s.mu.Lock()
		s.err = failMsg
		s.mu.Unlock()
		s.log.Warn(ctx, "bulk delete partially failed", "requested", len(ids))
	}
}

// FetchDetail loads a single message with its raw MIME source and
// returns the parsed detail. Unlike list fetches, the result goes to
// the caller, not into the mirror.
func (s *MailStore) FetchDetail(ctx context.Context, id string) (*model.MessageDetail, error) {
	var msg model.Message
	if err := s.client.Get(ctx, "/api/v1/mail/messages/"+id, &msg); err != nil {
		return nil, err
	}

	var raw rawMessageResponse
	if err := s.client.Get(ctx, "/api/v1/mail/messages/"+id+"/raw", &raw); err != nil {
		return nil, err
	}

	detail, err := parseRawMessage([]byte(raw.Raw))
	if err != nil {
		return nil, fmt.Errorf("parsing message %s: %w", id, err)
	}
	detail.Message = msg
	return detail, nil
}

// Selection returns the live selection set. Callers mutate it directly;
// it is local state only.
func (s *MailStore) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Folders returns a copy of the folder list.
func (s *MailStore) Folders() []model.MailFolder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.MailFolder, len(s.folders))
	copy(out, s.folders)
	return out
}

// Messages returns a copy of the open folder's message list.
func (s *MailStore) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Unread returns a copy of the unread counts.
func (s *MailStore) Unread() model.UnreadCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(model.UnreadCounts, len(s.unread))
	for k, v := range s.unread {
		out[k] = v
	}
	return out
}

// HasMore reports whether another page exists for the open folder.
func (s *MailStore) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pg.hasMore(len(s.messages))
}

// Loading reports whether a fetch is in flight. Concurrent fetches
// share this flag.
func (s *MailStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the scoped error message, or "".
func (s *MailStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearErr dismisses the scoped error banner.
func (s *MailStore) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

// begin marks a fetch started: loading on, scoped error cleared.
func (s *MailStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}
