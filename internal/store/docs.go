package store

import (
	"context"
	"sync"
	"time"

	"github.com/bheem-platform/workspace-cli/internal/api"
	"github.com/bheem-platform/workspace-cli/internal/logging"
	"github.com/bheem-platform/workspace-cli/internal/model"
)

// titleDebounce is the trailing-edge delay for title autosave. Each
// document id gets its own timer; repeated edits within the window keep
// pushing the save back.
const titleDebounce = time.Second

type docListResponse struct {
	Documents []model.Document `json:"documents"`
}

// DocsStore mirrors the document list. Document content is owned by an
// external collaborative editor; the client only manages metadata.
type DocsStore struct {
	client   *api.Client
	log      logging.Logger
	debounce time.Duration

	mu      sync.Mutex
	docs    []model.Document
	loading bool
	err     string
	timers  map[string]*time.Timer
}

// NewDocsStore builds a docs store.
func NewDocsStore(client *api.Client, log logging.Logger) *DocsStore {
	return &DocsStore{
		client:   client,
		log:      log,
		debounce: titleDebounce,
		timers:   make(map[string]*time.Timer),
	}
}

// SetDebounce overrides the autosave delay. Tests shrink it to avoid
// sleeping for a full second.
func (s *DocsStore) SetDebounce(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debounce = d
}

// Fetch replaces the document list.
func (s *DocsStore) Fetch(ctx context.Context) {
	s.begin()

	var resp docListResponse
	err := s.client.Get(ctx, "/api/v1/docs/documents", &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = api.UserMessage(err)
		return
	}
	s.docs = resp.Documents
}

// Create makes a new document of the given kind and refetches.
func (s *DocsStore) Create(ctx context.Context, title, kind string) {
	err := s.client.Post(ctx, "/api/v1/docs/documents", map[string]string{
		"title": title,
		"kind":  kind,
	}, nil)
	if err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
		return
	}
	s.Fetch(ctx)
}

// Delete removes a document and refetches.
func (s *DocsStore) Delete(ctx context.Context, id string) {
	if err := s.client.Delete(ctx, "/api/v1/docs/documents/"+id, nil); err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
		return
	}
	s.Fetch(ctx)
}

// SetTitle records a title edit. The local mirror updates immediately;
// the PATCH is debounced per document id with a trailing-edge timer so
// a burst of keystrokes produces a single save.
func (s *DocsStore) SetTitle(id, title string) {
	s.mu.Lock()
	for i := range s.docs {
		if s.docs[i].ID == id {
			s.docs[i].Title = title
			break
		}
	}

	if t, ok := s.timers[id]; ok {
		t.Stop()
	}
	d := s.debounce
	s.timers[id] = time.AfterFunc(d, func() {
		s.saveTitle(id, title)
	})
	s.mu.Unlock()
}

// saveTitle performs the deferred PATCH when the debounce window closes.
func (s *DocsStore) saveTitle(id, title string) {
	ctx := context.Background()

	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	err := s.client.Patch(ctx, "/api/v1/docs/documents/"+id, map[string]string{
		"title": title,
	}, nil)
	if err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
		s.log.Warn(ctx, "title autosave failed", "doc", id, "err", err)
	}
}

// EditorEvents is the narrow contract the external collaborative editor
// SDK is consumed through. The SDK itself is an opaque collaborator;
// its callbacks are adapted into the store's vocabulary and nothing
// more.
type EditorEvents interface {
	OnReady(func(docID string))
	OnError(func(docID string, msg string))
	OnDocumentChanged(func(docID string))
}

// BindEditor subscribes the store to an editor SDK. Remote edits mark
// the mirrored document's modified time; editor errors surface through
// the scoped error string like any other failure.
func (s *DocsStore) BindEditor(ev EditorEvents) {
	ev.OnReady(func(docID string) {
		s.log.Debug(context.Background(), "editor ready", "doc", docID)
	})
	ev.OnError(func(docID, msg string) {
		s.mu.Lock()
		s.err = msg
		s.mu.Unlock()
	})
	ev.OnDocumentChanged(func(docID string) {
		s.mu.Lock()
		for i := range s.docs {
			if s.docs[i].ID == docID {
				s.docs[i].ModifiedAt = time.Now()
				break
			}
		}
		s.mu.Unlock()
	})
}

// Documents returns a copy of the document list.
func (s *DocsStore) Documents() []model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Loading reports whether a fetch is in flight.
func (s *DocsStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the scoped error message, or "".
func (s *DocsStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearErr dismisses the scoped error banner.
func (s *DocsStore) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

func (s *DocsStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}
