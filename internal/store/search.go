package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/bheem-platform/workspace-cli/internal/api"
	"github.com/bheem-platform/workspace-cli/internal/logging"
	"github.com/bheem-platform/workspace-cli/internal/model"
)

type searchResponse struct {
	Results []model.SearchResult `json:"results"`
	Total   int                  `json:"total"`
}

// SearchStore mirrors the results of the cross-application search
// endpoint. Unlike the other stores it pages with a page counter
// rather than skip/limit, following the backend's search contract.
type SearchStore struct {
	client   *api.Client
	log      logging.Logger
	pageSize int

	mu      sync.Mutex
	results []model.SearchResult
	query   string
	app     model.SearchApp // "" means all apps
	pageNum int
	total   int
	loading bool
	err     string
}

// NewSearchStore builds a search store. pageSize zero means 20.
func NewSearchStore(client *api.Client, log logging.Logger, pageSize int) *SearchStore {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &SearchStore{client: client, log: log, pageSize: pageSize}
}

// Search runs a fresh query, replacing any previous results.
func (s *SearchStore) Search(ctx context.Context, query string) {
	s.mu.Lock()
	s.query = query
	s.pageNum = 1
	app := s.app
	s.mu.Unlock()

	s.fetchPage(ctx, query, app, 1, false)
}

// LoadMore appends the next page of the current query.
func (s *SearchStore) LoadMore(ctx context.Context) {
	s.mu.Lock()
	if s.query == "" || len(s.results) >= s.total {
		s.mu.Unlock()
		return
	}
	s.pageNum++
	query, app, pageNum := s.query, s.app, s.pageNum
	s.mu.Unlock()

	s.fetchPage(ctx, query, app, pageNum, true)
}

// SetApp filters results to one application ("" clears the filter) and
// reruns the current query if there is one.
func (s *SearchStore) SetApp(ctx context.Context, app model.SearchApp) {
	s.mu.Lock()
	s.app = app
	query := s.query
	s.mu.Unlock()

	if query != "" {
		s.Search(ctx, query)
	}
}

// Clear drops the query and results, e.g. when leaving the search view.
func (s *SearchStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = ""
	s.results = nil
	s.pageNum = 0
	s.total = 0
	s.err = ""
}

func (s *SearchStore) fetchPage(ctx context.Context, query string, app model.SearchApp, pageNum int, appendTo bool) {
	s.begin()

	var resp searchResponse
	err := s.client.Get(ctx, "/api/v1/search"+api.Query(map[string]string{
		"q":         query,
		"app":       string(app),
		"page":      fmt.Sprintf("%d", pageNum),
		"page_size": fmt.Sprintf("%d", s.pageSize),
	}), &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = api.UserMessage(err)
		return
	}
	if appendTo {
		s.results = append(s.results, resp.Results...)
	} else {
		s.results = resp.Results
	}
	s.total = resp.Total
}

// Results returns a copy of the current result list.
func (s *SearchStore) Results() []model.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SearchResult, len(s.results))
	copy(out, s.results)
	return out
}

// Query returns the active query string.
func (s *SearchStore) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// HasMore reports whether another page of results exists.
func (s *SearchStore) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results) < s.total
}

// Loading reports whether a fetch is in flight.
func (s *SearchStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the scoped error message, or "".
func (s *SearchStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearErr dismisses the scoped error banner.
func (s *SearchStore) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

func (s *SearchStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}
