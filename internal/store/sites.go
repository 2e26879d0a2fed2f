package store

import (
	"context"
	"sync"

	"github.com/bheem-platform/workspace-cli/internal/api"
	"github.com/bheem-platform/workspace-cli/internal/logging"
	"github.com/bheem-platform/workspace-cli/internal/model"
)

type siteListResponse struct {
	Sites []model.Site `json:"sites"`
}

type pageListResponse struct {
	Pages []model.SitePage `json:"pages"`
}

// SitesStore mirrors the user's sites and the page list of the
// currently open site.
type SitesStore struct {
	client *api.Client
	log    logging.Logger

	mu      sync.Mutex
	sites   []model.Site
	pages   []model.SitePage
	siteID  string
	loading bool
	err     string
}

// NewSitesStore builds a sites store.
func NewSitesStore(client *api.Client, log logging.Logger) *SitesStore {
	return &SitesStore{client: client, log: log}
}

// FetchSites replaces the site list.
func (s *SitesStore) FetchSites(ctx context.Context) {
	s.begin()

	var resp siteListResponse
	err := s.client.Get(ctx, "/api/v1/sites", &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = api.UserMessage(err)
		return
	}
	s.sites = resp.Sites
}

// FetchPages opens a site and replaces its page list.
func (s *SitesStore) FetchPages(ctx context.Context, siteID string) {
	s.begin()

	s.mu.Lock()
	s.siteID = siteID
	s.mu.Unlock()

	var resp pageListResponse
	err := s.client.Get(ctx, "/api/v1/sites/"+siteID+"/pages", &resp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = api.UserMessage(err)
		return
	}
	s.pages = resp.Pages
}

// CreateSite makes a new site and refetches the site list.
func (s *SitesStore) CreateSite(ctx context.Context, name, subdomain string) {
	err := s.client.Post(ctx, "/api/v1/sites", map[string]string{
		"name":      name,
		"subdomain": subdomain,
	}, nil)
	if err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
		return
	}
	s.FetchSites(ctx)
}

// CreatePage adds a page to the open site and refetches its pages.
func (s *SitesStore) CreatePage(ctx context.Context, title, slug string) {
	s.mu.Lock()
	siteID := s.siteID
	s.mu.Unlock()
	if siteID == "" {
		return
	}

	err := s.client.Post(ctx, "/api/v1/sites/"+siteID+"/pages", map[string]string{
		"title": title,
		"slug":  slug,
	}, nil)
	if err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
		return
	}
	s.FetchPages(ctx, siteID)
}

// DeleteSite removes a site and refetches the site list.
func (s *SitesStore) DeleteSite(ctx context.Context, id string) {
	if err := s.client.Delete(ctx, "/api/v1/sites/"+id, nil); err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
		return
	}
	s.FetchSites(ctx)
}

// TogglePublish flips a site's published flag server-side and
// refetches. Publishing is not optimistic: the backend may reject it
// (e.g. missing pages), so the list only changes on confirmation.
func (s *SitesStore) TogglePublish(ctx context.Context, id string, published bool) {
	err := s.client.Patch(ctx, "/api/v1/sites/"+id, map[string]bool{
		"published": !published,
	}, nil)
	if err != nil {
		s.mu.Lock()
		s.err = api.UserMessage(err)
		s.mu.Unlock()
		return
	}
	s.FetchSites(ctx)
}

// Sites returns a copy of the site list.
func (s *SitesStore) Sites() []model.Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Site, len(s.sites))
	copy(out, s.sites)
	return out
}

// Pages returns a copy of the open site's page list.
func (s *SitesStore) Pages() []model.SitePage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SitePage, len(s.pages))
	copy(out, s.pages)
	return out
}

// Loading reports whether a fetch is in flight.
func (s *SitesStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the scoped error message, or "".
func (s *SitesStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// ClearErr dismisses the scoped error banner.
func (s *SitesStore) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

func (s *SitesStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}
