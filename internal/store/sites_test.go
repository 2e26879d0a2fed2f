package store

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bheem-platform/workspace-cli/internal/logging"
	"github.com/bheem-platform/workspace-cli/internal/model"
)

func TestSitesTogglePublishIsNotOptimistic(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/sites", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"sites": []model.Site{{ID: "s1", Name: "blog", Published: false}},
		})
	})
	mux.HandleFunc("PATCH /api/v1/sites/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "site has no pages"})
	})

	s := NewSitesStore(newMailClient(t, mux), logging.Discard())
	ctx := context.Background()
	s.FetchSites(ctx)

	s.TogglePublish(ctx, "s1", false)

	// Rejected publish leaves the list untouched.
	sites := s.Sites()
	require.Len(t, sites, 1)
	assert.False(t, sites[0].Published)
	assert.Equal(t, "site has no pages", s.Err())
}

func TestSitesTogglePublishRefetchesOnSuccess(t *testing.T) {
	published := false
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/sites", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"sites": []model.Site{{ID: "s1", Name: "blog", Published: published}},
		})
	})
	mux.HandleFunc("PATCH /api/v1/sites/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		published = body["published"]
	})

	s := NewSitesStore(newMailClient(t, mux), logging.Discard())
	ctx := context.Background()
	s.FetchSites(ctx)

	s.TogglePublish(ctx, "s1", false)

	sites := s.Sites()
	require.Len(t, sites, 1)
	assert.True(t, sites[0].Published)
	assert.Empty(t, s.Err())
}

func TestSitesCreatePageRequiresOpenSite(t *testing.T) {
	var posts int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/sites/{id}/pages", func(w http.ResponseWriter, r *http.Request) {
		posts++
	})
	mux.HandleFunc("GET /api/v1/sites/{id}/pages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"pages": []model.SitePage{}})
	})

	s := NewSitesStore(newMailClient(t, mux), logging.Discard())
	ctx := context.Background()

	// No site is open, so this is a no-op.
	s.CreatePage(ctx, "Home", "home")
	assert.Zero(t, posts)

	s.FetchPages(ctx, "s1")
	s.CreatePage(ctx, "Home", "home")
	assert.Equal(t, 1, posts)
}

func TestSitesCreateSiteRefetches(t *testing.T) {
	var names []string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/sites", func(w http.ResponseWriter, r *http.Request) {
		sites := make([]model.Site, len(names))
		for i, n := range names {
			sites[i] = model.Site{ID: n, Name: n}
		}
		json.NewEncoder(w).Encode(map[string]any{"sites": sites})
	})
	mux.HandleFunc("POST /api/v1/sites", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "blog", body["subdomain"])
		names = append(names, body["name"])
	})

	s := NewSitesStore(newMailClient(t, mux), logging.Discard())
	s.CreateSite(context.Background(), "My Blog", "blog")

	sites := s.Sites()
	require.Len(t, sites, 1)
	assert.Equal(t, "My Blog", sites[0].Name)
}

func TestSitesFetchPagesTracksOpenSite(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/sites/{id}/pages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"pages": []model.SitePage{{ID: "p1", SiteID: r.PathValue("id"), Title: "Home", Slug: "home"}},
		})
	})

	s := NewSitesStore(newMailClient(t, mux), logging.Discard())
	s.FetchPages(context.Background(), "s1")

	pages := s.Pages()
	require.Len(t, pages, 1)
	assert.Equal(t, "s1", pages[0].SiteID)
}
