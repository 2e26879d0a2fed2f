package model

import "time"

// Site is a published or draft website owned by the current user.
type Site struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subdomain string    `json:"subdomain"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SitePage is a single page within a site.
type SitePage struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"site_id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updated_at"`
}
