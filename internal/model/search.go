package model

import "time"

// SearchApp identifies which application a search result came from.
type SearchApp string

const (
	SearchAppMail  SearchApp = "mail"
	SearchAppDrive SearchApp = "drive"
	SearchAppDocs  SearchApp = "docs"
	SearchAppSites SearchApp = "sites"
)

// SearchResult is one hit from the cross-application search endpoint.
type SearchResult struct {
	ID         string    `json:"id"`
	App        SearchApp `json:"app"`
	Title      string    `json:"title"`
	Snippet    string    `json:"snippet"`
	URL        string    `json:"url"`
	ModifiedAt time.Time `json:"modified_at"`
}
