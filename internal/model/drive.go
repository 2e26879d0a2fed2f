package model

import (
	"sort"
	"strings"
	"time"
)

// DriveItem is a file or folder entry mirrored from the drive backend.
type DriveItem struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ParentID   string    `json:"parent_id"`
	IsFolder   bool      `json:"is_folder"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	ModifiedAt time.Time `json:"modified_at"`
	IsStarred  bool      `json:"is_starred"`
}

// DriveSortKey selects the field used to order drive listings.
type DriveSortKey string

const (
	DriveSortName     DriveSortKey = "name"
	DriveSortModified DriveSortKey = "modified"
	DriveSortSize     DriveSortKey = "size"
)

// SortDriveItems orders items in place by the given key. Folders always
// sort ahead of files regardless of the key or direction; the sort is
// stable so equal items keep their fetched order, in either direction.
func SortDriveItems(items []DriveItem, key DriveSortKey, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IsFolder != b.IsFolder {
			return a.IsFolder
		}

		c := compareItems(a, b, key)
		if c == 0 {
			// Never report a tie as less; reversing a tie breaks the
			// comparator contract and with it the stability guarantee.
			return false
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// compareItems orders two items by the key, falling back to the
// case-insensitive name when the key values are equal.
func compareItems(a, b DriveItem, key DriveSortKey) int {
	switch key {
	case DriveSortModified:
		if a.ModifiedAt.Before(b.ModifiedAt) {
			return -1
		}
		if b.ModifiedAt.Before(a.ModifiedAt) {
			return 1
		}
	case DriveSortSize:
		if a.Size != b.Size {
			if a.Size < b.Size {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
}
