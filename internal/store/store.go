// Package store contains the remote-mirrored list stores for each
// workspace application (mail, drive, docs, sites, search). Every store
// follows the same contract:
//
//   - a fetch replaces its collection from the backend and applies the
//     locally-held sort order;
//   - mutations call the write endpoint and then refetch, except
//     star/unstar which mutates the local item in place for snappier
//     feedback (and is not rolled back on failure);
//   - errors surface as a human-readable string, server detail first;
//   - there is no retry and no request sequencing. Two concurrent
//     fetches of the same store race and the last response to resolve
//     wins; the loading flag is a single shared boolean. Both are
//     long-standing properties of the web client this replaces and are
//     pinned by regression tests.
//
// Stores are injectable service objects. The app wires one instance of
// each; tests build their own against an httptest backend.
package store

// Selection is a set of item ids chosen for a bulk action. It is pure
// local state, independent of anything server-side, and is cleared on
// navigation and after bulk actions complete.
type Selection map[string]struct{}

// NewSelection returns an empty selection.
func NewSelection() Selection {
	return make(Selection)
}

// Toggle adds the id if absent, removes it if present.
func (s Selection) Toggle(id string) {
	if _, ok := s[id]; ok {
		delete(s, id)
	} else {
		s[id] = struct{}{}
	}
}

// Has reports whether id is selected.
func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the selected ids in unspecified order.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// Clear removes all ids.
func (s Selection) Clear() {
	for id := range s {
		delete(s, id)
	}
}

// page tracks skip/limit pagination for a load-more list. Whether more
// items remain is always derived from the accumulated length against
// the server-reported total, never stored.
type page struct {
	skip  int
	limit int
	total int
}

func (p page) hasMore(accumulated int) bool {
	return accumulated < p.total
}
