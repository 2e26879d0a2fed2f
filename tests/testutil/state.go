package testutil

import (
	"testing"

	"github.com/bheem-platform/workspace-cli/internal/localstate"
)

// NewTestState creates an in-memory local state store with all
// migrations applied. It automatically closes the store when the test
// completes.
func NewTestState(t *testing.T) *localstate.Store {
	t.Helper()

	s, err := localstate.Open(":memory:")
	if err != nil {
		t.Fatalf("creating test state store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test state store: %v", err)
		}
	})

	return s
}
