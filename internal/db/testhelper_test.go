package db

import (
	"testing"
)

// setupTestStore opens a private in-memory SQLite database for one test.
func setupTestStore(t *testing.T) *GormStore {
	t.Helper()
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	s := NewGormStore(d)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
