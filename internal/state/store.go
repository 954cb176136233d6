// Package state persists pipeline run history and quality reports in SQLite.
// Core types live in pkg/core; SQLiteStore implements core.Store.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leapclean/pkg/core"
)

var _ core.Store = (*SQLiteStore)(nil)

// ErrNotOpened is returned by store operations before Open succeeds.
var ErrNotOpened = errors.New("database not opened")

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// ctx returns a background context for database operations.
func ctx() context.Context {
	return context.Background()
}

// Timestamps are stored as fixed-width RFC 3339 text in UTC so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
