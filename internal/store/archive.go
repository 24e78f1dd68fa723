package store

import (
	"time"

	"github.com/PepaPanda/uu-backend-project/internal/models"
)

// NextArchivedAt derives archived_at from the stored status and the requested
// one: active->archived stamps now, archived->active clears it, and any other
// combination keeps the stored value.
func NextArchivedAt(stored models.ListStatus, storedAt *time.Time, requested models.ListStatus, now time.Time) *time.Time {
	switch {
	case stored != models.ListStatusArchived && requested == models.ListStatusArchived:
		t := now
		return &t
	case stored == models.ListStatusArchived && requested == models.ListStatusActive:
		return nil
	default:
		return storedAt
	}
}
