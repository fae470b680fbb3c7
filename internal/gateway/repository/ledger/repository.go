package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is the metadata kept for one gateway call. It never holds sources,
// compiled programs or captured output.
type Entry struct {
	ID        string
	Call      string
	Crate     string
	Success   bool
	Panicked  bool
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

// Store defines operations for recording gateway calls.
type Store interface {
	Append(ctx context.Context, e Entry) (Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

var ErrNotFound = errors.New("ledger entry not found")

const DefaultRecentLimit = 50

// normalize fills the id and timestamp and trims free text.
func normalize(e Entry) Entry {
	e.ID = strings.TrimSpace(e.ID)
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.Call = strings.TrimSpace(e.Call)
	e.Crate = strings.TrimSpace(e.Crate)
	return e
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return limit
}
