package snapshot

import (
	"context"
	"errors"
	"strings"
	"time"

	"linecount/internal/linecount"
)

// Snapshot is the last computed report of a repository ref together with
// the time it was captured.
type Snapshot struct {
	Key        string            `json:"key"`
	Report     *linecount.Report `json:"report"`
	CapturedAt time.Time         `json:"captured_at"`
}

// New captures report under the key of ref.
func New(ref linecount.RepoRef, report *linecount.Report, capturedAt time.Time) Snapshot {
	return Snapshot{Key: ref.Key(), Report: report, CapturedAt: capturedAt}
}

// Age is the time elapsed since capture.
func (s Snapshot) Age(now time.Time) time.Duration {
	if s.CapturedAt.IsZero() {
		return 0
	}
	return now.Sub(s.CapturedAt)
}

// Fresh reports whether the snapshot is younger than window.
func (s Snapshot) Fresh(now time.Time, window time.Duration) bool {
	return !s.CapturedAt.IsZero() && s.Age(now) < window
}

// Store persists snapshots keyed by repository ref.
type Store interface {
	Put(ctx context.Context, snap Snapshot) error
	Get(ctx context.Context, key string) (Snapshot, error)
}

var ErrNotFound = errors.New("snapshot not found")

func validate(snap Snapshot) error {
	if strings.TrimSpace(snap.Key) == "" {
		return errors.New("key is required")
	}
	if snap.Report == nil {
		return errors.New("report is required")
	}
	return nil
}
