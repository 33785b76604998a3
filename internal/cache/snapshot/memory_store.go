package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	snapshotrepo "linecount/internal/gateway/repository/snapshot"
)

type Snapshot = snapshotrepo.Snapshot

// MemoryStore keeps snapshots in process memory. A zero retention keeps
// entries until they are evicted by size.
type MemoryStore struct {
	lru *expirable.LRU[string, Snapshot]
}

func NewMemoryStore(maxEntries int, retention time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &MemoryStore{lru: expirable.NewLRU[string, Snapshot](maxEntries, nil, retention)}
}

func (s *MemoryStore) Put(_ context.Context, snap Snapshot) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	key := strings.TrimSpace(snap.Key)
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if snap.Report == nil {
		return fmt.Errorf("report is required")
	}
	snap.Key = key
	s.lru.Add(key, snap)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (Snapshot, error) {
	if s == nil {
		return Snapshot{}, fmt.Errorf("store is nil")
	}
	snap, ok := s.lru.Get(strings.TrimSpace(key))
	if !ok {
		return Snapshot{}, snapshotrepo.ErrNotFound
	}
	return snap, nil
}
