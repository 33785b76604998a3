package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	snapshotrepo "linecount/internal/gateway/repository/snapshot"
)

// DiskStore persists one JSON file per repository ref under root.
type DiskStore struct {
	root string
	mu   sync.Mutex
}

func NewDiskStore(root string) (*DiskStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Put(_ context.Context, snap Snapshot) error {
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
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.pathFor(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *DiskStore) Get(_ context.Context, key string) (Snapshot, error) {
	if s == nil {
		return Snapshot{}, fmt.Errorf("store is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return Snapshot{}, fmt.Errorf("key is required")
	}

	s.mu.Lock()
	raw, err := os.ReadFile(s.pathFor(key))
	s.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, snapshotrepo.ErrNotFound
		}
		return Snapshot{}, err
	}
	var out Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return out, nil
}

func (s *DiskStore) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.root, hex.EncodeToString(sum[:])+".json")
}
