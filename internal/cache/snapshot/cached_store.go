package snapshot

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	snapshotrepo "linecount/internal/gateway/repository/snapshot"
)

type Store = snapshotrepo.Store

type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:        5 * time.Minute,
		MaxEntries: 64,
	}
}

type MetricsSnapshot struct {
	Hits           uint64 `json:"hits"`
	Misses         uint64 `json:"misses"`
	OriginReads    uint64 `json:"origin_reads"`
	OriginWrites   uint64 `json:"origin_writes"`
	OriginReadErr  uint64 `json:"origin_read_errors"`
	OriginWriteErr uint64 `json:"origin_write_errors"`
}

type Metrics struct {
	hits           atomic.Uint64
	misses         atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		Hits:           m.hits.Load(),
		Misses:         m.misses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore fronts a slower origin store with an in-memory LRU. Writes go
// through to the origin first and only populate the cache on success.
type CachedStore struct {
	origin  Store
	cache   *expirable.LRU[string, Snapshot]
	metrics Metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	return &CachedStore{
		origin: origin,
		cache:  expirable.NewLRU[string, Snapshot](cfg.MaxEntries, nil, cfg.TTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, snap Snapshot) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, snap); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	s.cache.Add(strings.TrimSpace(snap.Key), snap)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, key string) (Snapshot, error) {
	key = strings.TrimSpace(key)
	if snap, ok := s.cache.Get(key); ok {
		s.metrics.hits.Add(1)
		return snap, nil
	}
	s.metrics.misses.Add(1)
	s.metrics.originReads.Add(1)

	snap, err := s.origin.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, snapshotrepo.ErrNotFound) {
			s.metrics.originReadErr.Add(1)
		}
		return Snapshot{}, err
	}
	s.cache.Add(key, snap)
	return snap, nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}
