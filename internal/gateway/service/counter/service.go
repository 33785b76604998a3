package counter

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"linecount/internal/githost"
	snapshotrepo "linecount/internal/gateway/repository/snapshot"
	"linecount/internal/linecount"
)

const (
	readmeTimeout = 10 * time.Second
	storeTimeout  = 5 * time.Second
)

var ErrTokenRequired = &linecount.Error{Kind: linecount.KindInternal, Message: "Token required"}

// Host is the part of the hosting client the service uses beyond the aggregator.
type Host interface {
	FetchReadme(ctx context.Context, ref linecount.RepoRef) (githost.Readme, error)
	LastRate() (githost.Rate, bool)
}

// Service runs aggregations, records their snapshots and notifies watchers.
type Service struct {
	agg       *linecount.Aggregator
	host      Host
	store     snapshotrepo.Store
	freshness time.Duration
	log       *log.Logger
	now       func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	latest  *snapshotrepo.Snapshot
	version uint64
	changed chan struct{}
}

func New(agg *linecount.Aggregator, host Host, store snapshotrepo.Store, freshness time.Duration, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if freshness <= 0 {
		freshness = time.Hour
	}
	return &Service{
		agg:       agg,
		host:      host,
		store:     store,
		freshness: freshness,
		log:       logger,
		now:       time.Now,
		changed:   make(chan struct{}),
	}
}

func (s *Service) Config() linecount.Config { return s.agg.Config() }

// LastRate exposes the hosting API rate-limit state, if any was observed.
func (s *Service) LastRate() (githost.Rate, bool) {
	if s.host == nil {
		return githost.Rate{}, false
	}
	return s.host.LastRate()
}

// Count runs one aggregation. Concurrent callers share a single run, which
// is not canceled when any one caller goes away.
func (s *Service) Count(ctx context.Context) (*linecount.Report, error) {
	key := s.agg.Config().Repo.Key()
	ch := s.group.DoChan(key, func() (any, error) {
		return s.run(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*linecount.Report), nil
	}
}

func (s *Service) run(ctx context.Context) (*linecount.Report, error) {
	report, err := s.agg.Run(ctx)
	if err != nil {
		return nil, err
	}
	snap := snapshotrepo.New(s.agg.Config().Repo, report, s.now())
	if s.store != nil {
		storeCtx, cancel := context.WithTimeout(ctx, storeTimeout)
		if err := s.store.Put(storeCtx, snap); err != nil {
			s.log.Printf("snapshot store: put %s failed: %v", snap.Key, err)
		}
		cancel()
	}
	s.publish(snap)
	return report, nil
}

// Warm loads the stored snapshot so watchers get it before the first run.
func (s *Service) Warm(ctx context.Context) {
	if s.store == nil {
		return
	}
	snap, err := s.store.Get(ctx, s.agg.Config().Repo.Key())
	if err != nil {
		if !errors.Is(err, snapshotrepo.ErrNotFound) {
			s.log.Printf("snapshot store: warm failed: %v", err)
		}
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		s.latest = &snap
		s.version++
	}
}

// Cached returns the newest of the stored snapshot and the one published by
// this process. The store may lag behind when a Put failed.
func (s *Service) Cached(ctx context.Context) (snapshotrepo.Snapshot, error) {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()

	if s.store != nil {
		snap, err := s.store.Get(ctx, s.agg.Config().Repo.Key())
		switch {
		case err == nil:
			if latest == nil || snap.CapturedAt.After(latest.CapturedAt) {
				return snap, nil
			}
		case !errors.Is(err, snapshotrepo.ErrNotFound):
			s.log.Printf("snapshot store: get failed: %v", err)
		}
	}
	if latest == nil {
		return snapshotrepo.Snapshot{}, snapshotrepo.ErrNotFound
	}
	return *latest, nil
}

// IsFresh reports whether snap is younger than the freshness window.
func (s *Service) IsFresh(snap snapshotrepo.Snapshot) bool {
	return snap.Fresh(s.now(), s.freshness)
}

func (s *Service) Now() time.Time { return s.now() }

// Readme fetches the README of the configured ref.
func (s *Service) Readme(ctx context.Context) (githost.Readme, error) {
	cfg := s.agg.Config()
	if !cfg.TokenConfigured() {
		return githost.Readme{}, ErrTokenRequired
	}
	ctx, cancel := context.WithTimeout(ctx, readmeTimeout)
	defer cancel()
	return s.host.FetchReadme(ctx, cfg.Repo)
}

func (s *Service) publish(snap snapshotrepo.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &snap
	s.version++
	close(s.changed)
	s.changed = make(chan struct{})
}

// Subscribe emits the latest snapshot, then every new one, until ctx is done.
func (s *Service) Subscribe(ctx context.Context) <-chan snapshotrepo.Snapshot {
	out := make(chan snapshotrepo.Snapshot, 1)
	go func() {
		defer close(out)
		var seen uint64
		for {
			s.mu.Lock()
			latest, version, ch := s.latest, s.version, s.changed
			s.mu.Unlock()

			if latest != nil && version != seen {
				seen = version
				select {
				case out <- *latest:
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-ch:
			}
		}
	}()
	return out
}
