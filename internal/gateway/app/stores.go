package app

import (
	"context"
	"fmt"
	"log"
	"time"

	snapshotcache "linecount/internal/cache/snapshot"
	"linecount/internal/gateway/config"
	snapshotrepo "linecount/internal/gateway/repository/snapshot"
)

const storeOpenTimeout = 10 * time.Second

type snapshotStore struct {
	store snapshotrepo.Store
	label string
	close func() error
}

// initSnapshotStore picks the first configured origin: postgres, s3, disk,
// then memory. Remote and disk origins are fronted by an in-memory cache.
func initSnapshotStore(cfg *config.Config) (*snapshotStore, error) {
	snapCfg := cfg.Snapshot
	cacheCfg := snapshotcache.DefaultCacheConfig()

	if dsn := snapCfg.DatabaseURL; dsn != "" {
		ctx, cancel := context.WithTimeout(context.Background(), storeOpenTimeout)
		defer cancel()
		pg, err := snapshotrepo.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres snapshot store: %w", err)
		}
		log.Printf("snapshot store: postgres")
		return &snapshotStore{
			store: snapshotcache.NewCachedStore(pg, cacheCfg),
			label: "postgres",
			close: pg.Close,
		}, nil
	}

	if snapCfg.S3.CanUseS3() {
		s3Cfg := snapshotrepo.S3Config{
			Endpoint:  snapCfg.S3.Endpoint,
			Region:    snapCfg.S3.Region,
			AccessKey: snapCfg.S3.AccessKey,
			SecretKey: snapCfg.S3.SecretKey,
			Bucket:    snapCfg.S3.Bucket,
			UseSSL:    snapCfg.S3.UseSSL,
		}
		s3Store, err := snapshotrepo.NewS3Store(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot s3 store: %w", err)
		}
		log.Printf("snapshot store: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
		return &snapshotStore{
			store: snapshotcache.NewCachedStore(s3Store, cacheCfg),
			label: "s3",
		}, nil
	}

	if dir := snapCfg.Dir; dir != "" {
		disk, err := snapshotcache.NewDiskStore(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot disk store: %w", err)
		}
		log.Printf("snapshot store: disk dir=%s", dir)
		return &snapshotStore{
			store: snapshotcache.NewCachedStore(disk, cacheCfg),
			label: "disk",
		}, nil
	}

	log.Printf("snapshot store: in-memory")
	return &snapshotStore{
		store: snapshotcache.NewMemoryStore(cacheCfg.MaxEntries, 0),
		label: "memory",
	}, nil
}

func (s *snapshotStore) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}
