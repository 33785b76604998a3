package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linecount/internal/gateway/config"
)

func TestInitSnapshotStore_Precedence(t *testing.T) {
	cfg := &config.Config{}
	stores, err := initSnapshotStore(cfg)
	require.NoError(t, err)
	assert.Equal(t, "memory", stores.label)
	assert.NoError(t, stores.Close())

	cfg.Snapshot.Dir = t.TempDir()
	stores, err = initSnapshotStore(cfg)
	require.NoError(t, err)
	assert.Equal(t, "disk", stores.label)

	cfg.Snapshot.S3 = config.S3Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "snapshots",
	}
	stores, err = initSnapshotStore(cfg)
	require.NoError(t, err)
	assert.Equal(t, "s3", stores.label)
}

func TestNewWithConfig_WithoutToken(t *testing.T) {
	cfg, err := config.LoadArgs([]string{"-port", ":0"})
	require.NoError(t, err)
	cfg.GitHub.Token = ""
	cfg.Snapshot = config.SnapshotConfig{}

	a, err := NewWithConfig(cfg)
	require.NoError(t, err)
	assert.NoError(t, a.Shutdown(context.Background()))
}
