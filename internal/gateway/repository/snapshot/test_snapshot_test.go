package snapshot

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linecount/internal/linecount"
)

func sampleSnapshot(capturedAt time.Time) Snapshot {
	ref := linecount.RepoRef{Owner: "octo", Name: "demo", Ref: "master"}
	report := linecount.Assemble(map[linecount.Category]int{linecount.JavaScript: 12},
		linecount.Statistics{FilesProcessed: 1}, ref, capturedAt)
	return New(ref, report, capturedAt)
}

func TestSnapshot_Freshness(t *testing.T) {
	now := time.Now()
	snap := sampleSnapshot(now.Add(-30 * time.Minute))

	assert.Equal(t, "octo/demo@master", snap.Key)
	assert.InDelta(t, float64(30*time.Minute), float64(snap.Age(now)), float64(time.Second))
	assert.True(t, snap.Fresh(now, time.Hour))
	assert.False(t, snap.Fresh(now, 10*time.Minute))
	assert.False(t, Snapshot{}.Fresh(now, time.Hour))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validate(sampleSnapshot(time.Now())))
	assert.Error(t, validate(Snapshot{Key: " ", Report: &linecount.Report{}}))
	assert.Error(t, validate(Snapshot{Key: "k"}))
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "snapshots/octo/demo@master.json", objectKey(" /octo/demo@master "))
}

func TestNewS3Store_RequiresConfig(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	assert.Error(t, err)
	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"})
	assert.Error(t, err)
}

// Runs only against a real database: LINECOUNT_TEST_PG_DSN=postgres://...
func TestPostgresStore_RoundTrip(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("LINECOUNT_TEST_PG_DSN"))
	if dsn == "" {
		t.Skip("LINECOUNT_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	store, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()

	snap := sampleSnapshot(time.Now().UTC().Truncate(time.Millisecond))
	require.NoError(t, store.Put(ctx, snap))

	got, err := store.Get(ctx, snap.Key)
	require.NoError(t, err)
	assert.Equal(t, snap.Report.Total, got.Report.Total)
	assert.True(t, snap.CapturedAt.Equal(got.CapturedAt))

	_, err = store.Get(ctx, "missing/repo@none")
	assert.ErrorIs(t, err, ErrNotFound)
}
