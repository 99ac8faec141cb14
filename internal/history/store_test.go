package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/structgen/internal/observability"
)

func newTestStore(t *testing.T, keep int) *Store {
	t.Helper()
	store, err := NewStore(":memory:", keep)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute)
	require.NoError(t, store.Record(ctx, Run{
		RunID:      "run-1",
		Schema:     "address.json",
		Package:    "com.example",
		Outcome:    "success",
		Workspace:  "/tmp/structgen-abc",
		DurationMS: 1200,
		StartedAt:  started,
	}))
	require.NoError(t, store.Record(ctx, Run{
		RunID:   "run-2",
		Schema:  "person.json",
		Package: "com.example",
		Outcome: "failed",
		Error:   "compilation failed",
	}))

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Most recent first.
	require.Equal(t, "run-2", runs[0].RunID)
	require.Equal(t, "failed", runs[0].Outcome)
	require.Equal(t, "compilation failed", runs[0].Error)

	require.Equal(t, "run-1", runs[1].RunID)
	require.Equal(t, started.Unix(), runs[1].StartedAt.Unix())
	require.Equal(t, int64(1200), runs[1].DurationMS)
}

func TestStore_BySchema(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Record(ctx, Run{RunID: fmt.Sprintf("a-%d", i), Schema: "a.json", Outcome: "success"}))
	}
	require.NoError(t, store.Record(ctx, Run{RunID: "b-0", Schema: "b.json", Outcome: "success"}))

	runs, err := store.BySchema(ctx, "a.json", 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for _, r := range runs {
		require.Equal(t, "a.json", r.Schema)
	}
}

func TestStore_RetentionPrunesOldest(t *testing.T) {
	store := newTestStore(t, 3)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		require.NoError(t, store.Record(ctx, Run{RunID: fmt.Sprintf("run-%d", i), Schema: "a.json", Outcome: "success"}))
	}

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	require.Equal(t, "run-5", runs[0].RunID)
	require.Equal(t, "run-3", runs[2].RunID)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := NewStore(path, 0)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, Run{RunID: "run-1", Schema: "a.json", Outcome: "success"}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	runs, err := reopened.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "run-1", runs[0].RunID)
}

func TestStore_EmitsStorageMetrics(t *testing.T) {
	store := newTestStore(t, 0)
	ctx := context.Background()

	before := observability.GetMetricsCollector().GetSnapshot()

	require.NoError(t, store.Record(ctx, Run{
		RunID:   "run-metrics",
		Schema:  "address.json",
		Package: "com.example",
		Outcome: "success",
	}))
	_, err := store.Recent(ctx, 5)
	require.NoError(t, err)
	_, err = store.BySchema(ctx, "address.json", 5)
	require.NoError(t, err)

	after := observability.GetMetricsCollector().GetSnapshot()
	require.Greater(t, after.StorageOperations["insert"], before.StorageOperations["insert"])
	require.GreaterOrEqual(t, after.StorageOperations["query"], before.StorageOperations["query"]+2)
	require.Greater(t, after.StorageSizeBytes, before.StorageSizeBytes)
}
