package corpus

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/attune-care/attune/internal/arousal"
	"github.com/attune-care/attune/internal/db"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "attune.db"))
	if err != nil {
		t.Fatalf("db.Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database.DB)
}

func testClip(childID string, state arousal.State, recordedAt time.Time) *Clip {
	return &Clip{
		ChildID:         childID,
		State:           state,
		MediaPath:       "/data/media/" + childID + "/clip.mp4",
		DurationSeconds: 12.5,
		SizeBytes:       2048,
		RecordedAt:      recordedAt,
	}
}

func TestStoreInsertGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	recordedAt := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	clip := testClip("child-1", arousal.StateElevated, recordedAt)
	if err := store.Insert(ctx, clip); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if clip.ID == "" {
		t.Fatal("Insert did not assign an ID")
	}

	got, err := store.Get(ctx, clip.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ChildID != clip.ChildID || got.State != clip.State || got.MediaPath != clip.MediaPath {
		t.Errorf("Get returned %+v, want %+v", got, clip)
	}
	if got.DurationSeconds != clip.DurationSeconds || got.SizeBytes != clip.SizeBytes {
		t.Errorf("Get returned duration=%v size=%d, want duration=%v size=%d",
			got.DurationSeconds, got.SizeBytes, clip.DurationSeconds, clip.SizeBytes)
	}
	if !got.RecordedAt.Equal(recordedAt) {
		t.Errorf("RecordedAt = %v, want %v", got.RecordedAt, recordedAt)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "no-such-clip")
	if err == nil {
		t.Fatal("Get of missing clip succeeded")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not found", err)
	}
}

func TestStoreDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	clip := testClip("child-1", arousal.StateCalm, time.Now())
	if err := store.Insert(ctx, clip); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.Delete(ctx, clip.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, clip.ID); err == nil {
		t.Error("clip still readable after Delete")
	}
	if err := store.Delete(ctx, clip.ID); err == nil {
		t.Error("second Delete of same clip succeeded")
	}
}

func TestStoreListByChildOrder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	// Insert out of chronological order.
	for i, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		clip := testClip("child-1", arousal.StateCalm, base.Add(offset))
		clip.ID = []string{"c-late", "c-early", "c-mid"}[i]
		if err := store.Insert(ctx, clip); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	// Another child's clip must not appear.
	if err := store.Insert(ctx, testClip("child-2", arousal.StateCrisis, base)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	clips, err := store.ListByChild(ctx, "child-1")
	if err != nil {
		t.Fatalf("ListByChild failed: %v", err)
	}
	if len(clips) != 3 {
		t.Fatalf("len(clips) = %d, want 3", len(clips))
	}
	for i, want := range []string{"c-early", "c-mid", "c-late"} {
		if clips[i].ID != want {
			t.Errorf("clips[%d].ID = %s, want %s", i, clips[i].ID, want)
		}
	}
}

func TestStoreCountsByChild(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, state := range []arousal.State{
		arousal.StateCalm, arousal.StateCalm, arousal.StateCalm,
		arousal.StateCrisis,
	} {
		if err := store.Insert(ctx, testClip("child-1", state, time.Now())); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	counts, err := store.CountsByChild(ctx, "child-1")
	if err != nil {
		t.Fatalf("CountsByChild failed: %v", err)
	}
	if len(counts) != arousal.Count() {
		t.Errorf("len(counts) = %d, want %d (all states present)", len(counts), arousal.Count())
	}
	want := map[arousal.State]int{
		arousal.StateShutdown:   0,
		arousal.StateCalm:       3,
		arousal.StateElevated:   0,
		arousal.StateEscalating: 0,
		arousal.StateCrisis:     1,
	}
	for state, n := range want {
		if counts[state] != n {
			t.Errorf("counts[%s] = %d, want %d", state, counts[state], n)
		}
	}
}

func TestStoreStorageUsedByChild(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	used, err := store.StorageUsedByChild(ctx, "child-1")
	if err != nil {
		t.Fatalf("StorageUsedByChild failed: %v", err)
	}
	if used != 0 {
		t.Errorf("empty corpus storage = %d, want 0", used)
	}

	for _, size := range []int64{100, 250} {
		clip := testClip("child-1", arousal.StateCalm, time.Now())
		clip.SizeBytes = size
		if err := store.Insert(ctx, clip); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	used, err = store.StorageUsedByChild(ctx, "child-1")
	if err != nil {
		t.Fatalf("StorageUsedByChild failed: %v", err)
	}
	if used != 350 {
		t.Errorf("storage = %d, want 350", used)
	}
}

func TestStoreDeleteByChild(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := store.Insert(ctx, testClip("child-1", arousal.StateCalm, time.Now())); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if err := store.Insert(ctx, testClip("child-2", arousal.StateCalm, time.Now())); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	n, err := store.DeleteByChild(ctx, "child-1")
	if err != nil {
		t.Fatalf("DeleteByChild failed: %v", err)
	}
	if n != 4 {
		t.Errorf("DeleteByChild removed %d, want 4", n)
	}

	survivors, err := store.ListByChild(ctx, "child-2")
	if err != nil {
		t.Fatalf("ListByChild failed: %v", err)
	}
	if len(survivors) != 1 {
		t.Errorf("child-2 clips = %d after child-1 delete, want 1", len(survivors))
	}
}

func TestStoreTouchAndLastUpdated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// No corpus row yet.
	ts, err := store.LastUpdated(ctx, "child-1")
	if err != nil {
		t.Fatalf("LastUpdated failed: %v", err)
	}
	if !ts.IsZero() {
		t.Errorf("LastUpdated = %v for unknown child, want zero time", ts)
	}

	first := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	if err := store.Touch(ctx, "child-1", first); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	second := first.Add(time.Hour)
	if err := store.Touch(ctx, "child-1", second); err != nil {
		t.Fatalf("second Touch failed: %v", err)
	}

	ts, err = store.LastUpdated(ctx, "child-1")
	if err != nil {
		t.Fatalf("LastUpdated failed: %v", err)
	}
	if !ts.Equal(second) {
		t.Errorf("LastUpdated = %v, want %v", ts, second)
	}

	if err := store.DeleteCorpus(ctx, "child-1"); err != nil {
		t.Fatalf("DeleteCorpus failed: %v", err)
	}
	ts, err = store.LastUpdated(ctx, "child-1")
	if err != nil {
		t.Fatalf("LastUpdated failed: %v", err)
	}
	if !ts.IsZero() {
		t.Errorf("LastUpdated = %v after DeleteCorpus, want zero time", ts)
	}
}
