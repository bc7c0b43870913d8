// Package corpus manages each child's set of labeled training clips:
// adding and removing recordings, relocating media into per-child
// storage, readiness checks against the per-state minimums, and orphan
// and age-based cleanup.
package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/google/uuid"

	"github.com/attune-care/attune/internal/arousal"
	"github.com/attune-care/attune/internal/event"
	"github.com/attune-care/attune/internal/fsutil"
	"github.com/attune-care/attune/internal/security"
	"github.com/attune-care/attune/internal/timeutil"
)

var log = event.Log

// Corpus thresholds. Training requires MinClipsPerState of every state;
// with the five-state label space that implies MinTotalClips overall.
// RecommendedPerState only drives the recording progress metric.
const (
	MinClipsPerState    = 5
	MinTotalClips       = 25
	RecommendedPerState = 10
)

// ErrEmptyMedia reports a source recording that is missing or zero
// bytes. Checked before any media is copied.
var ErrEmptyMedia = errors.New("media file missing or empty")

// Config wires a Manager's storage and clock.
type Config struct {
	// DB is the open metadata database.
	DB *sql.DB

	// DataDir roots per-child media storage.
	DataDir string

	// FS stores clip media. Defaults to the OS filesystem.
	FS fsutil.FileSystem

	// Clock stamps clips and corpus updates. Defaults to the real clock.
	Clock timeutil.Clock
}

// Manager owns per-child clip sets. Mutations for one child are
// serialized through a per-child lock; different children may mutate
// concurrently.
type Manager struct {
	store   *Store
	fs      fsutil.FileSystem
	clock   timeutil.Clock
	dataDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager validates cfg and builds a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.DB == nil {
		return nil, errors.New("corpus manager requires a database")
	}
	if cfg.DataDir == "" {
		return nil, errors.New("corpus manager requires a data directory")
	}
	fs := cfg.FS
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Manager{
		store:   NewStore(cfg.DB),
		fs:      fs,
		clock:   clock,
		dataDir: cfg.DataDir,
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// AddClip validates and copies a recording into per-child storage and
// appends it to the child's corpus. The source must exist and be
// non-empty; the copy is removed again if the metadata insert fails.
func (m *Manager) AddClip(ctx context.Context, childID string, state arousal.State, srcPath string, durationSeconds float64) (*Clip, error) {
	if err := security.ValidateIdentifier(childID); err != nil {
		return nil, fmt.Errorf("invalid child ID: %w", err)
	}
	if !state.Valid() {
		return nil, fmt.Errorf("unknown arousal state %q", state)
	}

	info, err := m.fs.Stat(srcPath)
	if err != nil || info.Size() == 0 {
		return nil, fmt.Errorf("%s: %w", srcPath, ErrEmptyMedia)
	}

	unlock := m.lockChild(childID)
	defer unlock()

	dir, err := m.mediaDir(childID)
	if err != nil {
		return nil, err
	}
	if err := m.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory %s: %w", dir, err)
	}

	id := uuid.New().String()
	dst := filepath.Join(dir, id+filepath.Ext(srcPath))
	size, err := fsutil.Copy(m.fs, srcPath, dst)
	if err != nil {
		return nil, fmt.Errorf("relocating media: %w", err)
	}

	clip := &Clip{
		ID:              id,
		ChildID:         childID,
		State:           state,
		MediaPath:       dst,
		DurationSeconds: durationSeconds,
		SizeBytes:       size,
		RecordedAt:      m.clock.Now(),
	}
	if err := m.store.Insert(ctx, clip); err != nil {
		if rmErr := m.fs.Remove(dst); rmErr != nil {
			log.Warnf("corpus: could not remove media for failed insert: %v", rmErr)
		}
		return nil, err
	}
	m.touch(ctx, childID)

	log.Infof("corpus: added %s clip %s for child %s (%s)",
		state, id, childID, humanize.Bytes(uint64(size)))
	if plan, err := m.Plan(ctx, childID); err == nil {
		log.Debugf("corpus: child %s at %.0f%% of recommended clips", childID, plan.Progress*100)
	}
	return clip, nil
}

// RemoveClip deletes one clip and its media. The media delete is
// best-effort: a missing file never fails the logical removal.
func (m *Manager) RemoveClip(ctx context.Context, clipID string) error {
	clip, err := m.store.Get(ctx, clipID)
	if err != nil {
		return err
	}

	unlock := m.lockChild(clip.ChildID)
	defer unlock()

	if err := m.store.Delete(ctx, clipID); err != nil {
		return err
	}
	m.removeMedia(clip.MediaPath)
	m.touch(ctx, clip.ChildID)

	log.Infof("corpus: removed %s clip %s for child %s", clip.State, clipID, clip.ChildID)
	return nil
}

// ClearAll removes every clip for a child. Media deletes are
// best-effort.
func (m *Manager) ClearAll(ctx context.Context, childID string) error {
	unlock := m.lockChild(childID)
	defer unlock()

	clips, err := m.store.ListByChild(ctx, childID)
	if err != nil {
		return err
	}
	if _, err := m.store.DeleteByChild(ctx, childID); err != nil {
		return err
	}
	for _, clip := range clips {
		m.removeMedia(clip.MediaPath)
	}
	m.touch(ctx, childID)

	log.Infof("corpus: cleared %s for child %s",
		english.Plural(len(clips), "clip", "clips"), childID)
	return nil
}

// CleanupOrphaned removes clips whose media no longer exists on disk.
// Running it again with no further filesystem changes removes nothing.
func (m *Manager) CleanupOrphaned(ctx context.Context, childID string) (int, error) {
	unlock := m.lockChild(childID)
	defer unlock()

	clips, err := m.store.ListByChild(ctx, childID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, clip := range clips {
		if m.fs.Exists(clip.MediaPath) {
			continue
		}
		if err := m.store.Delete(ctx, clip.ID); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		m.touch(ctx, childID)
		log.Infof("corpus: purged %s for child %s",
			english.Plural(removed, "orphaned clip", "orphaned clips"), childID)
	}
	return removed, nil
}

// CleanupAged removes clips recorded before now-maxAge, deleting their
// media best-effort.
func (m *Manager) CleanupAged(ctx context.Context, childID string, maxAge time.Duration) (int, error) {
	unlock := m.lockChild(childID)
	defer unlock()

	cutoff := m.clock.Now().Add(-maxAge)
	clips, err := m.store.ListByChild(ctx, childID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, clip := range clips {
		if !clip.RecordedAt.Before(cutoff) {
			continue
		}
		if err := m.store.Delete(ctx, clip.ID); err != nil {
			return removed, err
		}
		m.removeMedia(clip.MediaPath)
		removed++
	}
	if removed > 0 {
		m.touch(ctx, childID)
		log.Infof("corpus: expired %s for child %s",
			english.Plural(removed, "clip", "clips"), childID)
	}
	return removed, nil
}

// DeleteChild removes a child's entire corpus: every clip row, the
// media directory, and the corpus bookkeeping row. Called when the host
// deletes the child's profile.
func (m *Manager) DeleteChild(ctx context.Context, childID string) error {
	unlock := m.lockChild(childID)
	defer unlock()

	n, err := m.store.DeleteByChild(ctx, childID)
	if err != nil {
		return err
	}
	if dir, err := m.mediaDir(childID); err == nil {
		if err := m.fs.RemoveAll(dir); err != nil {
			log.Warnf("corpus: best-effort media dir delete failed: %v", err)
		}
	}
	if err := m.store.DeleteCorpus(ctx, childID); err != nil {
		return err
	}

	log.Infof("corpus: deleted child %s (%s)", childID, english.Plural(n, "clip", "clips"))
	return nil
}

// Plan summarizes a child's recording progress: per-state counts, what
// is still missing for training, which state to record next, and
// overall readiness.
type Plan struct {
	ChildID     string                `json:"child_id"`
	Total       int                   `json:"total"`
	Counts      map[arousal.State]int `json:"counts"`
	Missing     map[arousal.State]int `json:"missing"`
	NextState   arousal.State         `json:"next_state"`
	Ready       bool                  `json:"ready"`
	Progress    float64               `json:"progress"`
	LastUpdated time.Time             `json:"last_updated"`
}

// Plan computes the child's training plan from current counts.
func (m *Manager) Plan(ctx context.Context, childID string) (*Plan, error) {
	counts, err := m.store.CountsByChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	lastUpdated, err := m.store.LastUpdated(ctx, childID)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		ChildID:     childID,
		Counts:      counts,
		Missing:     make(map[arousal.State]int, arousal.Count()),
		Ready:       true,
		LastUpdated: lastUpdated,
	}

	capped := 0
	fewest := -1
	for _, state := range arousal.States() {
		n := counts[state]
		plan.Total += n

		missing := MinClipsPerState - n
		if missing < 0 {
			missing = 0
		}
		plan.Missing[state] = missing
		if missing > 0 {
			plan.Ready = false
		}

		// Fewest clips wins NextState; ties keep enum order.
		if fewest == -1 || n < fewest {
			fewest = n
			plan.NextState = state
		}

		if n > RecommendedPerState {
			n = RecommendedPerState
		}
		capped += n
	}
	plan.Progress = float64(capped) / float64(RecommendedPerState*arousal.Count())
	return plan, nil
}

// IsReadyToTrain reports whether every state has at least
// MinClipsPerState clips.
func (m *Manager) IsReadyToTrain(ctx context.Context, childID string) (bool, error) {
	plan, err := m.Plan(ctx, childID)
	if err != nil {
		return false, err
	}
	return plan.Ready, nil
}

// MissingCounts returns how many clips each state still needs to reach
// the training minimum.
func (m *Manager) MissingCounts(ctx context.Context, childID string) (map[arousal.State]int, error) {
	plan, err := m.Plan(ctx, childID)
	if err != nil {
		return nil, err
	}
	return plan.Missing, nil
}

// NextStateToRecord returns the state with the fewest clips, ties
// resolved in enum order.
func (m *Manager) NextStateToRecord(ctx context.Context, childID string) (arousal.State, error) {
	plan, err := m.Plan(ctx, childID)
	if err != nil {
		return "", err
	}
	return plan.NextState, nil
}

// Progress returns recording progress in [0,1] against the recommended
// per-state target. Guidance only; readiness gates training.
func (m *Manager) Progress(ctx context.Context, childID string) (float64, error) {
	plan, err := m.Plan(ctx, childID)
	if err != nil {
		return 0, err
	}
	return plan.Progress, nil
}

// Clips returns the child's clips ordered by recording time.
func (m *Manager) Clips(ctx context.Context, childID string) ([]Clip, error) {
	return m.store.ListByChild(ctx, childID)
}

// StorageUsed returns the bytes of stored media for a child, from the
// sizes captured at add time.
func (m *Manager) StorageUsed(ctx context.Context, childID string) (int64, error) {
	return m.store.StorageUsedByChild(ctx, childID)
}

// lockChild serializes mutations for one child.
func (m *Manager) lockChild(childID string) func() {
	m.mu.Lock()
	lock, ok := m.locks[childID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[childID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// mediaDir returns the per-child media directory, guarding against
// identifiers that would escape the data directory.
func (m *Manager) mediaDir(childID string) (string, error) {
	return security.SafeJoin(m.dataDir, "media", childID)
}

// touch bumps corpora.last_updated; bookkeeping only, so failures are
// logged and swallowed.
func (m *Manager) touch(ctx context.Context, childID string) {
	if err := m.store.Touch(ctx, childID, m.clock.Now()); err != nil {
		log.Warnf("corpus: %v", err)
	}
}

// removeMedia deletes a clip's media best-effort: failures are logged
// and never fail the logical removal.
func (m *Manager) removeMedia(path string) {
	if err := m.fs.Remove(path); err != nil {
		log.Warnf("corpus: best-effort media delete failed: %v", err)
	}
}
