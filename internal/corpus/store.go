package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/attune-care/attune/internal/arousal"
	"github.com/attune-care/attune/internal/db"
)

// Clip is one labeled training recording. Media lives on the filesystem
// at MediaPath; the row records SizeBytes at add time so storage
// accounting never re-stats files.
type Clip struct {
	ID              string        `json:"id"`
	ChildID         string        `json:"child_id"`
	State           arousal.State `json:"state"`
	MediaPath       string        `json:"media_path"`
	DurationSeconds float64       `json:"duration_seconds"`
	SizeBytes       int64         `json:"size_bytes"`
	RecordedAt      time.Time     `json:"recorded_at"`
}

// Store persists clip rows and per-child corpus bookkeeping in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over an open database.
func NewStore(sqlDB *sql.DB) *Store {
	return &Store{db: sqlDB}
}

const clipColumns = `id, child_id, state, media_path, duration_secs, size_bytes, recorded_at`

// Insert persists a new clip. An empty ID is assigned a fresh UUID.
func (s *Store) Insert(ctx context.Context, clip *Clip) error {
	if clip.ID == "" {
		clip.ID = uuid.New().String()
	}
	err := db.RetryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO training_clips (`+clipColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			clip.ID, clip.ChildID, string(clip.State), clip.MediaPath,
			clip.DurationSeconds, clip.SizeBytes,
			clip.RecordedAt.UTC().Format(time.RFC3339Nano),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting clip %s: %w", clip.ID, err)
	}
	return nil
}

// Get returns a single clip by ID.
func (s *Store) Get(ctx context.Context, clipID string) (*Clip, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+clipColumns+`
		FROM training_clips
		WHERE id = ?`, clipID)

	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("clip %s not found", clipID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading clip %s: %w", clipID, err)
	}
	return clip, nil
}

// Delete removes a clip row. Deleting an absent clip is an error so
// callers can distinguish repeat removals.
func (s *Store) Delete(ctx context.Context, clipID string) error {
	return db.RetryOnBusy(func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM training_clips WHERE id = ?`, clipID)
		if err != nil {
			return fmt.Errorf("deleting clip %s: %w", clipID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("clip %s not found", clipID)
		}
		return nil
	})
}

// ListByChild returns a child's clips ordered by recording time, then ID.
func (s *Store) ListByChild(ctx context.Context, childID string) ([]Clip, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+clipColumns+`
		FROM training_clips
		WHERE child_id = ?
		ORDER BY recorded_at, id`, childID)
	if err != nil {
		return nil, fmt.Errorf("listing clips for child %s: %w", childID, err)
	}
	defer rows.Close()

	var clips []Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning clip row: %w", err)
		}
		clips = append(clips, *clip)
	}
	return clips, rows.Err()
}

// CountsByChild returns the clip count per state for a child. Every
// known state is present in the result, zero when unrecorded, so
// callers can iterate the full label space.
func (s *Store) CountsByChild(ctx context.Context, childID string) (map[arousal.State]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, COUNT(*)
		FROM training_clips
		WHERE child_id = ?
		GROUP BY state`, childID)
	if err != nil {
		return nil, fmt.Errorf("counting clips for child %s: %w", childID, err)
	}
	defer rows.Close()

	counts := make(map[arousal.State]int, arousal.Count())
	for _, state := range arousal.States() {
		counts[state] = 0
	}
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		counts[arousal.State(state)] = n
	}
	return counts, rows.Err()
}

// StorageUsedByChild sums the recorded media sizes for a child.
func (s *Store) StorageUsedByChild(ctx context.Context, childID string) (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(size_bytes) FROM training_clips WHERE child_id = ?`, childID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing media storage for child %s: %w", childID, err)
	}
	return total.Int64, nil
}

// DeleteByChild removes all of a child's clip rows and returns how many
// were deleted.
func (s *Store) DeleteByChild(ctx context.Context, childID string) (int, error) {
	var affected int64
	err := db.RetryOnBusy(func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM training_clips WHERE child_id = ?`, childID)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clearing clips for child %s: %w", childID, err)
	}
	return int(affected), nil
}

// Touch upserts the child's corpus row with a new last_updated time.
func (s *Store) Touch(ctx context.Context, childID string, at time.Time) error {
	err := db.RetryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO corpora (child_id, last_updated) VALUES (?, ?)
			ON CONFLICT(child_id) DO UPDATE SET last_updated = excluded.last_updated`,
			childID, at.UTC().Format(time.RFC3339Nano))
		return err
	})
	if err != nil {
		return fmt.Errorf("updating corpus for child %s: %w", childID, err)
	}
	return nil
}

// LastUpdated returns the corpus timestamp, or the zero time when the
// child has no corpus row yet.
func (s *Store) LastUpdated(ctx context.Context, childID string) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_updated FROM corpora WHERE child_id = ?`, childID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading corpus for child %s: %w", childID, err)
	}
	return parseTime(raw)
}

// DeleteCorpus removes the per-child corpus row. Absent rows are not an
// error; profile deletion calls this unconditionally.
func (s *Store) DeleteCorpus(ctx context.Context, childID string) error {
	err := db.RetryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM corpora WHERE child_id = ?`, childID)
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting corpus for child %s: %w", childID, err)
	}
	return nil
}

// scanClip reads one clip row; works for both sql.Row and sql.Rows.
func scanClip(row interface{ Scan(dest ...any) error }) (*Clip, error) {
	var (
		clip       Clip
		state      string
		recordedAt string
	)
	err := row.Scan(&clip.ID, &clip.ChildID, &state, &clip.MediaPath,
		&clip.DurationSeconds, &clip.SizeBytes, &recordedAt)
	if err != nil {
		return nil, err
	}
	clip.State = arousal.State(state)
	clip.RecordedAt, err = parseTime(recordedAt)
	if err != nil {
		return nil, err
	}
	return &clip, nil
}

func parseTime(raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", raw, err)
	}
	return ts, nil
}
