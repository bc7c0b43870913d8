// Package modelstore persists trained models: the versioned JSON blob
// for each run, the metadata record that describes it, and the
// per-child active-model pointer that inference reads.
package modelstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/attune-care/attune/internal/db"
	"github.com/attune-care/attune/internal/event"
	"github.com/attune-care/attune/internal/fsutil"
	"github.com/attune-care/attune/internal/knn"
	"github.com/attune-care/attune/internal/security"
)

var log = event.Log

// ErrNoActiveModel is returned when a child has no trained model yet.
// Inference treats it as the untrained case and falls back to the
// default state.
var ErrNoActiveModel = errors.New("no active model")

// Record describes one persisted model version. The active_models
// pointer, not the newest record, is the authoritative current model.
type Record struct {
	ID                string          `json:"id"`
	ChildID           string          `json:"child_id"`
	Version           int             `json:"version"`
	BlobPath          string          `json:"blob_path"`
	TrainedAt         time.Time       `json:"trained_at"`
	Accuracy          float64         `json:"accuracy"`
	TrainingClipCount int             `json:"training_clip_count"`
	SizeBytes         int64           `json:"size_bytes"`
	ParamsJSON        json.RawMessage `json:"params_json,omitempty"`
	MetricsJSON       json.RawMessage `json:"metrics_json,omitempty"`
}

// PublishMeta carries the training-run facts recorded on a published
// model.
type PublishMeta struct {
	TrainedAt         time.Time
	Accuracy          float64
	TrainingClipCount int
	ParamsJSON        json.RawMessage
	MetricsJSON       json.RawMessage
}

// Config wires a Store.
type Config struct {
	// DB is the open metadata database.
	DB *sql.DB

	// DataDir roots per-child blob storage.
	DataDir string

	// FS stores model blobs. Defaults to the OS filesystem.
	FS fsutil.FileSystem
}

// Store persists model records in SQLite and model blobs on the
// filesystem.
type Store struct {
	db      *sql.DB
	fs      fsutil.FileSystem
	dataDir string
}

// NewStore validates cfg and builds a Store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.DB == nil {
		return nil, errors.New("model store requires a database")
	}
	if cfg.DataDir == "" {
		return nil, errors.New("model store requires a data directory")
	}
	fs := cfg.FS
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	return &Store{db: cfg.DB, fs: fs, dataDir: cfg.DataDir}, nil
}

const recordColumns = `id, child_id, version, blob_path, trained_at, accuracy, training_clip_count, size_bytes, params_json, metrics_json`

// Insert persists a record. An empty ID is assigned a fresh UUID and a
// zero TrainedAt defaults to now.
func (s *Store) Insert(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.TrainedAt.IsZero() {
		rec.TrainedAt = time.Now()
	}
	params := string(rec.ParamsJSON)
	if params == "" {
		params = "{}"
	}
	metrics := string(rec.MetricsJSON)
	if metrics == "" {
		metrics = "{}"
	}

	err := db.RetryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO model_records (`+recordColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.ChildID, rec.Version, rec.BlobPath,
			rec.TrainedAt.UTC().Format(time.RFC3339Nano),
			rec.Accuracy, rec.TrainingClipCount, rec.SizeBytes, params, metrics,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting model record %s: %w", rec.ID, err)
	}
	return nil
}

// Get returns a single model record by ID.
func (s *Store) Get(ctx context.Context, recordID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM model_records
		WHERE id = ?`, recordID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("model record %s not found", recordID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading model record %s: %w", recordID, err)
	}
	return rec, nil
}

// ListByChild returns a child's model history, newest version first.
func (s *Store) ListByChild(ctx context.Context, childID string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM model_records
		WHERE child_id = ?
		ORDER BY version DESC`, childID)
	if err != nil {
		return nil, fmt.Errorf("listing models for child %s: %w", childID, err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning model record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// NextVersion returns one past the child's highest stored version.
func (s *Store) NextVersion(ctx context.Context, childID string) (int, error) {
	var latest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM model_records WHERE child_id = ?`, childID,
	).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("reading model versions for child %s: %w", childID, err)
	}
	return int(latest.Int64) + 1, nil
}

// Active returns the record the child's active pointer references, or
// ErrNoActiveModel.
func (s *Store) Active(ctx context.Context, childID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM model_records
		WHERE id = (SELECT model_id FROM active_models WHERE child_id = ?)`, childID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoActiveModel
	}
	if err != nil {
		return nil, fmt.Errorf("reading active model for child %s: %w", childID, err)
	}
	return rec, nil
}

// SetActive points the child's active model at recordID.
func (s *Store) SetActive(ctx context.Context, childID, recordID string) error {
	err := db.RetryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO active_models (child_id, model_id) VALUES (?, ?)
			ON CONFLICT(child_id) DO UPDATE SET model_id = excluded.model_id`,
			childID, recordID)
		return err
	})
	if err != nil {
		return fmt.Errorf("activating model %s for child %s: %w", recordID, childID, err)
	}
	return nil
}

// Publish persists a trained model end to end: serializes the blob to
// the next version's path, inserts the record, and repoints the child's
// active model. If the record insert fails the blob is removed so no
// partial model is left behind.
func (s *Store) Publish(ctx context.Context, childID string, model *knn.Model, meta PublishMeta) (*Record, error) {
	data, err := knn.Save(model)
	if err != nil {
		return nil, err
	}

	version, err := s.NextVersion(ctx, childID)
	if err != nil {
		return nil, err
	}
	path, err := s.blobPath(childID, version)
	if err != nil {
		return nil, err
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating model directory: %w", err)
	}
	if err := s.fs.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing model blob %s: %w", path, err)
	}

	rec := &Record{
		ChildID:           childID,
		Version:           version,
		BlobPath:          path,
		TrainedAt:         meta.TrainedAt,
		Accuracy:          meta.Accuracy,
		TrainingClipCount: meta.TrainingClipCount,
		SizeBytes:         int64(len(data)),
		ParamsJSON:        meta.ParamsJSON,
		MetricsJSON:       meta.MetricsJSON,
	}
	if err := s.Insert(ctx, rec); err != nil {
		s.removeBlob(path)
		return nil, err
	}
	if err := s.SetActive(ctx, childID, rec.ID); err != nil {
		return nil, err
	}

	log.Infof("modelstore: published v%d for child %s (%s)",
		version, childID, humanize.Bytes(uint64(rec.SizeBytes)))
	return rec, nil
}

// LoadModel reads and decodes a record's blob.
func (s *Store) LoadModel(rec *Record) (*knn.Model, error) {
	data, err := s.fs.ReadFile(rec.BlobPath)
	if err != nil {
		return nil, fmt.Errorf("reading model blob %s: %w", rec.BlobPath, err)
	}
	return knn.Load(data)
}

// LoadActive loads the child's active model and its record. Returns
// ErrNoActiveModel when the child has never trained.
func (s *Store) LoadActive(ctx context.Context, childID string) (*knn.Model, *Record, error) {
	rec, err := s.Active(ctx, childID)
	if err != nil {
		return nil, nil, err
	}
	model, err := s.LoadModel(rec)
	if err != nil {
		return nil, nil, err
	}
	return model, rec, nil
}

// Delete removes one model record and its blob, clearing the active
// pointer first if it references the record. The blob delete is
// best-effort.
func (s *Store) Delete(ctx context.Context, recordID string) error {
	rec, err := s.Get(ctx, recordID)
	if err != nil {
		return err
	}

	// The pointer row references the record, so it goes first.
	err = db.RetryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM active_models WHERE model_id = ?`, recordID)
		return err
	})
	if err != nil {
		return fmt.Errorf("clearing active pointer for model %s: %w", recordID, err)
	}
	err = db.RetryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM model_records WHERE id = ?`, recordID)
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting model record %s: %w", recordID, err)
	}
	s.removeBlob(rec.BlobPath)
	return nil
}

// DeleteChild removes every model record, the active pointer, and the
// child's blob directory. Blob deletion is best-effort.
func (s *Store) DeleteChild(ctx context.Context, childID string) error {
	err := db.RetryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM active_models WHERE child_id = ?`, childID)
		return err
	})
	if err != nil {
		return fmt.Errorf("clearing active model for child %s: %w", childID, err)
	}

	err = db.RetryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM model_records WHERE child_id = ?`, childID)
		return err
	})
	if err != nil {
		return fmt.Errorf("deleting model records for child %s: %w", childID, err)
	}

	if dir, err := security.SafeJoin(s.dataDir, "models", childID); err == nil {
		if err := s.fs.RemoveAll(dir); err != nil {
			log.Warnf("modelstore: best-effort blob dir delete failed: %v", err)
		}
	}

	log.Infof("modelstore: deleted all models for child %s", childID)
	return nil
}

// StorageUsedByChild sums the recorded blob sizes for a child.
func (s *Store) StorageUsedByChild(ctx context.Context, childID string) (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(size_bytes) FROM model_records WHERE child_id = ?`, childID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing model storage for child %s: %w", childID, err)
	}
	return total.Int64, nil
}

// blobPath returns the versioned per-child blob location, guarding
// against identifiers that would escape the data directory.
func (s *Store) blobPath(childID string, version int) (string, error) {
	return security.SafeJoin(s.dataDir, "models", childID, fmt.Sprintf("v%d.json", version))
}

// removeBlob deletes a blob file best-effort.
func (s *Store) removeBlob(path string) {
	if err := s.fs.Remove(path); err != nil {
		log.Warnf("modelstore: best-effort blob delete failed: %v", err)
	}
}

// scanRecord reads one record row; works for both sql.Row and sql.Rows.
func scanRecord(row interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec       Record
		trainedAt string
		params    string
		metrics   string
	)
	err := row.Scan(&rec.ID, &rec.ChildID, &rec.Version, &rec.BlobPath, &trainedAt,
		&rec.Accuracy, &rec.TrainingClipCount, &rec.SizeBytes, &params, &metrics)
	if err != nil {
		return nil, err
	}
	rec.TrainedAt, err = time.Parse(time.RFC3339Nano, trainedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing trained_at %q: %w", trainedAt, err)
	}
	rec.ParamsJSON = json.RawMessage(params)
	rec.MetricsJSON = json.RawMessage(metrics)
	return &rec, nil
}
