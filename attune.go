// Package attune is the on-device training core that personalizes
// arousal-state detection for one child at a time. It turns short
// labeled video clips into fixed-length statistical feature vectors,
// fits and evaluates a per-child k-nearest-neighbor classifier, and
// persists versioned models. Everything stays on the device, with no
// network surface.
//
// The host application supplies the platform media pipeline (frame
// sampling, pose and face detection, audio decoding) behind the
// collaborator interfaces and drives the library through a Service:
//
//	svc, err := attune.Open(attune.Config{
//		DataDir: "/var/lib/attune",
//		Sampler: platformSampler,
//		Pose:    platformPose,
//		Face:    platformFace,
//		Audio:   platformAudio,
//	})
//
// Clips accumulate per child until every arousal state reaches its
// minimum, then Train fits, validates and publishes a new model
// version, and Predict classifies fresh feature vectors against the
// child's active model.
package attune

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/attune-care/attune/internal/corpus"
	"github.com/attune-care/attune/internal/db"
	"github.com/attune-care/attune/internal/extract"
	"github.com/attune-care/attune/internal/fsutil"
	"github.com/attune-care/attune/internal/knn"
	"github.com/attune-care/attune/internal/modelstore"
	"github.com/attune-care/attune/internal/timeutil"
	"github.com/attune-care/attune/internal/train"
)

// Config wires a Service. DataDir and the four media collaborators are
// required; everything else has working defaults.
type Config struct {
	// DataDir roots all persistent state: the metadata database at
	// <DataDir>/attune.db, per-child clip media under media/ and model
	// blobs under models/.
	DataDir string

	// Media collaborators, supplied by the host platform.
	Sampler FrameSampler
	Pose    PoseDetector
	Face    FaceDetector
	Audio   AudioDecoder

	// FS overrides media and blob storage. Defaults to the OS
	// filesystem. The metadata database always lives on the OS
	// filesystem regardless.
	FS FileSystem

	// Clock overrides time for clip stamps, model records and
	// age-based cleanup. Defaults to the real clock.
	Clock Clock

	// Extract and Train tune the pipeline; zero fields use defaults.
	Extract ExtractParams
	Train   TrainParams
}

// Service is the host-facing facade over the training core. Construct
// one per data directory with Open and share it; all methods are safe
// for concurrent use.
type Service struct {
	db        *db.DB
	corpus    *corpus.Manager
	models    *modelstore.Store
	trainer   *train.Trainer
	extractor *extract.Extractor

	mu    sync.RWMutex
	cache map[string]*knn.Model
}

// Open prepares the data directory, opens and migrates the metadata
// database, and wires the pipeline services.
func Open(cfg Config) (*Service, error) {
	if cfg.DataDir == "" {
		return nil, errors.New("attune: Config.DataDir is required")
	}

	fs := cfg.FS
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	// The database file needs a real directory even when media storage
	// is backed by another FileSystem.
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("attune: creating data directory: %w", err)
	}
	database, err := db.Open(filepath.Join(cfg.DataDir, "attune.db"))
	if err != nil {
		return nil, fmt.Errorf("attune: %w", err)
	}

	extractor, err := extract.NewExtractor(extract.Config{
		Sampler: cfg.Sampler,
		Pose:    cfg.Pose,
		Face:    cfg.Face,
		Audio:   cfg.Audio,
		FS:      fs,
		Params:  cfg.Extract,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("attune: %w", err)
	}

	corpusMgr, err := corpus.NewManager(corpus.Config{
		DB:      database.DB,
		DataDir: cfg.DataDir,
		FS:      fs,
		Clock:   clock,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("attune: %w", err)
	}

	models, err := modelstore.NewStore(modelstore.Config{
		DB:      database.DB,
		DataDir: cfg.DataDir,
		FS:      fs,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("attune: %w", err)
	}

	trainer, err := train.NewTrainer(train.Config{
		Extractor: extractor,
		Models:    models,
		Clock:     clock,
		Params:    cfg.Train,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("attune: %w", err)
	}

	return &Service{
		db:        database,
		corpus:    corpusMgr,
		models:    models,
		trainer:   trainer,
		extractor: extractor,
		cache:     make(map[string]*knn.Model),
	}, nil
}

// Close releases the metadata database.
func (s *Service) Close() error {
	return s.db.Close()
}

// AddClip copies a labeled recording into the child's corpus.
func (s *Service) AddClip(ctx context.Context, childID string, state State, srcPath string, durationSeconds float64) (*TrainingClip, error) {
	return s.corpus.AddClip(ctx, childID, state, srcPath, durationSeconds)
}

// RemoveClip deletes one clip and its media.
func (s *Service) RemoveClip(ctx context.Context, clipID string) error {
	return s.corpus.RemoveClip(ctx, clipID)
}

// ClearClips removes every clip for a child.
func (s *Service) ClearClips(ctx context.Context, childID string) error {
	return s.corpus.ClearAll(ctx, childID)
}

// Clips returns a child's clips ordered by recording time.
func (s *Service) Clips(ctx context.Context, childID string) ([]TrainingClip, error) {
	return s.corpus.Clips(ctx, childID)
}

// IsReadyToTrain reports whether every arousal state has reached the
// per-state clip minimum.
func (s *Service) IsReadyToTrain(ctx context.Context, childID string) (bool, error) {
	return s.corpus.IsReadyToTrain(ctx, childID)
}

// TrainingPlan summarizes recording progress for the host UI: per-state
// counts, missing clips, the state to record next and readiness.
func (s *Service) TrainingPlan(ctx context.Context, childID string) (*TrainingPlan, error) {
	return s.corpus.Plan(ctx, childID)
}

// CleanupOrphaned purges clips whose media has gone missing from
// storage, returning how many were removed.
func (s *Service) CleanupOrphaned(ctx context.Context, childID string) (int, error) {
	return s.corpus.CleanupOrphaned(ctx, childID)
}

// CleanupAged removes clips recorded longer than maxAge ago, returning
// how many were removed.
func (s *Service) CleanupAged(ctx context.Context, childID string, maxAge time.Duration) (int, error) {
	return s.corpus.CleanupAged(ctx, childID, maxAge)
}

// StorageUsed reports the bytes of clip media plus model blobs stored
// for a child.
func (s *Service) StorageUsed(ctx context.Context, childID string) (int64, error) {
	clips, err := s.corpus.StorageUsed(ctx, childID)
	if err != nil {
		return 0, err
	}
	blobs, err := s.models.StorageUsedByChild(ctx, childID)
	if err != nil {
		return 0, err
	}
	return clips + blobs, nil
}

// Train fits, evaluates and publishes a new model version from the
// child's current corpus. progress may be nil. The run is
// all-or-nothing: on any error the child's previously active model
// stays in place.
func (s *Service) Train(ctx context.Context, childID string, progress ProgressFunc) (*ModelRecord, error) {
	clips, err := s.corpus.Clips(ctx, childID)
	if err != nil {
		return nil, err
	}
	rec, err := s.trainer.Train(ctx, childID, clips, progress)
	if err != nil {
		return nil, err
	}
	s.invalidate(childID)
	return rec, nil
}

// Predict classifies a feature vector with the child's active model. A
// child who has never trained gets DefaultState and no error; storage
// failures surface as errors.
func (s *Service) Predict(ctx context.Context, childID string, features []float64) (State, error) {
	model, err := s.activeModel(ctx, childID)
	if errors.Is(err, ErrNoActiveModel) {
		return DefaultState, nil
	}
	if err != nil {
		return DefaultState, err
	}
	return model.Predict(features), nil
}

// ExtractFeatures converts one clip into its feature vector, for hosts
// that feed live captures into Predict.
func (s *Service) ExtractFeatures(ctx context.Context, clip MediaClip) ([]float64, error) {
	set, err := s.extractor.Extract(ctx, clip)
	if err != nil {
		return nil, err
	}
	return set.Vector(), nil
}

// Models returns the child's model history, newest version first.
func (s *Service) Models(ctx context.Context, childID string) ([]*ModelRecord, error) {
	return s.models.ListByChild(ctx, childID)
}

// ActiveModel returns the record behind the child's active pointer, or
// ErrNoActiveModel.
func (s *Service) ActiveModel(ctx context.Context, childID string) (*ModelRecord, error) {
	return s.models.Active(ctx, childID)
}

// DeleteModels removes every trained model for a child: records, blobs
// and the active pointer. The corpus is untouched.
func (s *Service) DeleteModels(ctx context.Context, childID string) error {
	if err := s.models.DeleteChild(ctx, childID); err != nil {
		return err
	}
	s.invalidate(childID)
	return nil
}

// DeleteChild erases everything stored for a child: clips, media,
// corpus bookkeeping and models.
func (s *Service) DeleteChild(ctx context.Context, childID string) error {
	if err := s.corpus.DeleteChild(ctx, childID); err != nil {
		return err
	}
	if err := s.models.DeleteChild(ctx, childID); err != nil {
		return err
	}
	s.invalidate(childID)
	return nil
}

// activeModel returns the child's loaded model, cached per child until
// training or deletion invalidates it.
func (s *Service) activeModel(ctx context.Context, childID string) (*knn.Model, error) {
	s.mu.RLock()
	model, ok := s.cache[childID]
	s.mu.RUnlock()
	if ok {
		return model, nil
	}

	model, _, err := s.models.LoadActive(ctx, childID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[childID] = model
	s.mu.Unlock()
	return model, nil
}

func (s *Service) invalidate(childID string) {
	s.mu.Lock()
	delete(s.cache, childID)
	s.mu.Unlock()
}
