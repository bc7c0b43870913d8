package attune

import (
	"github.com/attune-care/attune/internal/arousal"
	"github.com/attune-care/attune/internal/corpus"
	"github.com/attune-care/attune/internal/event"
	"github.com/attune-care/attune/internal/extract"
	"github.com/attune-care/attune/internal/fsutil"
	"github.com/attune-care/attune/internal/knn"
	"github.com/attune-care/attune/internal/media"
	"github.com/attune-care/attune/internal/modelstore"
	"github.com/attune-care/attune/internal/timeutil"
	"github.com/attune-care/attune/internal/train"
)

// Type aliases re-export the internal packages' domain types so hosts
// program against this package alone. The implementations stay in
// internal/ where they are tested; this file is the public surface.

// Arousal states.

// State is one of the five arousal states a clip can be labeled with.
type State = arousal.State

const (
	StateShutdown   = arousal.StateShutdown
	StateCalm       = arousal.StateCalm
	StateElevated   = arousal.StateElevated
	StateEscalating = arousal.StateEscalating
	StateCrisis     = arousal.StateCrisis

	// DefaultState is what Predict returns for an untrained child.
	DefaultState = arousal.DefaultState
)

// States returns the five arousal states in enumeration order.
var States = arousal.States

// ParseState converts a raw string into a State.
var ParseState = arousal.Parse

// Corpus types.

// TrainingClip is one labeled recording in a child's corpus.
type TrainingClip = corpus.Clip

// TrainingPlan summarizes a child's recording progress and readiness.
type TrainingPlan = corpus.Plan

// Corpus thresholds.
const (
	MinClipsPerState    = corpus.MinClipsPerState
	MinTotalClips       = corpus.MinTotalClips
	RecommendedPerState = corpus.RecommendedPerState
)

// Feature extraction types.

// FeatureSet holds the pose, face and audio sub-vectors extracted from
// one clip.
type FeatureSet = extract.FeatureSet

// ExtractParams tunes feature extraction.
type ExtractParams = extract.Params

// Feature vector dimensions.
const (
	PoseDim    = extract.PoseDim
	FaceDim    = extract.FaceDim
	AudioDim   = extract.AudioDim
	FeatureDim = extract.FeatureDim
)

// DefaultExtractParams returns the standard extraction parameters.
var DefaultExtractParams = extract.DefaultParams

// FieldNames returns the feature vector's column names in order.
var FieldNames = extract.FieldNames

// Model types.

// Model is a fitted k-nearest-neighbor classifier.
type Model = knn.Model

// Example is one labeled feature vector.
type Example = knn.Example

// ModelRecord describes one persisted model version.
type ModelRecord = modelstore.Record

// Training types.

// TrainParams tunes a training run.
type TrainParams = train.Params

// TrainingProgress reports how far a training run has advanced.
type TrainingProgress = train.Progress

// ProgressFunc receives progress updates during Train.
type ProgressFunc = train.ProgressFunc

// TrainingPhase names one stage of a training run.
type TrainingPhase = train.Phase

// Training run phases, in execution order.
const (
	PhaseExtracting = train.PhaseExtracting
	PhasePreparing  = train.PhasePreparing
	PhaseTraining   = train.PhaseTraining
	PhaseEvaluating = train.PhaseEvaluating
	PhaseExporting  = train.PhaseExporting
	PhaseComplete   = train.PhaseComplete
)

// Evaluation summarizes model quality on the validation split.
type Evaluation = train.Evaluation

// StateMetrics are one state's confusion counts on the validation split.
type StateMetrics = train.StateMetrics

// DefaultTrainParams returns the standard training parameters.
var DefaultTrainParams = train.DefaultParams

// Media collaborator types, implemented by the host platform.

// MediaClip locates one recording on storage.
type MediaClip = media.Clip

// Frame is one sampled video frame.
type Frame = media.Frame

// Keypoint is a detected landmark in normalized image coordinates.
type Keypoint = media.Keypoint

// PoseKeypoints are the body landmarks detected in one frame.
type PoseKeypoints = media.PoseKeypoints

// FaceLandmarks are the facial landmarks detected in one frame.
type FaceLandmarks = media.FaceLandmarks

// FrameSampler decodes and samples frames from a clip.
type FrameSampler = media.FrameSampler

// PoseDetector detects body keypoints in a frame.
type PoseDetector = media.PoseDetector

// FaceDetector detects facial landmarks in a frame.
type FaceDetector = media.FaceDetector

// AudioDecoder decodes a clip's audio track into mono samples.
type AudioDecoder = media.AudioDecoder

// PoseDetectorFunc adapts a function into a PoseDetector.
type PoseDetectorFunc = media.PoseDetectorFunc

// FaceDetectorFunc adapts a function into a FaceDetector.
type FaceDetectorFunc = media.FaceDetectorFunc

// Infrastructure overrides.

// FileSystem abstracts media and blob storage.
type FileSystem = fsutil.FileSystem

// Clock abstracts time for clips, models and cleanup.
type Clock = timeutil.Clock

// Sentinel and typed errors surfaced by the Service.

var (
	// ErrNoActiveModel reports a child who has never trained.
	ErrNoActiveModel = modelstore.ErrNoActiveModel

	// ErrTrainingActive reports a training run already in flight.
	ErrTrainingActive = train.ErrTrainingActive

	// ErrEmptyMedia reports a missing or zero-byte source recording.
	ErrEmptyMedia = corpus.ErrEmptyMedia

	// ErrNoVideoTrack reports a clip without video.
	ErrNoVideoTrack = media.ErrNoVideoTrack

	// ErrNoAudioData reports an audio track that decoded to nothing;
	// extraction tolerates it the same way it tolerates a missing track.
	ErrNoAudioData = media.ErrNoAudioData

	// ErrNoAudioTrack reports a clip without audio; extraction
	// tolerates it with a neutral audio sub-vector.
	ErrNoAudioTrack = media.ErrNoAudioTrack
)

// InsufficientDataError reports a corpus below the overall minimum.
type InsufficientDataError = train.InsufficientDataError

// InsufficientStateDataError reports a state below its per-state
// minimum.
type InsufficientStateDataError = train.InsufficientStateDataError

// ClipExtractionError identifies the clip that failed a training run.
type ClipExtractionError = train.ClipExtractionError

// MediaNotFoundError reports clip media missing from storage.
type MediaNotFoundError = extract.MediaNotFoundError

// Logging controls for the host application.

// SetLogLevel adjusts library log verbosity (trace, debug, info, warn,
// error).
var SetLogLevel = event.SetLevel

// SetLogOutput redirects library logs.
var SetLogOutput = event.SetOutput

// Synthetic collaborators for host prototyping and tests.

// SyntheticSampler emits evenly spaced pixel-less frames.
type SyntheticSampler = media.SyntheticSampler

// StaticPoseDetector returns a fixed pose for every frame.
type StaticPoseDetector = media.StaticPoseDetector

// StaticFaceDetector returns fixed landmarks for every frame.
type StaticFaceDetector = media.StaticFaceDetector

// StaticAudioDecoder returns a fixed sample buffer for every clip.
type StaticAudioDecoder = media.StaticAudioDecoder

// UprightPose returns a plausible standing pose baseline.
var UprightPose = media.UprightPose

// NeutralFace returns relaxed facial landmarks.
var NeutralFace = media.NeutralFace
