package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/attune-care/attune/internal/event"
	"github.com/attune-care/attune/internal/fsutil"
	"github.com/attune-care/attune/internal/media"
)

var log = event.Log

// Config wires an Extractor's collaborators.
type Config struct {
	Sampler media.FrameSampler
	Pose    media.PoseDetector
	Face    media.FaceDetector
	Audio   media.AudioDecoder

	// FS locates clip media. Defaults to the OS filesystem.
	FS fsutil.FileSystem

	// Params tunes extraction. Zero fields fall back to DefaultParams.
	Params Params
}

// Extractor converts clips into feature vectors using host-supplied
// decoders and detectors. Extract is a pure function of its inputs and
// an Extractor is safe for concurrent use.
type Extractor struct {
	sampler media.FrameSampler
	pose    media.PoseDetector
	face    media.FaceDetector
	audio   media.AudioDecoder
	fs      fsutil.FileSystem
	params  Params
}

// NewExtractor validates cfg and builds an Extractor.
func NewExtractor(cfg Config) (*Extractor, error) {
	if cfg.Sampler == nil {
		return nil, errors.New("extractor requires a frame sampler")
	}
	if cfg.Pose == nil {
		return nil, errors.New("extractor requires a pose detector")
	}
	if cfg.Face == nil {
		return nil, errors.New("extractor requires a face detector")
	}
	if cfg.Audio == nil {
		return nil, errors.New("extractor requires an audio decoder")
	}

	fs := cfg.FS
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}

	return &Extractor{
		sampler: cfg.Sampler,
		pose:    cfg.Pose,
		face:    cfg.Face,
		audio:   cfg.Audio,
		fs:      fs,
		params:  cfg.Params.withDefaults(),
	}, nil
}

// Params returns the effective extraction parameters.
func (e *Extractor) Params() Params {
	return e.params
}

// Extract computes the feature set for one clip. Pose frames, face
// frames and the audio track are analyzed concurrently and joined
// before returning. Per-frame detector misses and absent audio are
// tolerated; a missing media file or video track is fatal.
func (e *Extractor) Extract(ctx context.Context, clip media.Clip) (FeatureSet, error) {
	info, err := e.fs.Stat(clip.Path)
	if err != nil || info.Size() == 0 {
		return FeatureSet{}, &MediaNotFoundError{Path: clip.Path}
	}

	frames, err := e.sampler.SampleFrames(ctx, clip, e.params.FrameSamples)
	if err != nil {
		return FeatureSet{}, fmt.Errorf("sample frames from %s: %w", clip.Path, err)
	}

	var (
		wg       sync.WaitGroup
		set      FeatureSet
		poseN    int
		faceN    int
		audioErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		set.Pose, poseN = analyzePose(frames, e.pose)
	}()
	go func() {
		defer wg.Done()
		set.Face, faceN = analyzeFace(frames, e.face, e.params)
	}()
	go func() {
		defer wg.Done()
		set.Audio, audioErr = e.extractAudio(ctx, clip)
	}()
	wg.Wait()

	if audioErr != nil {
		return FeatureSet{}, audioErr
	}
	if err := ctx.Err(); err != nil {
		return FeatureSet{}, err
	}

	log.Debugf("extract: %s frames=%d pose=%d face=%d", clip.Path, len(frames), poseN, faceN)
	return set, nil
}

// extractAudio decodes and reduces the audio track. A clip without
// usable audio gets the neutral sub-vector instead of an error.
func (e *Extractor) extractAudio(ctx context.Context, clip media.Clip) (AudioFeatures, error) {
	samples, rate, err := e.audio.DecodeSamples(ctx, clip)
	switch {
	case errors.Is(err, media.ErrNoAudioTrack), errors.Is(err, media.ErrNoAudioData):
		log.Debugf("extract: %s has no usable audio, using neutral audio features", clip.Path)
		return AudioFeatures{}, nil
	case err != nil:
		return AudioFeatures{}, fmt.Errorf("decode audio from %s: %w", clip.Path, err)
	}
	return analyzeAudio(samples, rate, e.params), nil
}
