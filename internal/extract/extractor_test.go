package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/attune-care/attune/internal/fsutil"
	"github.com/attune-care/attune/internal/media"
	"github.com/attune-care/attune/internal/testutil"
)

const testClipPath = "/data/media/child/clip.mp4"

func testConfig(fs fsutil.FileSystem) Config {
	return Config{
		Sampler: media.SyntheticSampler{},
		Pose:    media.StaticPoseDetector{Pose: media.UprightPose()},
		Face:    media.StaticFaceDetector{Face: media.NeutralFace()},
		Audio: media.StaticAudioDecoder{
			Samples:    sine(16000, 1024, 2, 0.4),
			SampleRate: 16000,
		},
		FS: fs,
	}
}

func testFS(t *testing.T) *fsutil.MemoryFileSystem {
	t.Helper()
	fs := fsutil.NewMemoryFileSystem()
	if err := fs.WriteFile(testClipPath, []byte("clip-bytes"), 0o644); err != nil {
		t.Fatalf("seeding clip media: %v", err)
	}
	return fs
}

func TestNewExtractor_RequiresCollaborators(t *testing.T) {
	fs := testFS(t)

	for _, tt := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"sampler", func(c *Config) { c.Sampler = nil }},
		{"pose detector", func(c *Config) { c.Pose = nil }},
		{"face detector", func(c *Config) { c.Face = nil }},
		{"audio decoder", func(c *Config) { c.Audio = nil }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(fs)
			tt.mutate(&cfg)
			if _, err := NewExtractor(cfg); err == nil {
				t.Errorf("expected error with nil %s", tt.name)
			}
		})
	}
}

func TestNewExtractor_DefaultsParams(t *testing.T) {
	e, err := NewExtractor(testConfig(testFS(t)))
	testutil.AssertNoError(t, err)

	if e.Params().FrameSamples != DefaultParams().FrameSamples {
		t.Errorf("FrameSamples = %d, want default %d",
			e.Params().FrameSamples, DefaultParams().FrameSamples)
	}
}

func TestExtract_FullVector(t *testing.T) {
	e, err := NewExtractor(testConfig(testFS(t)))
	testutil.AssertNoError(t, err)

	set, err := e.Extract(context.Background(), media.Clip{Path: testClipPath, DurationSeconds: 3})
	testutil.AssertNoError(t, err)

	vec := set.Vector()
	testutil.AssertVectorLen(t, vec, FeatureDim)
	testutil.AssertAllFinite(t, vec)

	if set.Pose.HeadYMean == 0 {
		t.Error("pose sub-vector should be populated")
	}
	if set.Face.EyeOpenMean == 0 {
		t.Error("face sub-vector should be populated")
	}
	if set.Audio.PitchMean == 0 {
		t.Error("audio sub-vector should be populated")
	}
}

func TestExtract_MediaMissing(t *testing.T) {
	e, err := NewExtractor(testConfig(fsutil.NewMemoryFileSystem()))
	testutil.AssertNoError(t, err)

	_, err = e.Extract(context.Background(), media.Clip{Path: "/nope.mp4", DurationSeconds: 3})
	var notFound *MediaNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected MediaNotFoundError, got %v", err)
	}
	if notFound.Path != "/nope.mp4" {
		t.Errorf("error path = %q, want /nope.mp4", notFound.Path)
	}
}

func TestExtract_MediaEmpty(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	if err := fs.WriteFile(testClipPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := NewExtractor(testConfig(fs))
	testutil.AssertNoError(t, err)

	_, err = e.Extract(context.Background(), media.Clip{Path: testClipPath, DurationSeconds: 3})
	var notFound *MediaNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected MediaNotFoundError for empty file, got %v", err)
	}
}

func TestExtract_NoVideoTrack(t *testing.T) {
	cfg := testConfig(testFS(t))
	cfg.Sampler = media.SyntheticSampler{Err: media.ErrNoVideoTrack}
	e, err := NewExtractor(cfg)
	testutil.AssertNoError(t, err)

	_, err = e.Extract(context.Background(), media.Clip{Path: testClipPath, DurationSeconds: 3})
	if !errors.Is(err, media.ErrNoVideoTrack) {
		t.Fatalf("expected ErrNoVideoTrack, got %v", err)
	}
}

func TestExtract_MissingAudioTolerated(t *testing.T) {
	for _, sentinel := range []error{media.ErrNoAudioTrack, media.ErrNoAudioData} {
		cfg := testConfig(testFS(t))
		cfg.Audio = media.StaticAudioDecoder{Err: sentinel}
		e, err := NewExtractor(cfg)
		testutil.AssertNoError(t, err)

		set, err := e.Extract(context.Background(), media.Clip{Path: testClipPath, DurationSeconds: 3})
		if err != nil {
			t.Fatalf("%v should be tolerated, got error %v", sentinel, err)
		}
		if set.Audio != (AudioFeatures{}) {
			t.Errorf("audio sub-vector should be neutral, got %+v", set.Audio)
		}
		if set.Pose.HeadYMean == 0 {
			t.Error("pose features should still extract without audio")
		}
		testutil.AssertVectorLen(t, set.Vector(), FeatureDim)
	}
}

func TestExtract_AudioDecodeFailure(t *testing.T) {
	cfg := testConfig(testFS(t))
	cfg.Audio = media.StaticAudioDecoder{Err: errors.New("codec failure")}
	e, err := NewExtractor(cfg)
	testutil.AssertNoError(t, err)

	_, err = e.Extract(context.Background(), media.Clip{Path: testClipPath, DurationSeconds: 3})
	testutil.AssertError(t, err)
}

func TestExtract_DetectorMissesTolerated(t *testing.T) {
	cfg := testConfig(testFS(t))
	cfg.Pose = media.StaticPoseDetector{Pose: media.UprightPose(), MissEvery: 3}
	cfg.Face = media.StaticFaceDetector{Face: media.NeutralFace(), MissEvery: 2}
	e, err := NewExtractor(cfg)
	testutil.AssertNoError(t, err)

	set, err := e.Extract(context.Background(), media.Clip{Path: testClipPath, DurationSeconds: 3})
	testutil.AssertNoError(t, err)
	if set.Pose.HeadYMean == 0 || set.Face.EyeOpenMean == 0 {
		t.Error("features should come from the frames that did detect")
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e, err := NewExtractor(testConfig(testFS(t)))
	testutil.AssertNoError(t, err)

	clip := media.Clip{Path: testClipPath, DurationSeconds: 3}
	a, err := e.Extract(context.Background(), clip)
	testutil.AssertNoError(t, err)
	b, err := e.Extract(context.Background(), clip)
	testutil.AssertNoError(t, err)

	av, bv := a.Vector(), b.Vector()
	for i := range av {
		if av[i] != bv[i] {
			t.Errorf("vec[%d] differs between runs: %v vs %v", i, av[i], bv[i])
		}
	}
}

func TestExtract_ContextCanceled(t *testing.T) {
	e, err := NewExtractor(testConfig(testFS(t)))
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Extract(ctx, media.Clip{Path: testClipPath, DurationSeconds: 3})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
