package extract

import (
	"math"
	"testing"

	"github.com/attune-care/attune/internal/media"
)

func TestComputePoseSignals_Upright(t *testing.T) {
	sig := computePoseSignals(media.UprightPose())

	if math.Abs(sig.headY-0.15) > 1e-9 {
		t.Errorf("headY = %v, want 0.15", sig.headY)
	}
	if math.Abs(sig.torsoY-0.58) > 1e-9 {
		t.Errorf("torsoY = %v, want 0.58", sig.torsoY)
	}
	if math.Abs(sig.armsY-0.55) > 1e-9 {
		t.Errorf("armsY = %v, want 0.55", sig.armsY)
	}
	if math.Abs(sig.legsY-0.92) > 1e-9 {
		t.Errorf("legsY = %v, want 0.92", sig.legsY)
	}
	if math.Abs(sig.openness-0.30) > 1e-9 {
		t.Errorf("openness = %v, want 0.30", sig.openness)
	}
	// Head and torso center share x=0.5, so velocity is the vertical gap.
	if math.Abs(sig.velocity-0.43) > 1e-9 {
		t.Errorf("velocity = %v, want 0.43", sig.velocity)
	}
	// Neck and torso center are vertically aligned: no tilt.
	if sig.posture != 0 {
		t.Errorf("posture = %v, want 0", sig.posture)
	}
}

func TestComputePoseSignals_Tilt(t *testing.T) {
	pose := media.UprightPose()
	pose.LeftHip.X += 0.2
	pose.RightHip.X += 0.2

	sig := computePoseSignals(pose)
	if sig.posture <= 0 {
		t.Errorf("posture = %v, want > 0 for a tilted torso", sig.posture)
	}
	if sig.posture >= math.Pi/2 {
		t.Errorf("posture = %v, want < pi/2", sig.posture)
	}
}

func TestAnalyzePose_StaticPose(t *testing.T) {
	frames := make([]media.Frame, 10)
	for i := range frames {
		frames[i].Index = i
	}
	det := media.StaticPoseDetector{Pose: media.UprightPose()}

	feat, detected := analyzePose(frames, det)
	if detected != 10 {
		t.Fatalf("detected = %d, want 10", detected)
	}
	if feat.HeadYStd != 0 || feat.VelocityStd != 0 {
		t.Errorf("static pose should have zero std, got head=%v velocity=%v",
			feat.HeadYStd, feat.VelocityStd)
	}
	if feat.VelocityMax != feat.VelocityMean {
		t.Errorf("static pose max %v != mean %v", feat.VelocityMax, feat.VelocityMean)
	}
}

func TestAnalyzePose_VaryingPose(t *testing.T) {
	frames := make([]media.Frame, 10)
	for i := range frames {
		frames[i].Index = i
	}
	det := media.PoseDetectorFunc(func(f media.Frame) (*media.PoseKeypoints, error) {
		pose := media.UprightPose()
		pose.Head.Y += 0.02 * float64(f.Index)
		return &pose, nil
	})

	feat, detected := analyzePose(frames, det)
	if detected != 10 {
		t.Fatalf("detected = %d, want 10", detected)
	}
	if feat.HeadYStd <= 0 {
		t.Errorf("HeadYStd = %v, want > 0 for moving head", feat.HeadYStd)
	}
	if feat.VelocityMax < feat.VelocityMean {
		t.Errorf("VelocityMax %v < VelocityMean %v", feat.VelocityMax, feat.VelocityMean)
	}
}

func TestAnalyzePose_MissesSkipped(t *testing.T) {
	frames := make([]media.Frame, 10)
	for i := range frames {
		frames[i].Index = i
	}
	det := media.StaticPoseDetector{Pose: media.UprightPose(), MissEvery: 2}

	feat, detected := analyzePose(frames, det)
	if detected != 5 {
		t.Fatalf("detected = %d, want 5", detected)
	}
	if feat.HeadYMean == 0 {
		t.Error("features should still be computed from detected frames")
	}
}

func TestAnalyzePose_AllMisses(t *testing.T) {
	frames := make([]media.Frame, 5)
	det := media.PoseDetectorFunc(func(media.Frame) (*media.PoseKeypoints, error) {
		return nil, nil
	})

	feat, detected := analyzePose(frames, det)
	if detected != 0 {
		t.Fatalf("detected = %d, want 0", detected)
	}
	if feat != (PoseFeatures{}) {
		t.Errorf("expected zero sub-vector when no frame detects, got %+v", feat)
	}
}
