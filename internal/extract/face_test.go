package extract

import (
	"math"
	"testing"

	"github.com/attune-care/attune/internal/media"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeFaceSignals_Neutral(t *testing.T) {
	sig := computeFaceSignals(media.NeutralFace(), DefaultParams())

	if !almostEqual(sig.eyeOpen, 0.04) {
		t.Errorf("eyeOpen = %v, want 0.04", sig.eyeOpen)
	}
	if !almostEqual(sig.mouthOpen, 0.06) {
		t.Errorf("mouthOpen = %v, want 0.06", sig.mouthOpen)
	}
	if !almostEqual(sig.mouthWidth, 0.16) {
		t.Errorf("mouthWidth = %v, want 0.16", sig.mouthWidth)
	}
	if !almostEqual(sig.browHeight, 0.06) {
		t.Errorf("browHeight = %v, want 0.06", sig.browHeight)
	}
	// A relaxed face sits at the baselines, so the AU proxies are ~0.
	for name, v := range map[string]float64{
		"browRaise":  sig.browRaise,
		"browLower":  sig.browLower,
		"smile":      sig.smile,
		"jawTension": sig.jawTension,
		"cheekRaise": sig.cheekRaise,
	} {
		if !almostEqual(v, 0) {
			t.Errorf("%s = %v, want ~0 for neutral face", name, v)
		}
	}
}

func TestComputeFaceSignals_Smile(t *testing.T) {
	face := media.NeutralFace()
	face.MouthLeft.X -= 0.03
	face.MouthRight.X += 0.03

	sig := computeFaceSignals(face, DefaultParams())
	if !almostEqual(sig.smile, 0.06) {
		t.Errorf("smile = %v, want 0.06", sig.smile)
	}
	if !almostEqual(sig.jawTension, 0.5*sig.smile) {
		t.Errorf("jawTension = %v, want half of smile %v", sig.jawTension, sig.smile)
	}
	if !almostEqual(sig.cheekRaise, 0.8*sig.smile) {
		t.Errorf("cheekRaise = %v, want 0.8 of smile %v", sig.cheekRaise, sig.smile)
	}
}

func TestComputeFaceSignals_BrowDirections(t *testing.T) {
	params := DefaultParams()

	raised := media.NeutralFace()
	raised.LeftBrow.Y -= 0.03
	raised.RightBrow.Y -= 0.03
	sig := computeFaceSignals(raised, params)
	if sig.browRaise <= 0 || sig.browLower != 0 {
		t.Errorf("raised brows: raise=%v lower=%v, want raise>0 lower=0",
			sig.browRaise, sig.browLower)
	}

	lowered := media.NeutralFace()
	lowered.LeftBrow.Y += 0.03
	lowered.RightBrow.Y += 0.03
	sig = computeFaceSignals(lowered, params)
	if sig.browLower <= 0 || sig.browRaise != 0 {
		t.Errorf("lowered brows: raise=%v lower=%v, want lower>0 raise=0",
			sig.browRaise, sig.browLower)
	}
}

func TestComputeFaceSignals_HeadAnglesPassThrough(t *testing.T) {
	face := media.NeutralFace()
	face.Yaw, face.Pitch, face.Roll = 12, -5, 3

	sig := computeFaceSignals(face, DefaultParams())
	if sig.yaw != 12 || sig.pitch != -5 || sig.roll != 3 {
		t.Errorf("angles = (%v, %v, %v), want (12, -5, 3)", sig.yaw, sig.pitch, sig.roll)
	}
}

func TestAnalyzeFace_StaticFace(t *testing.T) {
	frames := make([]media.Frame, 8)
	for i := range frames {
		frames[i].Index = i
	}
	det := media.StaticFaceDetector{Face: media.NeutralFace()}

	feat, detected := analyzeFace(frames, det, DefaultParams())
	if detected != 8 {
		t.Fatalf("detected = %d, want 8", detected)
	}
	if feat.EyeOpenStd != 0 || feat.MouthOpenStd != 0 {
		t.Errorf("static face should have zero stds, got eye=%v mouth=%v",
			feat.EyeOpenStd, feat.MouthOpenStd)
	}
	if !almostEqual(feat.EyeOpenMean, 0.04) {
		t.Errorf("EyeOpenMean = %v, want 0.04", feat.EyeOpenMean)
	}
}

func TestAnalyzeFace_AllMisses(t *testing.T) {
	frames := make([]media.Frame, 5)
	det := media.FaceDetectorFunc(func(media.Frame) (*media.FaceLandmarks, error) {
		return nil, nil
	})

	feat, detected := analyzeFace(frames, det, DefaultParams())
	if detected != 0 {
		t.Fatalf("detected = %d, want 0", detected)
	}
	if feat != (FaceFeatures{}) {
		t.Errorf("expected zero sub-vector when no frame detects, got %+v", feat)
	}
}
