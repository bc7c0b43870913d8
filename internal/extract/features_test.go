package extract

import "testing"

func TestFieldNames_MatchDimensions(t *testing.T) {
	names := FieldNames()
	if len(names) != FeatureDim {
		t.Fatalf("FieldNames has %d entries, want %d", len(names), FeatureDim)
	}

	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate field name %q", n)
		}
		seen[n] = true
	}
}

func TestSubVectorLengths(t *testing.T) {
	if got := len(PoseFeatures{}.ToVector()); got != PoseDim {
		t.Errorf("pose vector length = %d, want %d", got, PoseDim)
	}
	if got := len(FaceFeatures{}.ToVector()); got != FaceDim {
		t.Errorf("face vector length = %d, want %d", got, FaceDim)
	}
	if got := len(AudioFeatures{}.ToVector()); got != AudioDim {
		t.Errorf("audio vector length = %d, want %d", got, AudioDim)
	}
	if got := len((FeatureSet{}).Vector()); got != FeatureDim {
		t.Errorf("full vector length = %d, want %d", got, FeatureDim)
	}
}

func TestVector_Order(t *testing.T) {
	var set FeatureSet
	set.Pose.HeadYMean = 1
	set.Pose.PostureStd = 2
	set.Face.EyeOpenMean = 3
	set.Face.RollMean = 4
	set.Audio.BandEnergyMean[0] = 5
	set.Audio.SpeechRate = 6

	vec := set.Vector()

	checks := []struct {
		idx  int
		want float64
		name string
	}{
		{0, 1, "pose_head_y_mean"},
		{PoseDim - 1, 2, "pose_posture_std"},
		{PoseDim, 3, "face_eye_open_mean"},
		{PoseDim + FaceDim - 1, 4, "face_roll_mean"},
		{PoseDim + FaceDim, 5, "audio_band0_energy_mean"},
		{FeatureDim - 1, 6, "audio_speech_rate"},
	}
	names := FieldNames()
	for _, c := range checks {
		if vec[c.idx] != c.want {
			t.Errorf("vec[%d] = %v, want %v", c.idx, vec[c.idx], c.want)
		}
		if names[c.idx] != c.name {
			t.Errorf("names[%d] = %q, want %q", c.idx, names[c.idx], c.name)
		}
	}
}
