// Package extract turns a recorded clip into a fixed-length feature
// vector describing body motion, facial expression and vocal audio.
// Frame decoding and landmark detection are delegated to the host's
// media collaborators; this package owns the signal math and the
// canonical vector layout.
package extract

import "fmt"

// Sub-vector and total dimensions. The vector layout is frozen:
// trained models store exemplars in this order and a dimension change
// invalidates every persisted model.
const (
	PoseDim  = 15
	FaceDim  = 14
	AudioDim = 22

	// NumAudioBands is the number of log-spaced spectral bands in the
	// audio sub-vector.
	NumAudioBands = 6

	// FeatureDim is the full feature vector length.
	FeatureDim = PoseDim + FaceDim + AudioDim
)

// PoseFeatures summarizes body-motion signals across the sampled
// frames of one clip. Positions are normalized image coordinates
// (y increases downward), angles are radians.
type PoseFeatures struct {
	HeadYMean  float64
	HeadYStd   float64
	TorsoYMean float64
	TorsoYStd  float64
	ArmsYMean  float64
	ArmsYStd   float64
	LegsYMean  float64
	LegsYStd   float64

	// Velocity is a per-frame head-to-torso spread proxy, not true
	// motion over time.
	VelocityMean float64
	VelocityStd  float64
	VelocityMax  float64

	OpennessMean float64
	OpennessStd  float64
	PostureMean  float64
	PostureStd   float64
}

// ToVector converts PoseFeatures to a flat slice in canonical order.
// The order matches poseFieldNames().
func (f PoseFeatures) ToVector() []float64 {
	return []float64{
		f.HeadYMean,
		f.HeadYStd,
		f.TorsoYMean,
		f.TorsoYStd,
		f.ArmsYMean,
		f.ArmsYStd,
		f.LegsYMean,
		f.LegsYStd,
		f.VelocityMean,
		f.VelocityStd,
		f.VelocityMax,
		f.OpennessMean,
		f.OpennessStd,
		f.PostureMean,
		f.PostureStd,
	}
}

func poseFieldNames() []string {
	return []string{
		"pose_head_y_mean",
		"pose_head_y_std",
		"pose_torso_y_mean",
		"pose_torso_y_std",
		"pose_arms_y_mean",
		"pose_arms_y_std",
		"pose_legs_y_mean",
		"pose_legs_y_std",
		"pose_velocity_mean",
		"pose_velocity_std",
		"pose_velocity_max",
		"pose_openness_mean",
		"pose_openness_std",
		"pose_posture_mean",
		"pose_posture_std",
	}
}

// FaceFeatures summarizes facial-expression signals across the sampled
// frames of one clip. The brow/smile action-unit values are coarse
// linear proxies derived from landmark geometry, not true AU scores.
type FaceFeatures struct {
	EyeOpenMean    float64
	EyeOpenStd     float64
	MouthOpenMean  float64
	MouthOpenStd   float64
	MouthWidthMean float64
	BrowHeightMean float64
	BrowRaiseMean  float64
	BrowLowerMean  float64
	SmileMean      float64
	JawTensionMean float64
	CheekRaiseMean float64

	// Head rotation in degrees, as reported by the detector.
	YawMean   float64
	PitchMean float64
	RollMean  float64
}

// ToVector converts FaceFeatures to a flat slice in canonical order.
// The order matches faceFieldNames().
func (f FaceFeatures) ToVector() []float64 {
	return []float64{
		f.EyeOpenMean,
		f.EyeOpenStd,
		f.MouthOpenMean,
		f.MouthOpenStd,
		f.MouthWidthMean,
		f.BrowHeightMean,
		f.BrowRaiseMean,
		f.BrowLowerMean,
		f.SmileMean,
		f.JawTensionMean,
		f.CheekRaiseMean,
		f.YawMean,
		f.PitchMean,
		f.RollMean,
	}
}

func faceFieldNames() []string {
	return []string{
		"face_eye_open_mean",
		"face_eye_open_std",
		"face_mouth_open_mean",
		"face_mouth_open_std",
		"face_mouth_width_mean",
		"face_brow_height_mean",
		"face_brow_raise_mean",
		"face_brow_lower_mean",
		"face_smile_mean",
		"face_jaw_tension_mean",
		"face_cheek_raise_mean",
		"face_yaw_mean",
		"face_pitch_mean",
		"face_roll_mean",
	}
}

// AudioFeatures summarizes vocal signals over fixed-size sample
// windows of one clip. The zero value is the neutral sub-vector used
// when a clip has no usable audio. Pitch is a per-window mean
// absolute amplitude proxy, not a fundamental-frequency estimate.
type AudioFeatures struct {
	BandEnergyMean [NumAudioBands]float64
	BandEnergyStd  [NumAudioBands]float64

	PitchMean float64
	PitchStd  float64
	PitchMin  float64
	PitchMax  float64

	EnergyMean float64
	EnergyStd  float64
	EnergyMax  float64

	ZCRMean float64
	ZCRStd  float64

	// SpeechRate counts amplitude bursts per second.
	SpeechRate float64
}

// ToVector converts AudioFeatures to a flat slice in canonical order.
// The order matches audioFieldNames().
func (f AudioFeatures) ToVector() []float64 {
	vec := make([]float64, 0, AudioDim)
	for i := 0; i < NumAudioBands; i++ {
		vec = append(vec, f.BandEnergyMean[i], f.BandEnergyStd[i])
	}
	vec = append(vec,
		f.PitchMean,
		f.PitchStd,
		f.PitchMin,
		f.PitchMax,
		f.EnergyMean,
		f.EnergyStd,
		f.EnergyMax,
		f.ZCRMean,
		f.ZCRStd,
		f.SpeechRate,
	)
	return vec
}

func audioFieldNames() []string {
	names := make([]string, 0, AudioDim)
	for i := 0; i < NumAudioBands; i++ {
		names = append(names,
			fmt.Sprintf("audio_band%d_energy_mean", i),
			fmt.Sprintf("audio_band%d_energy_std", i),
		)
	}
	return append(names,
		"audio_pitch_mean",
		"audio_pitch_std",
		"audio_pitch_min",
		"audio_pitch_max",
		"audio_energy_mean",
		"audio_energy_std",
		"audio_energy_max",
		"audio_zcr_mean",
		"audio_zcr_std",
		"audio_speech_rate",
	)
}

// FeatureSet bundles the three modality sub-vectors extracted from one
// clip.
type FeatureSet struct {
	Pose  PoseFeatures
	Face  FaceFeatures
	Audio AudioFeatures
}

// Vector returns the full feature vector, pose then face then audio,
// always FeatureDim long.
func (s FeatureSet) Vector() []float64 {
	vec := make([]float64, 0, FeatureDim)
	vec = append(vec, s.Pose.ToVector()...)
	vec = append(vec, s.Face.ToVector()...)
	vec = append(vec, s.Audio.ToVector()...)
	return vec
}

// FieldNames returns the canonical feature names in vector order.
func FieldNames() []string {
	names := make([]string, 0, FeatureDim)
	names = append(names, poseFieldNames()...)
	names = append(names, faceFieldNames()...)
	names = append(names, audioFieldNames()...)
	return names
}
