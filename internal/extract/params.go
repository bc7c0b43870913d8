package extract

// Params tunes feature extraction. Values persist alongside trained
// models so a recorded run can be reproduced.
type Params struct {
	// FrameSamples is the number of frames sampled evenly across a
	// clip for pose and face analysis.
	FrameSamples int `json:"frame_samples"`

	// AudioWindowSize is the number of samples per audio analysis
	// window.
	AudioWindowSize int `json:"audio_window_size"`

	// SpeechPeakThreshold is the window envelope amplitude above which
	// a window counts toward a speech burst.
	SpeechPeakThreshold float64 `json:"speech_peak_threshold"`

	// NeutralBrowHeight and NeutralMouthWidth are relaxed-face
	// baselines, in normalized image units. The brow and smile
	// action-unit proxies measure deviation from these.
	NeutralBrowHeight float64 `json:"neutral_brow_height"`
	NeutralMouthWidth float64 `json:"neutral_mouth_width"`
}

// DefaultParams returns the standard extraction parameters.
func DefaultParams() Params {
	return Params{
		FrameSamples:        30,
		AudioWindowSize:     1024,
		SpeechPeakThreshold: 0.1,
		NeutralBrowHeight:   0.06,
		NeutralMouthWidth:   0.16,
	}
}

// withDefaults fills unset fields from DefaultParams.
func (p Params) withDefaults() Params {
	def := DefaultParams()
	if p.FrameSamples <= 0 {
		p.FrameSamples = def.FrameSamples
	}
	if p.AudioWindowSize <= 0 {
		p.AudioWindowSize = def.AudioWindowSize
	}
	if p.SpeechPeakThreshold <= 0 {
		p.SpeechPeakThreshold = def.SpeechPeakThreshold
	}
	if p.NeutralBrowHeight <= 0 {
		p.NeutralBrowHeight = def.NeutralBrowHeight
	}
	if p.NeutralMouthWidth <= 0 {
		p.NeutralMouthWidth = def.NeutralMouthWidth
	}
	return p
}
