package media

import (
	"context"
	"time"
)

// Synthetic collaborators for tests and host prototyping. They produce
// deterministic frames, poses, faces and audio without decoding media,
// the same way fsutil ships MemoryFileSystem alongside OSFileSystem.

// SyntheticSampler emits frames at evenly spaced timestamps without
// reading the clip file. Frames carry no pixels.
type SyntheticSampler struct {
	// Frames caps the number of frames emitted; 0 means honor the
	// caller's maxFrames.
	Frames int

	// Err, when set, is returned instead of frames.
	Err error
}

// SampleFrames returns evenly spaced pixel-less frames.
func (s SyntheticSampler) SampleFrames(_ context.Context, clip Clip, maxFrames int) ([]Frame, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	n := maxFrames
	if s.Frames > 0 && s.Frames < n {
		n = s.Frames
	}
	if n <= 0 {
		return nil, nil
	}

	step := clip.Duration() / time.Duration(n)
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{Index: i, Timestamp: time.Duration(i) * step}
	}
	return frames, nil
}

// StaticPoseDetector returns the same pose for every frame, optionally
// missing every Nth frame to exercise tolerated-miss paths.
type StaticPoseDetector struct {
	Pose PoseKeypoints
	Err  error

	// MissEvery > 0 makes every Nth frame (1-based) a detection miss.
	MissEvery int
}

// DetectPose returns the configured pose.
func (d StaticPoseDetector) DetectPose(frame Frame) (*PoseKeypoints, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	if d.MissEvery > 0 && (frame.Index+1)%d.MissEvery == 0 {
		return nil, nil
	}
	pose := d.Pose
	return &pose, nil
}

// StaticFaceDetector returns the same landmarks for every frame.
type StaticFaceDetector struct {
	Face FaceLandmarks
	Err  error

	// MissEvery > 0 makes every Nth frame (1-based) a detection miss.
	MissEvery int
}

// DetectFace returns the configured landmarks.
func (d StaticFaceDetector) DetectFace(frame Frame) (*FaceLandmarks, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	if d.MissEvery > 0 && (frame.Index+1)%d.MissEvery == 0 {
		return nil, nil
	}
	face := d.Face
	return &face, nil
}

// StaticAudioDecoder returns a fixed sample buffer for every clip.
type StaticAudioDecoder struct {
	Samples    []float64
	SampleRate int
	Err        error
}

// DecodeSamples returns the configured samples.
func (d StaticAudioDecoder) DecodeSamples(context.Context, Clip) ([]float64, int, error) {
	if d.Err != nil {
		return nil, 0, d.Err
	}
	return d.Samples, d.SampleRate, nil
}

// UprightPose returns a plausible standing child pose in normalized
// coordinates, useful as a baseline that tests perturb.
func UprightPose() PoseKeypoints {
	kp := func(x, y float64) Keypoint { return Keypoint{X: x, Y: y, Confidence: 0.9} }
	return PoseKeypoints{
		Head:          kp(0.50, 0.15),
		Neck:          kp(0.50, 0.25),
		LeftShoulder:  kp(0.40, 0.30),
		RightShoulder: kp(0.60, 0.30),
		LeftWrist:     kp(0.35, 0.55),
		RightWrist:    kp(0.65, 0.55),
		LeftHip:       kp(0.44, 0.58),
		RightHip:      kp(0.56, 0.58),
		LeftAnkle:     kp(0.45, 0.92),
		RightAnkle:    kp(0.55, 0.92),
	}
}

// NeutralFace returns relaxed facial landmarks in normalized
// coordinates with zero head rotation.
func NeutralFace() FaceLandmarks {
	kp := func(x, y float64) Keypoint { return Keypoint{X: x, Y: y, Confidence: 0.9} }
	return FaceLandmarks{
		LeftEyeTop:     kp(0.40, 0.38),
		LeftEyeBottom:  kp(0.40, 0.42),
		RightEyeTop:    kp(0.60, 0.38),
		RightEyeBottom: kp(0.60, 0.42),
		MouthTop:       kp(0.50, 0.62),
		MouthBottom:    kp(0.50, 0.68),
		MouthLeft:      kp(0.42, 0.65),
		MouthRight:     kp(0.58, 0.65),
		LeftBrow:       kp(0.40, 0.32),
		RightBrow:      kp(0.60, 0.32),
	}
}
