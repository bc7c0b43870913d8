// Package media defines the clip, frame and landmark types shared by
// the feature extractor, plus the decoding collaborators the host
// application supplies. The library never decodes video or audio
// itself; hosts wire in platform decoders (AVFoundation, MediaCodec,
// ffmpeg) behind these interfaces.
package media

import (
	"context"
	"errors"
	"image"
	"math"
	"time"
)

// ErrNoVideoTrack is returned by a FrameSampler when the clip has no
// decodable video track. Fatal for feature extraction.
var ErrNoVideoTrack = errors.New("no video track")

// ErrNoAudioTrack is returned by an AudioDecoder when the clip has no
// audio track. Extraction tolerates it and uses neutral audio features.
var ErrNoAudioTrack = errors.New("no audio track")

// ErrNoAudioData is returned by an AudioDecoder when the audio track
// decodes to zero samples. Tolerated like ErrNoAudioTrack.
var ErrNoAudioData = errors.New("no audio data")

// Clip identifies a recorded clip on disk.
type Clip struct {
	// Path is the absolute path of the media file.
	Path string

	// DurationSeconds is the clip length as reported at recording time.
	DurationSeconds float64
}

// Duration returns the clip length as a time.Duration.
func (c Clip) Duration() time.Duration {
	return time.Duration(c.DurationSeconds * float64(time.Second))
}

// Frame is a single sampled video frame. Image may be nil when the
// detector pipeline works from the decoder's native buffers or when a
// synthetic sampler produces frames without pixels.
type Frame struct {
	Index     int
	Timestamp time.Duration
	Image     image.Image
}

// Keypoint is a detected 2D point in normalized image coordinates:
// x and y in [0,1], origin at the top-left, y increasing downward.
type Keypoint struct {
	X          float64
	Y          float64
	Confidence float64
}

// Distance returns the Euclidean distance between two keypoints.
func Distance(a, b Keypoint) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Midpoint returns the point halfway between a and b. Confidence is
// the lower of the two inputs.
func Midpoint(a, b Keypoint) Keypoint {
	return Keypoint{
		X:          (a.X + b.X) / 2,
		Y:          (a.Y + b.Y) / 2,
		Confidence: math.Min(a.Confidence, b.Confidence),
	}
}

// PoseKeypoints holds the upper and lower body joints used for motion
// features. Missing joints carry zero confidence.
type PoseKeypoints struct {
	Head          Keypoint
	Neck          Keypoint
	LeftShoulder  Keypoint
	RightShoulder Keypoint
	LeftWrist     Keypoint
	RightWrist    Keypoint
	LeftHip       Keypoint
	RightHip      Keypoint
	LeftAnkle     Keypoint
	RightAnkle    Keypoint
}

// TorsoCenter returns the midpoint of the two hips.
func (p PoseKeypoints) TorsoCenter() Keypoint {
	return Midpoint(p.LeftHip, p.RightHip)
}

// FaceLandmarks holds the facial points and head angles used for
// expression features. Angles are in degrees as reported by the
// detector.
type FaceLandmarks struct {
	LeftEyeTop     Keypoint
	LeftEyeBottom  Keypoint
	RightEyeTop    Keypoint
	RightEyeBottom Keypoint
	MouthTop       Keypoint
	MouthBottom    Keypoint
	MouthLeft      Keypoint
	MouthRight     Keypoint
	LeftBrow       Keypoint
	RightBrow      Keypoint

	Yaw   float64
	Pitch float64
	Roll  float64
}

// FrameSampler decodes up to maxFrames frames spaced evenly across a
// clip. Returns ErrNoVideoTrack when the clip carries no video.
type FrameSampler interface {
	SampleFrames(ctx context.Context, clip Clip, maxFrames int) ([]Frame, error)
}

// PoseDetector locates body joints in a frame. A nil result with a nil
// error means no body was detected in that frame.
type PoseDetector interface {
	DetectPose(frame Frame) (*PoseKeypoints, error)
}

// FaceDetector locates facial landmarks in a frame. A nil result with
// a nil error means no face was detected in that frame.
type FaceDetector interface {
	DetectFace(frame Frame) (*FaceLandmarks, error)
}

// AudioDecoder decodes a clip's audio track to mono float64 samples in
// [-1,1] and reports the sample rate. Returns ErrNoAudioTrack or
// ErrNoAudioData when the clip has no usable audio.
type AudioDecoder interface {
	DecodeSamples(ctx context.Context, clip Clip) (samples []float64, sampleRate int, err error)
}

// PoseDetectorFunc adapts a function to the PoseDetector interface.
type PoseDetectorFunc func(frame Frame) (*PoseKeypoints, error)

// DetectPose calls f.
func (f PoseDetectorFunc) DetectPose(frame Frame) (*PoseKeypoints, error) {
	return f(frame)
}

// FaceDetectorFunc adapts a function to the FaceDetector interface.
type FaceDetectorFunc func(frame Frame) (*FaceLandmarks, error)

// DetectFace calls f.
func (f FaceDetectorFunc) DetectFace(frame Frame) (*FaceLandmarks, error) {
	return f(frame)
}
