package extract

import (
	"math"

	"github.com/attune-care/attune/internal/media"
	"github.com/attune-care/attune/internal/stats"
)

// poseSignals are the instantaneous scalars derived from one frame's
// body keypoints.
type poseSignals struct {
	headY    float64
	torsoY   float64
	armsY    float64
	legsY    float64
	velocity float64
	openness float64
	posture  float64
}

// computePoseSignals derives per-frame scalars from detected joints.
// Velocity here is the head-to-torso spread within the frame, a body
// extension proxy rather than displacement over time.
func computePoseSignals(p media.PoseKeypoints) poseSignals {
	torso := p.TorsoCenter()
	arms := media.Midpoint(p.LeftWrist, p.RightWrist)
	legs := media.Midpoint(p.LeftAnkle, p.RightAnkle)

	// Tilt of the neck-to-torso axis away from vertical, radians.
	dx := torso.X - p.Neck.X
	dy := torso.Y - p.Neck.Y
	posture := math.Atan2(math.Abs(dx), math.Abs(dy))

	return poseSignals{
		headY:    p.Head.Y,
		torsoY:   torso.Y,
		armsY:    arms.Y,
		legsY:    legs.Y,
		velocity: media.Distance(p.Head, torso),
		openness: media.Distance(p.LeftWrist, p.RightWrist),
		posture:  posture,
	}
}

// analyzePose runs the detector over the sampled frames and reduces
// the per-frame signals to the pose sub-vector. Frames where detection
// errors or finds no body are skipped; if every frame misses, the zero
// sub-vector is returned. The second result is the number of frames
// with a detection.
func analyzePose(frames []media.Frame, det media.PoseDetector) (PoseFeatures, int) {
	n := len(frames)
	headY := stats.NewSeries(n)
	torsoY := stats.NewSeries(n)
	armsY := stats.NewSeries(n)
	legsY := stats.NewSeries(n)
	velocity := stats.NewSeries(n)
	openness := stats.NewSeries(n)
	posture := stats.NewSeries(n)

	detected := 0
	for _, frame := range frames {
		pose, err := det.DetectPose(frame)
		if err != nil || pose == nil {
			continue
		}
		sig := computePoseSignals(*pose)
		headY.Add(sig.headY)
		torsoY.Add(sig.torsoY)
		armsY.Add(sig.armsY)
		legsY.Add(sig.legsY)
		velocity.Add(sig.velocity)
		openness.Add(sig.openness)
		posture.Add(sig.posture)
		detected++
	}
	if detected == 0 {
		return PoseFeatures{}, 0
	}

	head := headY.Summary()
	torso := torsoY.Summary()
	arms := armsY.Summary()
	legs := legsY.Summary()
	vel := velocity.Summary()
	open := openness.Summary()
	post := posture.Summary()

	return PoseFeatures{
		HeadYMean:    head.Mean,
		HeadYStd:     head.Std,
		TorsoYMean:   torso.Mean,
		TorsoYStd:    torso.Std,
		ArmsYMean:    arms.Mean,
		ArmsYStd:     arms.Std,
		LegsYMean:    legs.Mean,
		LegsYStd:     legs.Std,
		VelocityMean: vel.Mean,
		VelocityStd:  vel.Std,
		VelocityMax:  vel.Max,
		OpennessMean: open.Mean,
		OpennessStd:  open.Std,
		PostureMean:  post.Mean,
		PostureStd:   post.Std,
	}, detected
}
