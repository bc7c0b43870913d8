package extract

import (
	"math"

	"github.com/attune-care/attune/internal/media"
	"github.com/attune-care/attune/internal/stats"
)

// faceSignals are the instantaneous scalars derived from one frame's
// facial landmarks.
type faceSignals struct {
	eyeOpen    float64
	mouthOpen  float64
	mouthWidth float64
	browHeight float64
	browRaise  float64
	browLower  float64
	smile      float64
	jawTension float64
	cheekRaise float64
	yaw        float64
	pitch      float64
	roll       float64
}

// computeFaceSignals derives per-frame scalars from landmarks. The
// action-unit proxies are linear deviations from the relaxed-face
// baselines in p; jaw and cheek are fixed fractions of the smile
// proxy.
func computeFaceSignals(f media.FaceLandmarks, p Params) faceSignals {
	eyeOpen := (media.Distance(f.LeftEyeTop, f.LeftEyeBottom) +
		media.Distance(f.RightEyeTop, f.RightEyeBottom)) / 2
	browHeight := (media.Distance(f.LeftBrow, f.LeftEyeTop) +
		media.Distance(f.RightBrow, f.RightEyeTop)) / 2
	mouthWidth := media.Distance(f.MouthLeft, f.MouthRight)
	smile := mouthWidth - p.NeutralMouthWidth

	return faceSignals{
		eyeOpen:    eyeOpen,
		mouthOpen:  media.Distance(f.MouthTop, f.MouthBottom),
		mouthWidth: mouthWidth,
		browHeight: browHeight,
		browRaise:  math.Max(browHeight-p.NeutralBrowHeight, 0),
		browLower:  math.Max(p.NeutralBrowHeight-browHeight, 0),
		smile:      smile,
		jawTension: 0.5 * smile,
		cheekRaise: 0.8 * smile,
		yaw:        f.Yaw,
		pitch:      f.Pitch,
		roll:       f.Roll,
	}
}

// analyzeFace runs the detector over the sampled frames and reduces
// the per-frame signals to the face sub-vector. Misses are skipped the
// same way analyzePose skips them.
func analyzeFace(frames []media.Frame, det media.FaceDetector, p Params) (FaceFeatures, int) {
	n := len(frames)
	eyeOpen := stats.NewSeries(n)
	mouthOpen := stats.NewSeries(n)
	mouthWidth := stats.NewSeries(n)
	browHeight := stats.NewSeries(n)
	browRaise := stats.NewSeries(n)
	browLower := stats.NewSeries(n)
	smile := stats.NewSeries(n)
	jawTension := stats.NewSeries(n)
	cheekRaise := stats.NewSeries(n)
	yaw := stats.NewSeries(n)
	pitch := stats.NewSeries(n)
	roll := stats.NewSeries(n)

	detected := 0
	for _, frame := range frames {
		face, err := det.DetectFace(frame)
		if err != nil || face == nil {
			continue
		}
		sig := computeFaceSignals(*face, p)
		eyeOpen.Add(sig.eyeOpen)
		mouthOpen.Add(sig.mouthOpen)
		mouthWidth.Add(sig.mouthWidth)
		browHeight.Add(sig.browHeight)
		browRaise.Add(sig.browRaise)
		browLower.Add(sig.browLower)
		smile.Add(sig.smile)
		jawTension.Add(sig.jawTension)
		cheekRaise.Add(sig.cheekRaise)
		yaw.Add(sig.yaw)
		pitch.Add(sig.pitch)
		roll.Add(sig.roll)
		detected++
	}
	if detected == 0 {
		return FaceFeatures{}, 0
	}

	eye := eyeOpen.Summary()
	mouth := mouthOpen.Summary()

	return FaceFeatures{
		EyeOpenMean:    eye.Mean,
		EyeOpenStd:     eye.Std,
		MouthOpenMean:  mouth.Mean,
		MouthOpenStd:   mouth.Std,
		MouthWidthMean: mouthWidth.Summary().Mean,
		BrowHeightMean: browHeight.Summary().Mean,
		BrowRaiseMean:  browRaise.Summary().Mean,
		BrowLowerMean:  browLower.Summary().Mean,
		SmileMean:      smile.Summary().Mean,
		JawTensionMean: jawTension.Summary().Mean,
		CheekRaiseMean: cheekRaise.Summary().Mean,
		YawMean:        yaw.Summary().Mean,
		PitchMean:      pitch.Summary().Mean,
		RollMean:       roll.Summary().Mean,
	}, detected
}
