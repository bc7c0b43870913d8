package extract

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/attune-care/attune/internal/stats"
)

// analyzeAudio reduces mono samples to the audio sub-vector. Empty
// samples or a non-positive rate yield the neutral zero sub-vector, so
// clips without audio still extract.
func analyzeAudio(samples []float64, rate int, p Params) AudioFeatures {
	if len(samples) == 0 || rate <= 0 {
		return AudioFeatures{}
	}

	windows := sliceWindows(samples, p.AudioWindowSize)
	nw := len(windows)

	var bands [NumAudioBands]*stats.Series
	for i := range bands {
		bands[i] = stats.NewSeries(nw)
	}
	pitch := stats.NewSeries(nw)
	energy := stats.NewSeries(nw)
	zcr := stats.NewSeries(nw)

	var fft *fourier.FFT
	fftLen := 0
	for _, w := range windows {
		if len(w) != fftLen {
			fft = fourier.NewFFT(len(w))
			fftLen = len(w)
		}
		be := bandEnergies(fft, w)
		for i := range be {
			bands[i].Add(be[i])
		}
		pitch.Add(meanAbs(w))
		energy.Add(meanSquare(w))
		zcr.Add(zeroCrossingRate(w))
	}

	var f AudioFeatures
	for i := range bands {
		s := bands[i].Summary()
		f.BandEnergyMean[i] = s.Mean
		f.BandEnergyStd[i] = s.Std
	}

	ps := pitch.Summary()
	f.PitchMean, f.PitchStd = ps.Mean, ps.Std
	f.PitchMin, f.PitchMax = ps.Min, ps.Max

	es := energy.Summary()
	f.EnergyMean, f.EnergyStd, f.EnergyMax = es.Mean, es.Std, es.Max

	zs := zcr.Summary()
	f.ZCRMean, f.ZCRStd = zs.Mean, zs.Std

	duration := float64(len(samples)) / float64(rate)
	f.SpeechRate = burstRate(pitch.Values(), p.SpeechPeakThreshold, duration)
	return f
}

// sliceWindows cuts samples into non-overlapping windows of size w,
// dropping a trailing partial window. Input shorter than w becomes a
// single window so short clips still produce features.
func sliceWindows(samples []float64, w int) [][]float64 {
	if len(samples) < w {
		return [][]float64{samples}
	}
	n := len(samples) / w
	out := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, samples[i*w:(i+1)*w])
	}
	return out
}

// bandEnergies splits the window's spectrum into NumAudioBands
// log-spaced bands (DC excluded) and returns each band's energy,
// normalized by the squared window length. Windows with too few bins
// to fill every band return zeros.
func bandEnergies(fft *fourier.FFT, window []float64) [NumAudioBands]float64 {
	var out [NumAudioBands]float64

	coeffs := fft.Coefficients(nil, window)
	m := len(coeffs) - 1
	if m < NumAudioBands {
		return out
	}

	norm := float64(len(window)) * float64(len(window))
	for b := 0; b < NumAudioBands; b++ {
		lo := bandEdge(b, m)
		hi := bandEdge(b+1, m)
		if b == NumAudioBands-1 {
			hi = m + 1 // include the Nyquist bin
		}
		if hi <= lo {
			hi = lo + 1
		}
		var sum float64
		for i := lo; i < hi && i <= m; i++ {
			mag := cmplx.Abs(coeffs[i])
			sum += mag * mag
		}
		out[b] = sum / norm
	}
	return out
}

// bandEdge returns the spectrum bin where band b starts, partitioning
// bins 1..m on a log scale.
func bandEdge(b, m int) int {
	e := math.Pow(float64(m), float64(b)/float64(NumAudioBands))
	edge := int(math.Round(e))
	if edge < 1 {
		edge = 1
	}
	if edge > m {
		edge = m
	}
	return edge
}

func meanAbs(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, s := range window {
		sum += math.Abs(s)
	}
	return sum / float64(len(window))
}

func meanSquare(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for _, s := range window {
		sum += s * s
	}
	return sum / float64(len(window))
}

// zeroCrossingRate is the fraction of adjacent sample pairs whose sign
// differs.
func zeroCrossingRate(window []float64) float64 {
	if len(window) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(window); i++ {
		if (window[i] >= 0) != (window[i-1] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(window)-1)
}

// burstRate counts rising crossings of threshold in the per-window
// envelope and divides by the clip duration. A crude speech-rate
// heuristic: it tracks amplitude bursts, not syllables.
func burstRate(envelope []float64, threshold, durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	bursts := 0
	for i, v := range envelope {
		if v >= threshold && (i == 0 || envelope[i-1] < threshold) {
			bursts++
		}
	}
	return float64(bursts) / durationSeconds
}
