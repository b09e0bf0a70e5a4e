package temporal

import (
	"github.com/AbhiJ2706/cs489-project/algorithms/common"
	"github.com/AbhiJ2706/cs489-project/algorithms/spectral"
)

// OnsetDetection detects note onsets from a spectral flux envelope.
//
// The envelope is max-normalized and hard-thresholded before peak
// picking, so only pronounced attacks survive. Detected peaks are
// backtracked to the preceding energy minimum so segment boundaries
// land just before the attack transient rather than on top of it.
type OnsetDetection struct {
	stft         *spectral.STFT
	spectralFlux *spectral.SpectralFlux

	windowSize    int
	hopSize       int
	threshold     float64 // Normalized strength below this is zeroed
	minSeparation float64 // Minimum time between onsets in seconds
}

// NewOnsetDetection creates an onset detector with defaults suited to
// solo piano: 1024/512 STFT, 0.85 strength threshold, 50ms separation
func NewOnsetDetection() *OnsetDetection {
	return NewOnsetDetectionWithThreshold(0.85)
}

// NewOnsetDetectionWithThreshold creates an onset detector with a
// custom strength threshold
func NewOnsetDetectionWithThreshold(threshold float64) *OnsetDetection {
	return &OnsetDetection{
		stft:          spectral.NewSTFT(),
		spectralFlux:  spectral.NewSpectralFlux(),
		windowSize:    1024,
		hopSize:       512,
		threshold:     threshold,
		minSeparation: 0.05,
	}
}

// HopSize returns the analysis hop in samples
func (od *OnsetDetection) HopSize() int {
	return od.hopSize
}

// ComputeOnsetStrength computes the max-normalized onset strength
// envelope without thresholding. One value per STFT frame transition.
func (od *OnsetDetection) ComputeOnsetStrength(signal []float64, sampleRate int) ([]float64, error) {
	if len(signal) == 0 {
		return []float64{}, nil
	}

	stftResult, err := od.stft.Compute(signal, od.windowSize, od.hopSize, sampleRate)
	if err != nil {
		return nil, err
	}

	flux := od.spectralFlux.Compute(stftResult.Magnitude)
	if len(flux) == 0 {
		return []float64{}, nil
	}

	return common.MaxNormalize(flux), nil
}

// DetectOnsets returns onset times in seconds, sorted ascending.
//
// When the recording produces no onsets above threshold (sustained
// pads, heavy reverb), a synthetic grid of onsets every fallback
// interval is returned so downstream segmentation still has material
// to work with.
func (od *OnsetDetection) DetectOnsets(signal []float64, sampleRate int) ([]float64, error) {
	strength, err := od.ComputeOnsetStrength(signal, sampleRate)
	if err != nil {
		return nil, err
	}

	duration := float64(len(signal)) / float64(sampleRate)

	if len(strength) == 0 {
		return od.fallbackOnsets(duration), nil
	}

	// Zero values below threshold so weak fluctuations never peak
	thresholded := make([]float64, len(strength))
	for i, v := range strength {
		if v >= od.threshold {
			thresholded[i] = v
		}
	}

	frameDur := float64(od.hopSize) / float64(sampleRate)
	minFrames := od.minSeparation / frameDur

	peakFrames := common.FindPeaks(thresholded, od.threshold, minFrames)
	if len(peakFrames) == 0 {
		return od.fallbackOnsets(duration), nil
	}

	onsets := make([]float64, 0, len(peakFrames))
	for _, frame := range peakFrames {
		backtracked := od.backtrack(strength, frame)
		onsets = append(onsets, float64(backtracked)*frameDur)
	}

	return onsets, nil
}

// backtrack walks from a peak back to the preceding local minimum of
// the unthresholded envelope
func (od *OnsetDetection) backtrack(strength []float64, peak int) int {
	i := peak
	for i > 0 && strength[i-1] <= strength[i] {
		i--
	}
	return i
}

// fallbackOnsets generates a synthetic onset grid every half second
func (od *OnsetDetection) fallbackOnsets(duration float64) []float64 {
	const interval = 0.5

	var onsets []float64
	for t := 0.0; t < duration; t += interval {
		onsets = append(onsets, t)
	}
	if len(onsets) == 0 {
		onsets = []float64{0.0}
	}
	return onsets
}
