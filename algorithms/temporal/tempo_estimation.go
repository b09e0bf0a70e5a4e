package temporal

import (
	"math"
)

// Tempo bounds in BPM. Estimates outside this range are treated as
// analysis failures and replaced with the default.
const (
	MinBPM     = 20.0
	MaxBPM     = 300.0
	DefaultBPM = 120.0
)

// TempoEstimation estimates tempo from the periodicity of the onset
// strength envelope
type TempoEstimation struct {
	onsetDetector *OnsetDetection
}

// NewTempoEstimation creates a new tempo estimator
func NewTempoEstimation() *TempoEstimation {
	return &TempoEstimation{
		onsetDetector: NewOnsetDetection(),
	}
}

// EstimateTempo estimates tempo in BPM using autocorrelation of the
// onset strength envelope. The result is always within [MinBPM, MaxBPM];
// signals too short or too aperiodic to analyze yield DefaultBPM.
func (te *TempoEstimation) EstimateTempo(signal []float64, sampleRate int) (float64, error) {
	if len(signal) == 0 {
		return DefaultBPM, nil
	}

	envelope, err := te.onsetDetector.ComputeOnsetStrength(signal, sampleRate)
	if err != nil {
		return 0.0, err
	}

	if len(envelope) < 10 {
		return DefaultBPM, nil
	}

	maxLag := len(envelope) / 2
	autocorr := te.calculateAutocorrelation(envelope, maxLag)

	frameDur := float64(te.onsetDetector.HopSize()) / float64(sampleRate)
	bpm := te.findTempoFromAutocorrelation(autocorr, frameDur)

	return ClampBPM(bpm), nil
}

// ClampBPM validates a tempo estimate. Values outside the plausible
// musical range indicate a failed estimate and fall back to DefaultBPM.
func ClampBPM(bpm float64) float64 {
	if math.IsNaN(bpm) || bpm < MinBPM || bpm > MaxBPM {
		return DefaultBPM
	}
	return bpm
}

// calculateAutocorrelation calculates the normalized autocorrelation
// function up to maxLag
func (te *TempoEstimation) calculateAutocorrelation(signal []float64, maxLag int) []float64 {
	if maxLag > len(signal) {
		maxLag = len(signal)
	}

	autocorr := make([]float64, maxLag)

	for lag := 0; lag < maxLag; lag++ {
		sum := 0.0
		count := 0

		for i := 0; i < len(signal)-lag; i++ {
			sum += signal[i] * signal[i+lag]
			count++
		}

		if count > 0 {
			autocorr[lag] = sum / float64(count)
		}
	}

	// Normalize
	if len(autocorr) > 0 && autocorr[0] > 0 {
		for i := range autocorr {
			autocorr[i] /= autocorr[0]
		}
	}

	return autocorr
}

// findTempoFromAutocorrelation finds the beat period as the strongest
// autocorrelation peak within the plausible tempo range
func (te *TempoEstimation) findTempoFromAutocorrelation(autocorr []float64, frameDur float64) float64 {
	if len(autocorr) < 3 {
		return 0.0
	}

	minPeriodSec := 60.0 / MaxBPM
	maxPeriodSec := 60.0 / MinBPM

	minLag := int(minPeriodSec / frameDur)
	maxLag := int(maxPeriodSec / frameDur)

	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(autocorr) {
		maxLag = len(autocorr) - 1
	}

	// Highest local maximum in range
	maxVal := 0.0
	bestLag := 0

	for lag := minLag; lag <= maxLag; lag++ {
		if lag > 0 && lag < len(autocorr)-1 {
			if autocorr[lag] > autocorr[lag-1] &&
				autocorr[lag] > autocorr[lag+1] &&
				autocorr[lag] > maxVal {
				maxVal = autocorr[lag]
				bestLag = lag
			}
		}
	}

	if bestLag == 0 {
		return 0.0
	}

	period := float64(bestLag) * frameDur
	return 60.0 / period
}
