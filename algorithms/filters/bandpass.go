package filters

import (
	"fmt"
)

// BandpassFilter implements a fourth-order Butterworth bandpass as a
// cascade of biquad sections: two highpass sections at the low edge and
// two lowpass sections at the high edge.
//
// Q values per section follow the Butterworth pole placement for a
// fourth-order response (maximally flat passband).
type BandpassFilter struct {
	sampleRate int
	lowCut     float64 // Low cutoff frequency in Hz
	highCut    float64 // High cutoff frequency in Hz

	sections []*Biquad
}

// Butterworth section Q values for a fourth-order cascade
var butterworthQ4 = []float64{0.54119610, 1.30656296}

// NewBandpassFilter creates a fourth-order Butterworth bandpass filter
// passing frequencies between lowCut and highCut.
func NewBandpassFilter(sampleRate int, lowCut, highCut float64) (*BandpassFilter, error) {
	nyquist := float64(sampleRate) / 2.0
	if lowCut <= 0 || highCut <= lowCut {
		return nil, fmt.Errorf("invalid band edges: low=%.1f Hz, high=%.1f Hz", lowCut, highCut)
	}
	if highCut >= nyquist {
		return nil, fmt.Errorf("high cutoff (%.1f Hz) must be below Nyquist (%.1f Hz)", highCut, nyquist)
	}

	bf := &BandpassFilter{
		sampleRate: sampleRate,
		lowCut:     lowCut,
		highCut:    highCut,
	}

	for _, q := range butterworthQ4 {
		bf.sections = append(bf.sections, NewBiquadHighpass(sampleRate, lowCut, q))
	}
	for _, q := range butterworthQ4 {
		bf.sections = append(bf.sections, NewBiquadLowpass(sampleRate, highCut, q))
	}

	return bf, nil
}

// Apply filters a signal through the cascade (single forward pass).
// The filter is stateful across calls; use Reset between unrelated signals.
func (bf *BandpassFilter) Apply(signal []float64) []float64 {
	output := make([]float64, len(signal))
	copy(output, signal)

	for _, section := range bf.sections {
		section.ProcessBufferInPlace(output)
	}

	return output
}

// ApplyZeroPhase filters the signal forward then backward, cancelling the
// cascade's phase distortion. Zero phase shift matters here because note
// onset times are read directly from the filtered signal.
//
// Reflection padding at both ends suppresses the startup transient.
func (bf *BandpassFilter) ApplyZeroPhase(signal []float64) []float64 {
	if len(signal) == 0 {
		return []float64{}
	}

	padLen := 3 * 3 * len(bf.sections)
	if padLen >= len(signal) {
		padLen = len(signal) - 1
	}

	// Reflect signal around its endpoints
	padded := make([]float64, 0, len(signal)+2*padLen)
	for i := padLen; i > 0; i-- {
		padded = append(padded, 2*signal[0]-signal[i])
	}
	padded = append(padded, signal...)
	for i := len(signal) - 2; i >= len(signal)-1-padLen; i-- {
		padded = append(padded, 2*signal[len(signal)-1]-signal[i])
	}

	// Forward pass
	bf.Reset()
	forward := bf.Apply(padded)

	// Backward pass
	reverse(forward)
	bf.Reset()
	backward := bf.Apply(forward)
	reverse(backward)

	output := make([]float64, len(signal))
	copy(output, backward[padLen:padLen+len(signal)])
	return output
}

// Reset clears the state of all cascade sections
func (bf *BandpassFilter) Reset() {
	for _, section := range bf.sections {
		section.Reset()
	}
}

// GetParameters returns the band edges
func (bf *BandpassFilter) GetParameters() (lowCut, highCut float64) {
	return bf.lowCut, bf.highCut
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
