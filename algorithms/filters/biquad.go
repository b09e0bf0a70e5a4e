package filters

import (
	"math"
)

// Biquad implements a second-order IIR filter section.
//
// Coefficients follow the cookbook formulas from Robert Bristow-Johnson's
// "Cookbook formulae for audio EQ biquad filter coefficients"
// Reference: https://webaudio.github.io/Audio-EQ-Cookbook/audio-eq-cookbook.html
type Biquad struct {
	sampleRate int

	// Normalized coefficients (a0 = 1)
	b0, b1, b2 float64
	a1, a2     float64

	// State variables for direct form II implementation
	w1, w2 float64
}

// NewBiquadLowpass creates a second-order lowpass section
func NewBiquadLowpass(sampleRate int, cutoffFreq, q float64) *Biquad {
	cosW0, alpha := biquadParams(sampleRate, cutoffFreq, q)

	b1 := 1.0 - cosW0
	b0 := b1 / 2.0
	b2 := b0

	return normalize(sampleRate, b0, b1, b2, 1.0+alpha, -2.0*cosW0, 1.0-alpha)
}

// NewBiquadHighpass creates a second-order highpass section
func NewBiquadHighpass(sampleRate int, cutoffFreq, q float64) *Biquad {
	cosW0, alpha := biquadParams(sampleRate, cutoffFreq, q)

	b0 := (1.0 + cosW0) / 2.0
	b1 := -(1.0 + cosW0)
	b2 := b0

	return normalize(sampleRate, b0, b1, b2, 1.0+alpha, -2.0*cosW0, 1.0-alpha)
}

// NewBiquadBandpass creates a second-order bandpass section with
// constant 0 dB peak gain
func NewBiquadBandpass(sampleRate int, centerFreq, q float64) *Biquad {
	cosW0, alpha := biquadParams(sampleRate, centerFreq, q)

	b0 := alpha
	b1 := 0.0
	b2 := -alpha

	return normalize(sampleRate, b0, b1, b2, 1.0+alpha, -2.0*cosW0, 1.0-alpha)
}

// NewBiquadLowShelf creates a low-shelf section boosting (or cutting)
// frequencies below cutoffFreq by gainDB
func NewBiquadLowShelf(sampleRate int, cutoffFreq, gainDB, q float64) *Biquad {
	cosW0, alpha := biquadParams(sampleRate, cutoffFreq, q)

	a := math.Pow(10.0, gainDB/40.0)
	sqrtA := math.Sqrt(a)

	b0 := a * ((a + 1) - (a-1)*cosW0 + 2*sqrtA*alpha)
	b1 := 2 * a * ((a - 1) - (a+1)*cosW0)
	b2 := a * ((a + 1) - (a-1)*cosW0 - 2*sqrtA*alpha)
	a0 := (a + 1) + (a-1)*cosW0 + 2*sqrtA*alpha
	a1 := -2 * ((a - 1) + (a+1)*cosW0)
	a2 := (a + 1) + (a-1)*cosW0 - 2*sqrtA*alpha

	return normalize(sampleRate, b0, b1, b2, a0, a1, a2)
}

func biquadParams(sampleRate int, freq, q float64) (cosW0, alpha float64) {
	w0 := 2.0 * math.Pi * freq / float64(sampleRate)

	// Prevent numerical issues at Nyquist
	if w0 >= math.Pi {
		w0 = math.Pi * 0.99
	}

	cosW0 = math.Cos(w0)
	alpha = math.Sin(w0) / (2.0 * q)
	return cosW0, alpha
}

func normalize(sampleRate int, b0, b1, b2, a0, a1, a2 float64) *Biquad {
	return &Biquad{
		sampleRate: sampleRate,
		b0:         b0 / a0,
		b1:         b1 / a0,
		b2:         b2 / a0,
		a1:         a1 / a0,
		a2:         a2 / a0,
	}
}

// Process applies the filter to a single sample.
// Uses Direct Form II for numerical stability:
//
//	w[n] = x[n] - a1*w[n-1] - a2*w[n-2]
//	y[n] = b0*w[n] + b1*w[n-1] + b2*w[n-2]
func (bq *Biquad) Process(input float64) float64 {
	w := input - bq.a1*bq.w1 - bq.a2*bq.w2
	output := bq.b0*w + bq.b1*bq.w1 + bq.b2*bq.w2

	bq.w2 = bq.w1
	bq.w1 = w

	return output
}

// ProcessBuffer applies the filter to an entire buffer of samples
func (bq *Biquad) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = bq.Process(sample)
	}
	return output
}

// ProcessBufferInPlace filters the buffer without allocating
func (bq *Biquad) ProcessBufferInPlace(buf []float64) {
	for i, sample := range buf {
		buf[i] = bq.Process(sample)
	}
}

// Reset clears the filter's internal state (delay line).
// Call this when processing discontinuous audio segments.
func (bq *Biquad) Reset() {
	bq.w1, bq.w2 = 0.0, 0.0
}

// FrequencyResponse computes the magnitude and phase response at a frequency.
// Returns magnitude (linear scale) and phase (radians).
func (bq *Biquad) FrequencyResponse(frequency float64) (magnitude, phase float64) {
	w := 2.0 * math.Pi * frequency / float64(bq.sampleRate)

	cosW := math.Cos(w)
	sinW := math.Sin(w)
	cos2W := math.Cos(2 * w)
	sin2W := math.Sin(2 * w)

	// Numerator: b0 + b1*e^-jw + b2*e^-j2w
	numReal := bq.b0 + bq.b1*cosW + bq.b2*cos2W
	numImag := -bq.b1*sinW - bq.b2*sin2W

	// Denominator: 1 + a1*e^-jw + a2*e^-j2w
	denReal := 1.0 + bq.a1*cosW + bq.a2*cos2W
	denImag := -bq.a1*sinW - bq.a2*sin2W

	denMagSq := denReal*denReal + denImag*denImag

	hReal := (numReal*denReal + numImag*denImag) / denMagSq
	hImag := (numImag*denReal - numReal*denImag) / denMagSq

	magnitude = math.Sqrt(hReal*hReal + hImag*hImag)
	phase = math.Atan2(hImag, hReal)

	return magnitude, phase
}
