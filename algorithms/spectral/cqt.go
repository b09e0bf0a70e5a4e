package spectral

import (
	"fmt"
	"math"
	"math/cmplx"
)

// CQT computes a Constant-Q Transform with logarithmic frequency spacing
//
// Unlike the STFT's linear frequency grid, CQT bins follow musical note
// spacing: f_k = f_min * 2^(k/bins_per_octave). With 12 bins per octave
// each bin lands on a semitone, which makes the transform directly usable
// for pitch detection across the full piano range.
//
// Reference: Brown, J.C. (1991). "Calculation of a constant Q spectral
// transform". Journal of the Acoustical Society of America.
type CQT struct {
	sampleRate    int
	fft           *FFT
	minFreq       float64 // Lowest bin frequency (A0 = 27.5 Hz for piano)
	numBins       int     // Total number of CQT bins
	binsPerOctave int     // Bins per octave (12 = semitone resolution)
	qFactor       float64 // Quality factor (frequency/bandwidth)

	// Pre-computed spectral kernels
	kernels        [][]complex128
	freqBins       []float64
	fftSize        int
	kernelComputed bool
}

// CQTResult holds a constant-Q spectrogram
type CQTResult struct {
	Magnitude     [][]float64 `json:"magnitude"` // [time][bin]
	FreqBins      []float64   `json:"freq_bins"` // Center frequency per bin (Hz)
	TimeFrames    int         `json:"time_frames"`
	NumBins       int         `json:"num_bins"`
	BinsPerOctave int         `json:"bins_per_octave"`
	MinFreq       float64     `json:"min_freq"`
	HopSize       int         `json:"hop_size"`
	SampleRate    int         `json:"sample_rate"`
}

// NewCQT creates a new constant-Q transform calculator
func NewCQT(sampleRate int, minFreq float64, numBins, binsPerOctave int) *CQT {
	// Q chosen so adjacent bins' bandwidths tile the octave without gaps
	q := 1.0 / (math.Pow(2.0, 1.0/float64(binsPerOctave)) - 1.0)

	return &CQT{
		sampleRate:    sampleRate,
		fft:           NewFFT(),
		minFreq:       minFreq,
		numBins:       numBins,
		binsPerOctave: binsPerOctave,
		qFactor:       q,
	}
}

// NewCQTPiano creates a CQT covering the full piano range: 84 semitone
// bins starting at A0 (27.5 Hz), seven octaves up to A7
func NewCQTPiano(sampleRate int) *CQT {
	return NewCQT(sampleRate, 27.5, 84, 12)
}

// Compute calculates the constant-Q spectrogram of a signal.
// Each frame's magnitudes are normalized by that frame's own maximum, so
// peak thresholds measure salience within the frame rather than loudness
// relative to the rest of the recording.
func (c *CQT) Compute(signal []float64, hopSize int) (*CQTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("invalid hop size: %d", hopSize)
	}

	if !c.kernelComputed {
		if err := c.computeKernels(); err != nil {
			return nil, err
		}
	}

	numFrames := len(signal)/hopSize + 1

	magnitude := make([][]float64, numFrames)

	for frameIdx := 0; frameIdx < numFrames; frameIdx++ {
		startIdx := frameIdx * hopSize

		// Extract frame centered on the hop position, zero-padded at edges
		frame := make([]float64, c.fftSize)
		offset := startIdx - c.fftSize/2
		for i := range frame {
			srcIdx := offset + i
			if srcIdx >= 0 && srcIdx < len(signal) {
				frame[i] = signal[srcIdx]
			}
		}

		frameFFT := c.fft.Compute(frame)

		// Pointwise multiplication in frequency domain (convolution in time)
		cqtFrame := make([]float64, c.numBins)
		frameMax := 0.0
		for k := range c.kernels {
			bin := complex(0, 0)
			for n := 0; n < len(frameFFT) && n < len(c.kernels[k]); n++ {
				bin += frameFFT[n] * cmplx.Conj(c.kernels[k][n])
			}
			cqtFrame[k] = cmplx.Abs(bin)
			if cqtFrame[k] > frameMax {
				frameMax = cqtFrame[k]
			}
		}

		if frameMax > 0 {
			for k := range cqtFrame {
				cqtFrame[k] /= frameMax
			}
		}

		magnitude[frameIdx] = cqtFrame
	}

	return &CQTResult{
		Magnitude:     magnitude,
		FreqBins:      c.freqBins,
		TimeFrames:    numFrames,
		NumBins:       c.numBins,
		BinsPerOctave: c.binsPerOctave,
		MinFreq:       c.minFreq,
		HopSize:       hopSize,
		SampleRate:    c.sampleRate,
	}, nil
}

// BinFrequency returns the center frequency of a CQT bin
func (c *CQT) BinFrequency(bin int) float64 {
	return c.minFreq * math.Pow(2.0, float64(bin)/float64(c.binsPerOctave))
}

// computeKernels pre-computes the spectral CQT kernels
func (c *CQT) computeKernels() error {
	c.freqBins = make([]float64, c.numBins)
	for k := range c.freqBins {
		c.freqBins[k] = c.BinFrequency(k)
	}

	nyquist := float64(c.sampleRate) / 2.0
	if c.freqBins[c.numBins-1] >= nyquist {
		return fmt.Errorf("highest CQT bin (%.1f Hz) exceeds Nyquist (%.1f Hz)",
			c.freqBins[c.numBins-1], nyquist)
	}

	// Lowest frequency has the longest kernel; size the FFT to fit it
	maxKernelLength := c.kernelLength(c.freqBins[0])
	c.fftSize = nextPowerOfTwo(maxKernelLength)

	c.kernels = make([][]complex128, c.numBins)

	for k, freq := range c.freqBins {
		kernelLength := c.kernelLength(freq)

		// Hann-windowed complex exponential, centered in the FFT frame
		kernel := make([]float64, c.fftSize)
		kernelImag := make([]float64, c.fftSize)
		start := (c.fftSize - kernelLength) / 2

		norm := 1.0 / float64(kernelLength)
		for n := 0; n < kernelLength; n++ {
			window := 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(n)/float64(kernelLength)))
			phase := 2.0 * math.Pi * c.qFactor * float64(n) / float64(kernelLength)

			kernel[start+n] = norm * window * math.Cos(phase)
			kernelImag[start+n] = norm * window * math.Sin(phase)
		}

		// Spectral kernel: FFT of real and imaginary parts combined
		realFFT := c.fft.Compute(kernel)
		imagFFT := c.fft.Compute(kernelImag)

		spectral := make([]complex128, c.fftSize)
		for n := range spectral {
			spectral[n] = realFFT[n] + complex(0, 1)*imagFFT[n]
		}
		c.kernels[k] = spectral
	}

	c.kernelComputed = true
	return nil
}

// kernelLength returns the time-domain kernel length for a frequency
func (c *CQT) kernelLength(frequency float64) int {
	length := int(math.Ceil(c.qFactor * float64(c.sampleRate) / frequency))
	if length < 3 {
		length = 3
	}
	return length
}

// nextPowerOfTwo returns the smallest power of two >= n
func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
