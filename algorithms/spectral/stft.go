package spectral

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/AbhiJ2706/cs489-project/algorithms/windowing"
)

// STFT provides Short-Time Fourier Transform analysis and resynthesis.
type STFT struct {
	fft *FFT
}

// STFTResult holds the result of STFT analysis
type STFTResult struct {
	Magnitude      [][]float64    `json:"magnitude"`       // Time x Frequency magnitude matrix
	Phase          [][]float64    `json:"phase"`           // Time x Frequency phase matrix
	Complex        [][]complex128 `json:"-"`               // Raw complex spectrogram (not serialized)
	TimeFrames     int            `json:"time_frames"`     // Number of time frames
	FreqBins       int            `json:"freq_bins"`       // Number of frequency bins
	SampleRate     int            `json:"sample_rate"`     // Sample rate
	WindowSize     int            `json:"window_size"`     // FFT window size
	HopSize        int            `json:"hop_size"`        // Hop size between frames
	FreqResolution float64        `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64        `json:"time_resolution"` // Time resolution (seconds/frame)
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft: NewFFT(),
	}
}

// Compute computes the STFT of a signal with a Hann window.
func (s *STFT) Compute(signal []float64, windowSize, hopSize, sampleRate int) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}

	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}

	// Zero-pad short signals so at least one frame exists
	if len(signal) < windowSize {
		padded := make([]float64, windowSize)
		copy(padded, signal)
		signal = padded
	}

	numFrames := (len(signal)-windowSize)/hopSize + 1
	freqBins := windowSize/2 + 1
	window := windowing.NewHann(windowSize, false)

	magnitude := make([][]float64, numFrames)
	phase := make([][]float64, numFrames)
	complexSpectrum := make([][]complex128, numFrames)

	frame := make([]float64, windowSize)
	for t := 0; t < numFrames; t++ {
		start := t * hopSize
		copy(frame, signal[start:start+windowSize])
		windowed := window.Apply(frame)

		spectrum := s.fft.Compute(windowed)

		magnitude[t] = make([]float64, freqBins)
		phase[t] = make([]float64, freqBins)
		complexSpectrum[t] = make([]complex128, freqBins)

		for f := 0; f < freqBins; f++ {
			complexSpectrum[t][f] = spectrum[f]
			magnitude[t][f] = cmplx.Abs(spectrum[f])
			phase[t][f] = cmplx.Phase(spectrum[f])
		}
	}

	return &STFTResult{
		Magnitude:      magnitude,
		Phase:          phase,
		Complex:        complexSpectrum,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}, nil
}

// Inverse reconstructs a time-domain signal from a (possibly modified)
// magnitude matrix combined with the original phase, using overlap-add.
// The result is trimmed or zero-padded to targetLength samples.
func (s *STFT) Inverse(magnitude [][]float64, phase [][]float64, windowSize, hopSize, targetLength int) ([]float64, error) {
	if len(magnitude) == 0 {
		return nil, fmt.Errorf("empty spectrogram")
	}

	if len(magnitude) != len(phase) {
		return nil, fmt.Errorf("magnitude frames (%d) don't match phase frames (%d)", len(magnitude), len(phase))
	}

	numFrames := len(magnitude)
	outLength := (numFrames-1)*hopSize + windowSize

	output := make([]float64, outLength)
	windowSum := make([]float64, outLength)
	window := windowing.NewHann(windowSize, false)
	coeffs := window.GetCoefficients()

	spectrum := make([]complex128, windowSize)
	for t := 0; t < numFrames; t++ {
		// Rebuild the full conjugate-symmetric spectrum from the half kept
		freqBins := len(magnitude[t])
		for f := 0; f < freqBins; f++ {
			spectrum[f] = complex(magnitude[t][f]*math.Cos(phase[t][f]), magnitude[t][f]*math.Sin(phase[t][f]))
		}
		for f := freqBins; f < windowSize; f++ {
			mirror := windowSize - f
			spectrum[f] = cmplx.Conj(spectrum[mirror])
		}

		frame := s.fft.ComputeInverseReal(spectrum)

		start := t * hopSize
		for i := 0; i < windowSize; i++ {
			output[start+i] += frame[i] * coeffs[i]
			windowSum[start+i] += coeffs[i] * coeffs[i]
		}
	}

	// Normalize by accumulated window energy
	for i := range output {
		if windowSum[i] > 1e-10 {
			output[i] /= windowSum[i]
		}
	}

	if targetLength <= 0 || targetLength == outLength {
		return output, nil
	}
	if targetLength < outLength {
		return output[:targetLength], nil
	}
	padded := make([]float64, targetLength)
	copy(padded, output)
	return padded, nil
}
