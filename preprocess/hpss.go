package preprocess

import (
	"fmt"
	"math"

	"github.com/AbhiJ2706/cs489-project/algorithms/common"
	"github.com/AbhiJ2706/cs489-project/algorithms/spectral"
)

// HPSSConfig configures harmonic/percussive source separation
type HPSSConfig struct {
	WindowSize int `json:"window_size"`
	HopSize    int `json:"hop_size"`

	// Median filter lengths: harmonic enhancement filters along time,
	// percussive enhancement filters along frequency
	HarmonicLength   int `json:"harmonic_length"`
	PercussiveLength int `json:"percussive_length"`

	// Margin sharpens the separation mask; larger values demand a bin
	// be more clearly harmonic before it is kept
	Margin float64 `json:"margin"`

	// Power of the Wiener-style soft mask
	Power float64 `json:"power"`
}

// DefaultHPSSConfig returns separation settings that keep sustained
// piano partials while discarding hammer noise
func DefaultHPSSConfig() HPSSConfig {
	return HPSSConfig{
		WindowSize:       2048,
		HopSize:          512,
		HarmonicLength:   31,
		PercussiveLength: 31,
		Margin:           3.0,
		Power:            2.0,
	}
}

// HPSS separates harmonic from percussive content by median filtering
// the spectrogram: sustained tones form horizontal ridges (stable over
// time), transients form vertical ridges (broadband within a frame).
//
// Reference: Fitzgerald, D. (2010). "Harmonic/Percussive Separation
// using Median Filtering". Proc. DAFx-10.
type HPSS struct {
	config HPSSConfig
	stft   *spectral.STFT
}

// NewHPSS creates a harmonic/percussive separator
func NewHPSS(config HPSSConfig) *HPSS {
	return &HPSS{
		config: config,
		stft:   spectral.NewSTFT(),
	}
}

// Harmonic returns the harmonic component of the signal, preserving
// its length
func (h *HPSS) Harmonic(signal []float64, sampleRate int) ([]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	result, err := h.stft.Compute(signal, h.config.WindowSize, h.config.HopSize, sampleRate)
	if err != nil {
		return nil, err
	}

	numFrames := result.TimeFrames
	numBins := result.FreqBins
	if numFrames == 0 {
		return signal, nil
	}

	// Harmonic estimate: median along time for each frequency bin
	harmonic := make([][]float64, numFrames)
	for t := range harmonic {
		harmonic[t] = make([]float64, numBins)
	}
	column := make([]float64, numFrames)
	for f := 0; f < numBins; f++ {
		for t := 0; t < numFrames; t++ {
			column[t] = result.Magnitude[t][f]
		}
		filtered := common.MedianFilter(column, h.config.HarmonicLength)
		for t := 0; t < numFrames; t++ {
			harmonic[t][f] = filtered[t]
		}
	}

	// Percussive estimate: median along frequency for each frame
	percussive := make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		percussive[t] = common.MedianFilter(result.Magnitude[t], h.config.PercussiveLength)
	}

	// Soft mask with margin: harmonic energy must exceed margin times
	// the percussive estimate to pass at full strength
	p := h.config.Power
	for t := 0; t < numFrames; t++ {
		for f := 0; f < numBins; f++ {
			hp := math.Pow(harmonic[t][f], p)
			pp := math.Pow(h.config.Margin*percussive[t][f], p)

			mask := 0.0
			if hp+pp > 1e-10 {
				mask = hp / (hp + pp)
			}

			result.Magnitude[t][f] *= mask
		}
	}

	return h.stft.Inverse(result.Magnitude, result.Phase, h.config.WindowSize, h.config.HopSize, len(signal))
}
