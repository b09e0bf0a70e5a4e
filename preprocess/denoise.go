package preprocess

import (
	"fmt"

	"github.com/AbhiJ2706/cs489-project/algorithms/common"
	"github.com/AbhiJ2706/cs489-project/algorithms/spectral"
)

// SpectralGateConfig configures stationary spectral-gate noise reduction
type SpectralGateConfig struct {
	WindowSize int `json:"window_size"`
	HopSize    int `json:"hop_size"`

	// ThresholdSigma sets the per-bin gate at mean + sigma * stddev of
	// the bin's magnitude over the whole recording
	ThresholdSigma float64 `json:"threshold_sigma"`

	// PropDecrease is the fraction of energy removed from gated bins.
	// 1.0 silences them completely; lower values sound less artificial.
	PropDecrease float64 `json:"prop_decrease"`

	// Mask smoothing widths in bins/frames
	FreqSmooth int `json:"freq_smooth"`
	TimeSmooth int `json:"time_smooth"`
}

// DefaultSpectralGateConfig returns settings matched to stationary
// room noise under piano recordings
func DefaultSpectralGateConfig() SpectralGateConfig {
	return SpectralGateConfig{
		WindowSize:     2048,
		HopSize:        512,
		ThresholdSigma: 1.5,
		PropDecrease:   0.85,
		FreqSmooth:     5,
		TimeSmooth:     3,
	}
}

// SpectralGate implements stationary spectral gating: a noise profile
// is estimated per frequency bin from the whole recording, bins that
// never rise above their profile are attenuated, and the masked
// spectrogram is resynthesized with the original phase.
type SpectralGate struct {
	config SpectralGateConfig
	stft   *spectral.STFT
}

// NewSpectralGate creates a spectral gate denoiser
func NewSpectralGate(config SpectralGateConfig) *SpectralGate {
	return &SpectralGate{
		config: config,
		stft:   spectral.NewSTFT(),
	}
}

// Process denoises a signal, preserving its length
func (sg *SpectralGate) Process(signal []float64, sampleRate int) ([]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	result, err := sg.stft.Compute(signal, sg.config.WindowSize, sg.config.HopSize, sampleRate)
	if err != nil {
		return nil, err
	}

	numFrames := result.TimeFrames
	numBins := result.FreqBins
	if numFrames == 0 {
		return signal, nil
	}

	// Per-bin noise threshold: mean + sigma * stddev over time
	thresholds := make([]float64, numBins)
	binValues := make([]float64, numFrames)
	for f := 0; f < numBins; f++ {
		for t := 0; t < numFrames; t++ {
			binValues[t] = result.Magnitude[t][f]
		}
		thresholds[f] = common.Mean(binValues) + sg.config.ThresholdSigma*common.StandardDeviation(binValues)
	}

	// Binary mask, then smooth it so gain transitions don't ring
	mask := make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		mask[t] = make([]float64, numBins)
		for f := 0; f < numBins; f++ {
			if result.Magnitude[t][f] > thresholds[f] {
				mask[t][f] = 1.0
			}
		}
	}
	sg.smoothMask(mask)

	// Apply gain: kept bins pass, gated bins keep (1 - PropDecrease)
	floor := 1.0 - sg.config.PropDecrease
	for t := 0; t < numFrames; t++ {
		for f := 0; f < numBins; f++ {
			gain := floor + (1.0-floor)*mask[t][f]
			result.Magnitude[t][f] *= gain
		}
	}

	return sg.stft.Inverse(result.Magnitude, result.Phase, sg.config.WindowSize, sg.config.HopSize, len(signal))
}

// smoothMask applies moving averages along frequency then time
func (sg *SpectralGate) smoothMask(mask [][]float64) {
	if sg.config.FreqSmooth > 1 {
		for t := range mask {
			mask[t] = common.MovingAverage(mask[t], sg.config.FreqSmooth)
		}
	}

	if sg.config.TimeSmooth > 1 && len(mask) > 0 {
		numBins := len(mask[0])
		column := make([]float64, len(mask))
		for f := 0; f < numBins; f++ {
			for t := range mask {
				column[t] = mask[t][f]
			}
			smoothed := common.MovingAverage(column, sg.config.TimeSmooth)
			for t := range mask {
				mask[t][f] = smoothed[t]
			}
		}
	}
}
