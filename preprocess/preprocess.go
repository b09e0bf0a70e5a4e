package preprocess

import (
	"fmt"
	"math"

	"github.com/AbhiJ2706/cs489-project/algorithms/filters"
	"github.com/AbhiJ2706/cs489-project/logging"
)

// Config holds preprocessing chain parameters
type Config struct {
	Denoise  SpectralGateConfig `json:"denoise"`
	Dynamics DynamicsConfig     `json:"dynamics"`
	HPSS     HPSSConfig         `json:"hpss"`

	// Band-limit edges in Hz. The band covers the piano's fundamentals
	// with headroom for the lowest and highest partials of interest.
	BandLowHz  float64 `json:"band_low_hz"`
	BandHighHz float64 `json:"band_high_hz"`
}

// DefaultConfig returns the preprocessing parameters used for solo
// piano recordings
func DefaultConfig() Config {
	return Config{
		Denoise:    DefaultSpectralGateConfig(),
		Dynamics:   DefaultDynamicsConfig(),
		HPSS:       DefaultHPSSConfig(),
		BandLowHz:  25.0,
		BandHighHz: 4200.0,
	}
}

// Preprocessor cleans a decoded signal before analysis. Stages run in
// order: peak normalization, spectral-gate denoising, dynamics shaping,
// harmonic/percussive separation (keeping the harmonic part), and
// band-limiting.
//
// Every stage preserves signal length, so sample indices computed on
// the processed signal map directly back to the original.
type Preprocessor struct {
	config   Config
	denoiser *SpectralGate
	dynamics *DynamicsChain
	hpss     *HPSS
	logger   logging.Logger
}

// NewPreprocessor creates a preprocessor with the given configuration
func NewPreprocessor(config Config) *Preprocessor {
	return &Preprocessor{
		config:   config,
		denoiser: NewSpectralGate(config.Denoise),
		dynamics: NewDynamicsChain(config.Dynamics),
		hpss:     NewHPSS(config.HPSS),
		logger: logging.WithFields(logging.Fields{
			"component": "preprocessor",
		}),
	}
}

// Process runs the full chain on a mono signal at the given sample rate
func (p *Preprocessor) Process(signal []float64, sampleRate int) ([]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	p.logger.Debug("preprocessing signal", logging.Fields{
		"samples":     len(signal),
		"sample_rate": sampleRate,
	})

	normalized := normalizePeak(signal)

	denoised, err := p.denoiser.Process(normalized, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("denoise: %w", err)
	}

	shaped := p.dynamics.Process(denoised, sampleRate)

	harmonic, err := p.hpss.Harmonic(shaped, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("harmonic separation: %w", err)
	}

	bandpass, err := filters.NewBandpassFilter(sampleRate, p.config.BandLowHz, p.config.BandHighHz)
	if err != nil {
		return nil, fmt.Errorf("band-limit: %w", err)
	}
	limited := bandpass.ApplyZeroPhase(harmonic)

	if len(limited) != len(signal) {
		return nil, fmt.Errorf("length changed during preprocessing: %d != %d", len(limited), len(signal))
	}

	return limited, nil
}

// normalizePeak scales the signal so its absolute peak is 1.0. A silent
// signal is returned unchanged.
func normalizePeak(signal []float64) []float64 {
	peak := 0.0
	for _, s := range signal {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}

	out := make([]float64, len(signal))
	if peak == 0 {
		copy(out, signal)
		return out
	}
	for i, s := range signal {
		out[i] = s / peak
	}
	return out
}
