package preprocess

import (
	"math"

	"github.com/AbhiJ2706/cs489-project/algorithms/filters"
)

// DynamicsConfig configures the level-shaping chain applied after
// denoising: gate out residual bleed, compress the attack peaks, boost
// the low shelf so bass fundamentals survive band-limiting, then make
// up gain.
type DynamicsConfig struct {
	GateThresholdDB float64 `json:"gate_threshold_db"`
	GateRatio       float64 `json:"gate_ratio"`
	GateReleaseMs   float64 `json:"gate_release_ms"`

	CompThresholdDB float64 `json:"comp_threshold_db"`
	CompRatio       float64 `json:"comp_ratio"`

	ShelfFreqHz float64 `json:"shelf_freq_hz"`
	ShelfGainDB float64 `json:"shelf_gain_db"`
	ShelfQ      float64 `json:"shelf_q"`

	MakeupGainDB float64 `json:"makeup_gain_db"`
}

// DefaultDynamicsConfig returns the chain settings for piano material
func DefaultDynamicsConfig() DynamicsConfig {
	return DynamicsConfig{
		GateThresholdDB: -40.0,
		GateRatio:       2.0,
		GateReleaseMs:   250.0,
		CompThresholdDB: -20.0,
		CompRatio:       4.0,
		ShelfFreqHz:     300.0,
		ShelfGainDB:     6.0,
		ShelfQ:          1.0,
		MakeupGainDB:    3.0,
	}
}

// DynamicsChain applies gate, compressor, low shelf and makeup gain in
// sequence. Gate and compressor share a peak envelope follower with a
// fast attack and the configured release.
type DynamicsChain struct {
	config DynamicsConfig
}

// NewDynamicsChain creates a dynamics chain
func NewDynamicsChain(config DynamicsConfig) *DynamicsChain {
	return &DynamicsChain{config: config}
}

// Process runs the chain on a mono signal
func (dc *DynamicsChain) Process(signal []float64, sampleRate int) []float64 {
	gated := dc.gate(signal, sampleRate)
	compressed := dc.compress(gated, sampleRate)

	shelf := filters.NewLowShelfFilter(sampleRate, dc.config.ShelfFreqHz, dc.config.ShelfGainDB, dc.config.ShelfQ)
	shelved := shelf.Apply(compressed)

	gain := dbToLinear(dc.config.MakeupGainDB)
	output := make([]float64, len(shelved))
	for i, sample := range shelved {
		output[i] = sample * gain
	}

	return output
}

// gate applies downward expansion below the gate threshold
func (dc *DynamicsChain) gate(signal []float64, sampleRate int) []float64 {
	env := newEnvelopeFollower(sampleRate, 10.0, dc.config.GateReleaseMs)

	output := make([]float64, len(signal))
	for i, sample := range signal {
		levelDB := linearToDB(env.process(sample))

		gainDB := 0.0
		if levelDB < dc.config.GateThresholdDB {
			// Downward expansion: every dB below threshold costs
			// (ratio - 1) additional dB
			gainDB = (levelDB - dc.config.GateThresholdDB) * (dc.config.GateRatio - 1.0)
		}

		output[i] = sample * dbToLinear(gainDB)
	}

	return output
}

// compress applies downward compression above the compressor threshold
func (dc *DynamicsChain) compress(signal []float64, sampleRate int) []float64 {
	env := newEnvelopeFollower(sampleRate, 5.0, 100.0)

	output := make([]float64, len(signal))
	for i, sample := range signal {
		levelDB := linearToDB(env.process(sample))

		gainDB := 0.0
		if levelDB > dc.config.CompThresholdDB {
			over := levelDB - dc.config.CompThresholdDB
			gainDB = over*(1.0/dc.config.CompRatio) - over
		}

		output[i] = sample * dbToLinear(gainDB)
	}

	return output
}

// envelopeFollower tracks peak level with asymmetric smoothing
type envelopeFollower struct {
	attackCoeff  float64
	releaseCoeff float64
	envelope     float64
}

func newEnvelopeFollower(sampleRate int, attackMs, releaseMs float64) *envelopeFollower {
	return &envelopeFollower{
		attackCoeff:  timeCoeff(sampleRate, attackMs),
		releaseCoeff: timeCoeff(sampleRate, releaseMs),
	}
}

func (ef *envelopeFollower) process(sample float64) float64 {
	level := math.Abs(sample)

	coeff := ef.releaseCoeff
	if level > ef.envelope {
		coeff = ef.attackCoeff
	}

	ef.envelope = coeff*ef.envelope + (1.0-coeff)*level
	return ef.envelope
}

func timeCoeff(sampleRate int, ms float64) float64 {
	if ms <= 0 {
		return 0.0
	}
	return math.Exp(-1.0 / (float64(sampleRate) * ms / 1000.0))
}

func dbToLinear(db float64) float64 {
	return math.Pow(10.0, db/20.0)
}

func linearToDB(linear float64) float64 {
	if linear < 1e-10 {
		linear = 1e-10
	}
	return 20.0 * math.Log10(linear)
}
