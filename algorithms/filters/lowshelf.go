package filters

// LowShelfFilter boosts or cuts frequencies below a cutoff by a fixed
// gain, leaving higher frequencies untouched. Used to reinforce the
// fundamental of low piano notes before analysis.
type LowShelfFilter struct {
	sampleRate int
	cutoffFreq float64
	gainDB     float64
	biquad     *Biquad
}

// NewLowShelfFilter creates a low-shelf filter with the given cutoff,
// gain in dB, and shelf slope Q
func NewLowShelfFilter(sampleRate int, cutoffFreq, gainDB, q float64) *LowShelfFilter {
	return &LowShelfFilter{
		sampleRate: sampleRate,
		cutoffFreq: cutoffFreq,
		gainDB:     gainDB,
		biquad:     NewBiquadLowShelf(sampleRate, cutoffFreq, gainDB, q),
	}
}

// Apply filters a signal, returning a new buffer
func (ls *LowShelfFilter) Apply(signal []float64) []float64 {
	ls.biquad.Reset()
	return ls.biquad.ProcessBuffer(signal)
}

// GetParameters returns the cutoff frequency and gain
func (ls *LowShelfFilter) GetParameters() (cutoffFreq, gainDB float64) {
	return ls.cutoffFreq, ls.gainDB
}
