package transcribe

// NoteEvent is a detected note in absolute time, before quantization
type NoteEvent struct {
	MIDINote int     `json:"midi_note"`
	Velocity int     `json:"velocity"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

// QuantizedNote is a note snapped to the tick grid
type QuantizedNote struct {
	MIDINote   int `json:"midi_note"`
	Velocity   int `json:"velocity"`
	StartTicks int `json:"start_ticks"`
	EndTicks   int `json:"end_ticks"`
}

// StartBeats returns the note's start in quarter lengths
func (q QuantizedNote) StartBeats() float64 {
	return float64(q.StartTicks) / TicksPerQuarter
}

// DurationBeats returns the note's duration in quarter lengths
func (q QuantizedNote) DurationBeats() float64 {
	return float64(q.EndTicks-q.StartTicks) / TicksPerQuarter
}
