// Package export writes the quantized note events in interchange
// formats alongside the notation document: a JSON event list for
// downstream tooling and a Standard MIDI File for synthesis.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/AbhiJ2706/cs489-project/logging"
)

// TicksPerQuarter is the tick resolution of exported MIDI files
const TicksPerQuarter = 480

// Event is one quantized note with tick-grid timing
type Event struct {
	MIDINote   int `json:"midi_note"`
	Velocity   int `json:"velocity"`
	StartTicks int `json:"start_ticks"`
	EndTicks   int `json:"end_ticks"`
}

// EventDocument is the JSON export envelope
type EventDocument struct {
	Title           string  `json:"title"`
	BPM             float64 `json:"bpm"`
	TicksPerQuarter int     `json:"ticks_per_quarter"`
	Events          []Event `json:"events"`
}

// Exporter writes event lists to disk
type Exporter struct {
	logger logging.Logger
}

// NewExporter creates an exporter
func NewExporter() *Exporter {
	return &Exporter{
		logger: logging.WithFields(logging.Fields{
			"component": "event_exporter",
		}),
	}
}

// WriteJSON writes the events as an indented JSON document
func (ex *Exporter) WriteJSON(doc *EventDocument, path string) error {
	if doc.TicksPerQuarter == 0 {
		doc.TicksPerQuarter = TicksPerQuarter
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling events: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	ex.logger.Debug("wrote event JSON", logging.Fields{
		"path":   path,
		"events": len(doc.Events),
	})

	return nil
}

// WriteSMF writes the events as a single-track Standard MIDI File at
// TicksPerQuarter resolution
func (ex *Exporter) WriteSMF(doc *EventDocument, path string) error {
	type midiMessage struct {
		ticks int
		// NoteOff sorts before NoteOn at the same tick so repeated
		// notes re-strike instead of cancelling
		order int
		msg   midi.Message
	}

	var messages []midiMessage
	for _, ev := range doc.Events {
		key := uint8(ev.MIDINote)
		velocity := uint8(ev.Velocity)

		messages = append(messages, midiMessage{
			ticks: ev.StartTicks,
			order: 1,
			msg:   midi.NoteOn(0, key, velocity),
		})
		messages = append(messages, midiMessage{
			ticks: ev.EndTicks,
			order: 0,
			msg:   midi.NoteOff(0, key),
		})
	}

	sort.Slice(messages, func(i, j int) bool {
		if messages[i].ticks != messages[j].ticks {
			return messages[i].ticks < messages[j].ticks
		}
		return messages[i].order < messages[j].order
	})

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(doc.Title))
	track.Add(0, smf.MetaTempo(doc.BPM))
	track.Add(0, midi.ProgramChange(0, 0)) // Acoustic grand piano

	lastTicks := 0
	for _, m := range messages {
		delta := m.ticks - lastTicks
		if delta < 0 {
			delta = 0
		}
		track.Add(uint32(delta), m.msg)
		lastTicks = m.ticks
	}
	track.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)
	if err := s.Add(track); err != nil {
		return fmt.Errorf("adding MIDI track: %w", err)
	}

	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	ex.logger.Debug("wrote MIDI file", logging.Fields{
		"path":   path,
		"events": len(doc.Events),
	})

	return nil
}
