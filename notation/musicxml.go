package notation

import (
	"encoding/xml"
	"fmt"
	"os"
)

// divisions is the number of duration units per quarter note in the
// emitted MusicXML; 4 gives sixteenth-note resolution
const divisions = 4

// Pitch spelling uses sharps for the black keys
var stepNames = [12]struct {
	step  string
	alter int
}{
	{"C", 0}, {"C", 1}, {"D", 0}, {"D", 1}, {"E", 0}, {"F", 0},
	{"F", 1}, {"G", 0}, {"G", 1}, {"A", 0}, {"A", 1}, {"B", 0},
}

var typeNames = map[float64]string{
	4.0:  "whole",
	2.0:  "half",
	1.0:  "quarter",
	0.5:  "eighth",
	0.25: "16th",
}

// MusicXML document structure (partwise, version 3.1)

type xmlScorePartwise struct {
	XMLName        xml.Name          `xml:"score-partwise"`
	Version        string            `xml:"version,attr"`
	Work           *xmlWork          `xml:"work,omitempty"`
	Identification xmlIdentification `xml:"identification"`
	PartList       xmlPartList       `xml:"part-list"`
	Parts          []xmlPart         `xml:"part"`
}

type xmlWork struct {
	Title string `xml:"work-title"`
}

type xmlIdentification struct {
	Creators []xmlCreator `xml:"creator"`
}

type xmlCreator struct {
	Type string `xml:"type,attr"`
	Name string `xml:",chardata"`
}

type xmlPartList struct {
	ScoreParts []xmlScorePart `xml:"score-part"`
}

type xmlScorePart struct {
	ID       string `xml:"id,attr"`
	PartName string `xml:"part-name"`
}

type xmlPart struct {
	ID       string       `xml:"id,attr"`
	Measures []xmlMeasure `xml:"measure"`
}

type xmlMeasure struct {
	Number     int            `xml:"number,attr"`
	Attributes *xmlAttributes `xml:"attributes,omitempty"`
	Direction  *xmlDirection  `xml:"direction,omitempty"`
	Notes      []xmlNote      `xml:"note"`
}

type xmlAttributes struct {
	Divisions int     `xml:"divisions"`
	Key       xmlKey  `xml:"key"`
	Time      xmlTime `xml:"time"`
	Clef      xmlClef `xml:"clef"`
}

type xmlKey struct {
	Fifths int `xml:"fifths"`
}

type xmlTime struct {
	Beats    int `xml:"beats"`
	BeatType int `xml:"beat-type"`
}

type xmlClef struct {
	Sign string `xml:"sign"`
	Line int    `xml:"line"`
}

type xmlDirection struct {
	DirectionType xmlDirectionType `xml:"direction-type"`
	Sound         *xmlSound        `xml:"sound,omitempty"`
}

type xmlDirectionType struct {
	Metronome xmlMetronome `xml:"metronome"`
}

type xmlMetronome struct {
	BeatUnit  string `xml:"beat-unit"`
	PerMinute int    `xml:"per-minute"`
}

type xmlSound struct {
	Tempo float64 `xml:"tempo,attr"`
}

type xmlNote struct {
	Chord     *xmlEmpty     `xml:"chord,omitempty"`
	Rest      *xmlEmpty     `xml:"rest,omitempty"`
	Pitch     *xmlPitch     `xml:"pitch,omitempty"`
	Duration  int           `xml:"duration"`
	Ties      []xmlTie      `xml:"tie,omitempty"`
	Type      string        `xml:"type"`
	Notations *xmlNotations `xml:"notations,omitempty"`
}

type xmlEmpty struct{}

type xmlPitch struct {
	Step   string `xml:"step"`
	Alter  int    `xml:"alter"`
	Octave int    `xml:"octave"`
}

type xmlTie struct {
	Type string `xml:"type,attr"`
}

type xmlNotations struct {
	Tieds []xmlTied `xml:"tied,omitempty"`
}

type xmlTied struct {
	Type string `xml:"type,attr"`
}

// Serializer writes a validated ScoreModel as a MusicXML document.
// The document is built directly from the model; nothing is patched
// into the XML after the fact.
type Serializer struct{}

// NewSerializer creates a MusicXML serializer
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Serialize renders the score as a MusicXML byte stream
func (sz *Serializer) Serialize(score *ScoreModel) ([]byte, error) {
	if err := score.Validate(); err != nil {
		return nil, err
	}

	doc := xmlScorePartwise{
		Version: "3.1",
		Identification: xmlIdentification{
			Creators: []xmlCreator{{Type: "composer", Name: composerName(score)}},
		},
	}

	if score.Title != "" {
		doc.Work = &xmlWork{Title: score.Title}
	}

	for _, part := range score.Parts() {
		doc.PartList.ScoreParts = append(doc.PartList.ScoreParts, xmlScorePart{
			ID:       part.ID,
			PartName: part.Name,
		})
		doc.Parts = append(doc.Parts, sz.buildPart(score, part))
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling score: %w", err)
	}

	header := []byte(xml.Header +
		`<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.1 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">` + "\n")
	return append(header, body...), nil
}

// WriteFile serializes the score to a file
func (sz *Serializer) WriteFile(score *ScoreModel, path string) error {
	data, err := sz.Serialize(score)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (sz *Serializer) buildPart(score *ScoreModel, part *Part) xmlPart {
	xp := xmlPart{ID: part.ID}

	for i, measure := range part.Measures {
		xm := xmlMeasure{Number: measure.Number}

		// Attributes and tempo go on the first measure only
		if i == 0 {
			xm.Attributes = &xmlAttributes{
				Divisions: divisions,
				Key:       xmlKey{Fifths: 0},
				Time:      xmlTime{Beats: 4, BeatType: 4},
				Clef:      clefFor(part.Clef),
			}
			xm.Direction = &xmlDirection{
				DirectionType: xmlDirectionType{
					Metronome: xmlMetronome{
						BeatUnit:  "quarter",
						PerMinute: int(score.BPM),
					},
				},
				Sound: &xmlSound{Tempo: score.BPM},
			}
		}

		for _, el := range measure.Elements {
			xm.Notes = append(xm.Notes, sz.buildElement(el)...)
		}

		xp.Measures = append(xp.Measures, xm)
	}

	return xp
}

func (sz *Serializer) buildElement(el Element) []xmlNote {
	switch v := el.(type) {
	case Rest:
		return []xmlNote{{
			Rest:     &xmlEmpty{},
			Duration: durationUnits(v.Duration),
			Type:     typeNames[v.Duration],
		}}

	case Note:
		return []xmlNote{sz.buildNote(v, false)}

	case Chord:
		notes := make([]xmlNote, len(v.Notes))
		for i, member := range v.Notes {
			notes[i] = sz.buildNote(member, i > 0)
		}
		return notes
	}

	return nil
}

func (sz *Serializer) buildNote(note Note, chordMember bool) xmlNote {
	xn := xmlNote{
		Pitch:    pitchFor(note.MIDINote),
		Duration: durationUnits(note.Duration),
		Type:     typeNames[note.Duration],
	}

	if chordMember {
		xn.Chord = &xmlEmpty{}
	}

	// tie is the sounding connection, tied the printed arc
	if note.TieStop {
		xn.Ties = append(xn.Ties, xmlTie{Type: "stop"})
	}
	if note.TieStart {
		xn.Ties = append(xn.Ties, xmlTie{Type: "start"})
	}
	if len(xn.Ties) > 0 {
		notations := &xmlNotations{}
		for _, tie := range xn.Ties {
			notations.Tieds = append(notations.Tieds, xmlTied{Type: tie.Type})
		}
		xn.Notations = notations
	}

	return xn
}

func pitchFor(midiNote int) *xmlPitch {
	spelling := stepNames[((midiNote%12)+12)%12]
	return &xmlPitch{
		Step:   spelling.step,
		Alter:  spelling.alter,
		Octave: midiNote/12 - 1,
	}
}

func clefFor(clef Clef) xmlClef {
	if clef == BassClef {
		return xmlClef{Sign: "F", Line: 4}
	}
	return xmlClef{Sign: "G", Line: 2}
}

func durationUnits(quarterLength float64) int {
	return int(quarterLength * divisions)
}

func composerName(score *ScoreModel) string {
	if score.Composer != "" {
		return score.Composer
	}
	return "Transcribed"
}
