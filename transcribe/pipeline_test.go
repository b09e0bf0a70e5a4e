package transcribe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	err    error
	called bool
}

func (r *stubRenderer) RenderPDF(ctx context.Context, musicxmlPath, pdfPath string) error {
	r.called = true
	return r.err
}

type stubSynthesizer struct {
	err    error
	called bool
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, midiPath, soundFontPath, wavPath string) error {
	s.called = true
	return s.err
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "degraded_success", DegradedSuccess.String())
}

func TestTitleFromPath(t *testing.T) {
	assert.Equal(t, "sonata", titleFromPath("/tmp/recordings/sonata.mp3"))
	assert.Equal(t, "take 1", titleFromPath("take 1.wav"))
}

func TestRunRequiresOutputPath(t *testing.T) {
	p := NewPipeline()
	defer p.Cleanup()

	_, err := p.Run(context.Background(), "input.wav", Options{})

	assert.Error(t, err)
}

func TestOptionalStepFailuresDegradeTheRun(t *testing.T) {
	p := NewPipeline()
	defer p.Cleanup()

	renderer := &stubRenderer{err: errors.New("mscore not found")}
	synthesizer := &stubSynthesizer{err: errors.New("fluidsynth not found")}
	p.SetRenderer(renderer)
	p.SetSynthesizer(synthesizer)

	result := &Result{
		Status: Success,
		Outputs: map[string]string{
			"musicxml":   "out.musicxml",
			"synth_midi": "out.mid",
		},
	}
	opts := Options{
		OutputPath:    "out.musicxml",
		PDFPath:       "out.pdf",
		SoundFontPath: "piano.sf2",
	}

	p.runOptionalSteps(context.Background(), opts, result)

	assert.True(t, renderer.called)
	assert.True(t, synthesizer.called)
	assert.Equal(t, DegradedSuccess, result.Status)
	assert.Len(t, result.Warnings, 2)
	assert.NotContains(t, result.Outputs, "pdf")
	assert.NotContains(t, result.Outputs, "wav")
	assert.NotContains(t, result.Outputs, "synth_midi")
}

func TestOptionalStepSuccessRecordsOutputs(t *testing.T) {
	p := NewPipeline()
	defer p.Cleanup()

	p.SetRenderer(&stubRenderer{})
	p.SetSynthesizer(&stubSynthesizer{})

	result := &Result{
		Status: Success,
		Outputs: map[string]string{
			"musicxml":   "out.musicxml",
			"synth_midi": "out.mid",
		},
	}
	opts := Options{
		OutputPath:    "out.musicxml",
		PDFPath:       "out.pdf",
		SoundFontPath: "piano.sf2",
	}

	p.runOptionalSteps(context.Background(), opts, result)

	assert.Equal(t, Success, result.Status)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, "out.pdf", result.Outputs["pdf"])
	assert.Equal(t, "out.wav", result.Outputs["wav"])
}

// writeToneWAV writes a mono 16-bit WAV with a 440 Hz tone over
// [toneStart, toneEnd) seconds
func writeToneWAV(t *testing.T, path string, toneStart, toneEnd, totalSec float64) {
	t.Helper()

	const sampleRate = 44100

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)

	total := int(totalSec * sampleRate)
	data := make([]int, total)
	from := int(toneStart * sampleRate)
	to := int(toneEnd * sampleRate)
	for i := from; i < to && i < total; i++ {
		data[i] = int(0.8 * 32767.0 * math.Sin(2.0*math.Pi*440.0*float64(i)/sampleRate))
	}

	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestRunTranscribesToneToNotation(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "tone.wav")
	outputPath := filepath.Join(dir, "tone.musicxml")
	eventsPath := filepath.Join(dir, "tone.json")
	writeToneWAV(t, inputPath, 0.25, 1.25, 2.0)

	p := NewPipeline()
	defer p.Cleanup()

	result, err := p.Run(context.Background(), inputPath, Options{
		OutputPath: outputPath,
		EventsPath: eventsPath,
	})
	require.NoError(t, err)

	assert.Equal(t, Success, result.Status)
	assert.Equal(t, "tone", result.Score.Title)
	assert.GreaterOrEqual(t, result.BPM, 20.0)
	assert.LessOrEqual(t, result.BPM, 300.0)

	doc, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<score-partwise")

	_, err = os.Stat(eventsPath)
	assert.NoError(t, err)
}
