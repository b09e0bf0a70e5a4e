package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/AbhiJ2706/cs489-project/algorithms/spectral"
	"github.com/AbhiJ2706/cs489-project/algorithms/temporal"
	"github.com/AbhiJ2706/cs489-project/algorithms/tonal"
	"github.com/AbhiJ2706/cs489-project/configs"
	"github.com/AbhiJ2706/cs489-project/logging"
	"github.com/AbhiJ2706/cs489-project/notation"
	"github.com/AbhiJ2706/cs489-project/notation/export"
	"github.com/AbhiJ2706/cs489-project/preprocess"
	"github.com/AbhiJ2706/cs489-project/render"
	"github.com/AbhiJ2706/cs489-project/transcode"
)

// Status describes how a transcription run ended
type Status int

const (
	// Success: the notation document and all requested outputs were
	// produced
	Success Status = iota
	// DegradedSuccess: the notation document was produced but an
	// optional step (PDF render, synthesis) failed
	DegradedSuccess
)

func (s Status) String() string {
	if s == DegradedSuccess {
		return "degraded_success"
	}
	return "success"
}

// Options selects the outputs of a transcription run. OutputPath is
// the MusicXML destination and is required; everything else is
// optional.
type Options struct {
	Title      string
	OutputPath string
	PDFPath    string
	MIDIPath   string
	EventsPath string

	// Synthesis settings; SoundFontPath empty disables synthesis
	SoundFontPath string
	SynthWAVPath  string
}

// Result reports a finished run
type Result struct {
	Status   Status
	Score    *notation.ScoreModel
	Notes    []QuantizedNote
	BPM      float64
	Warnings []string
	Outputs  map[string]string // Kind ("musicxml", "pdf", ...) to path
}

// Pipeline wires the transcription stages together: decode,
// preprocess, tempo estimation, segmentation, pitch detection,
// quantization, notation, serialization, and the optional render and
// synthesis steps.
type Pipeline struct {
	decoder      *transcode.Decoder
	preprocessor *preprocess.Preprocessor
	tempo        *temporal.TempoEstimation
	segmenter    *Segmenter
	pitches      *tonal.PitchDetector
	builder      *notation.NotationBuilder
	combiner     *notation.RestCombiner
	serializer   *notation.Serializer
	exporter     *export.Exporter
	renderer     render.Renderer
	synthesizer  render.Synthesizer

	// Per-run namespace for transient files
	tempDir string
	logger  logging.Logger
}

// NewPipeline creates a pipeline with default components
func NewPipeline() *Pipeline {
	tempDir := filepath.Join(os.TempDir(), "dascore-"+uuid.NewString())

	return &Pipeline{
		decoder:      transcode.NewDecoder(decoderConfigFor(tempDir)),
		preprocessor: preprocess.NewPreprocessor(preprocess.DefaultConfig()),
		tempo:        temporal.NewTempoEstimation(),
		segmenter:    NewSegmenter(DefaultSegmenterConfig()),
		pitches:      tonal.NewPitchDetector(),
		builder:      notation.NewNotationBuilder(),
		combiner:     notation.NewRestCombiner(),
		serializer:   notation.NewSerializer(),
		exporter:     export.NewExporter(),
		renderer:     render.NewMuseScoreRenderer(),
		synthesizer:  render.NewFluidSynthesizer(),
		tempDir:      tempDir,
		logger: logging.WithFields(logging.Fields{
			"component": "pipeline",
		}),
	}
}

func decoderConfigFor(tempDir string) *transcode.DecoderConfig {
	config := transcode.DefaultDecoderConfig()
	config.TempDir = tempDir
	return config
}

// NewPipelineWithConfig creates a pipeline with components tuned from
// the application configuration
func NewPipelineWithConfig(cfg *configs.Config) *Pipeline {
	p := NewPipeline()
	if cfg == nil {
		return p
	}

	decoderConfig := decoderConfigFor(p.tempDir)
	decoderConfig.TargetSampleRate = cfg.Audio.SampleRate
	decoderConfig.ResampleQuality = cfg.Audio.ResampleQuality
	decoderConfig.Timeout = cfg.Audio.DecodeTimeout
	decoderConfig.FFmpegPath = cfg.Tools.FFmpegPath
	decoderConfig.FFprobePath = cfg.Tools.FFprobePath
	p.decoder = transcode.NewDecoder(decoderConfig)

	preprocessConfig := preprocess.DefaultConfig()
	preprocessConfig.BandLowHz = cfg.Analysis.BandLowHz
	preprocessConfig.BandHighHz = cfg.Analysis.BandHighHz
	p.preprocessor = preprocess.NewPreprocessor(preprocessConfig)

	segmenterConfig := DefaultSegmenterConfig()
	segmenterConfig.OnsetThreshold = cfg.Analysis.OnsetThreshold
	p.segmenter = NewSegmenter(segmenterConfig)

	pitchParams := tonal.DefaultPitchDetectionParams()
	pitchParams.Prominence = cfg.Analysis.Prominence
	pitchParams.Persistence = cfg.Analysis.Persistence
	pitchParams.SupportRatio = cfg.Analysis.SupportRatio
	p.pitches = tonal.NewPitchDetectorWithParams(pitchParams)

	p.builder = notation.NewNotationBuilderWithSplit(cfg.Analysis.SplitPitch)

	renderer := render.NewMuseScoreRenderer()
	renderer.Path = cfg.Tools.MuseScorePath
	p.renderer = renderer

	synthesizer := render.NewFluidSynthesizer()
	synthesizer.Path = cfg.Tools.FluidSynthPath
	synthesizer.Gain = cfg.Synthesis.Gain
	p.synthesizer = synthesizer

	return p
}

// SetRenderer replaces the PDF renderer
func (p *Pipeline) SetRenderer(r render.Renderer) { p.renderer = r }

// SetSynthesizer replaces the audio synthesizer
func (p *Pipeline) SetSynthesizer(s render.Synthesizer) { p.synthesizer = s }

// Run transcribes the input file per the options
func (p *Pipeline) Run(ctx context.Context, inputPath string, opts Options) (*Result, error) {
	if opts.OutputPath == "" {
		return nil, fmt.Errorf("no output path given")
	}
	if opts.Title == "" {
		opts.Title = titleFromPath(inputPath)
	}

	if err := os.MkdirAll(p.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	audio, err := p.decoder.DecodeFile(inputPath)
	if err != nil {
		return nil, err
	}

	processed, err := p.preprocessor.Process(audio.PCM, audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("preprocessing: %w", err)
	}

	bpm, err := p.tempo.EstimateTempo(processed, audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("tempo estimation: %w", err)
	}

	segments, err := p.segmenter.Segments(processed, audio.SampleRate, bpm)
	if err != nil {
		return nil, fmt.Errorf("segmentation: %w", err)
	}

	events, err := p.detectNotes(processed, audio.SampleRate, segments)
	if err != nil {
		return nil, fmt.Errorf("pitch detection: %w", err)
	}

	notes := NewQuantizer(bpm).Quantize(events)

	p.logger.Info("analysis complete", logging.Fields{
		"bpm":      bpm,
		"segments": len(segments),
		"notes":    len(notes),
	})

	score, err := p.builder.Build(opts.Title, bpm, timedNotes(notes))
	if err != nil {
		return nil, err
	}
	if err := p.combiner.CombineScore(score); err != nil {
		return nil, err
	}

	if err := p.serializer.WriteFile(score, opts.OutputPath); err != nil {
		return nil, fmt.Errorf("writing notation: %w", err)
	}

	result := &Result{
		Status:  Success,
		Score:   score,
		Notes:   notes,
		BPM:     bpm,
		Outputs: map[string]string{"musicxml": opts.OutputPath},
	}

	if err := p.writeExports(notes, bpm, opts, result); err != nil {
		return nil, err
	}

	p.runOptionalSteps(ctx, opts, result)

	return result, nil
}

// Cleanup removes the run's transient files
func (p *Pipeline) Cleanup() {
	if p.tempDir != "" {
		os.RemoveAll(p.tempDir)
	}
}

// detectNotes runs pitch detection over each segment's CQT frames
func (p *Pipeline) detectNotes(signal []float64, sampleRate int, segments []Segment) ([]NoteEvent, error) {
	cqt := spectral.NewCQTPiano(sampleRate)
	spectrogram, err := cqt.Compute(signal, DefaultSegmenterConfig().HopSize)
	if err != nil {
		return nil, err
	}

	var events []NoteEvent
	for _, seg := range segments {
		detected, err := p.pitches.DetectInSegment(spectrogram, seg.StartFrame, seg.TrimmedFrame)
		if err != nil {
			return nil, err
		}

		for _, pitch := range detected {
			events = append(events, NoteEvent{
				MIDINote: pitch.MIDINote,
				Velocity: pitch.Velocity,
				StartSec: seg.StartSec,
				EndSec:   seg.TrimmedSec,
			})
		}
	}

	return events, nil
}

// writeExports emits the optional JSON and MIDI event files. A MIDI
// file is also produced transiently when synthesis needs one.
func (p *Pipeline) writeExports(notes []QuantizedNote, bpm float64, opts Options, result *Result) error {
	doc := &export.EventDocument{
		Title:           opts.Title,
		BPM:             bpm,
		TicksPerQuarter: TicksPerQuarter,
		Events:          exportEvents(notes),
	}

	if opts.EventsPath != "" {
		if err := p.exporter.WriteJSON(doc, opts.EventsPath); err != nil {
			return err
		}
		result.Outputs["events"] = opts.EventsPath
	}

	midiPath := opts.MIDIPath
	if midiPath == "" && opts.SoundFontPath != "" {
		midiPath = filepath.Join(p.tempDir, "synth.mid")
	}

	if midiPath != "" {
		if err := p.exporter.WriteSMF(doc, midiPath); err != nil {
			return err
		}
		if opts.MIDIPath != "" {
			result.Outputs["midi"] = midiPath
		}
		result.Outputs["synth_midi"] = midiPath
	}

	return nil
}

// runOptionalSteps renders and synthesizes. Failures downgrade the
// run instead of failing it; the notation document already exists.
func (p *Pipeline) runOptionalSteps(ctx context.Context, opts Options, result *Result) {
	if opts.PDFPath != "" {
		if err := p.renderer.RenderPDF(ctx, opts.OutputPath, opts.PDFPath); err != nil {
			p.logger.Warn("PDF render failed", logging.Fields{"error": err.Error()})
			result.Status = DegradedSuccess
			result.Warnings = append(result.Warnings, err.Error())
		} else {
			result.Outputs["pdf"] = opts.PDFPath
		}
	}

	if opts.SoundFontPath != "" {
		midiPath := result.Outputs["synth_midi"]
		wavPath := opts.SynthWAVPath
		if wavPath == "" {
			wavPath = strings.TrimSuffix(opts.OutputPath, filepath.Ext(opts.OutputPath)) + ".wav"
		}

		if err := p.synthesizer.Synthesize(ctx, midiPath, opts.SoundFontPath, wavPath); err != nil {
			p.logger.Warn("synthesis failed", logging.Fields{"error": err.Error()})
			result.Status = DegradedSuccess
			result.Warnings = append(result.Warnings, err.Error())
		} else {
			result.Outputs["wav"] = wavPath
		}
	}

	delete(result.Outputs, "synth_midi")
}

// timedNotes converts quantized notes to the notation layer's input
func timedNotes(notes []QuantizedNote) []notation.TimedNote {
	timed := make([]notation.TimedNote, len(notes))
	for i, n := range notes {
		timed[i] = notation.TimedNote{
			MIDINote:      n.MIDINote,
			Velocity:      n.Velocity,
			StartBeats:    n.StartBeats(),
			DurationBeats: n.DurationBeats(),
		}
	}
	return timed
}

// exportEvents converts quantized notes to export events
func exportEvents(notes []QuantizedNote) []export.Event {
	events := make([]export.Event, len(notes))
	for i, n := range notes {
		events[i] = export.Event{
			MIDINote:   n.MIDINote,
			Velocity:   n.Velocity,
			StartTicks: n.StartTicks,
			EndTicks:   n.EndTicks,
		}
	}
	return events
}

// titleFromPath derives a score title from the input filename
func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
