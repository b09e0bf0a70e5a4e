package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AbhiJ2706/cs489-project/transcribe"
)

var (
	transcribeTitle      string
	transcribePDF        string
	transcribeMIDI       string
	transcribeEvents     string
	transcribeSynthesize bool
	transcribeSoundFont  string
	transcribeSynthWAV   string
	transcribeKeepTemp   bool
)

// transcribeCmd represents the transcribe command
var transcribeCmd = &cobra.Command{
	Use:   "transcribe <input-audio> <output.musicxml>",
	Short: "Transcribe a piano recording to MusicXML",
	Long: `Transcribe a piano recording into a two-staff MusicXML score.

The input may be any format FFmpeg understands; WAV files decode
natively. Optional flags add PDF, MIDI, note-event JSON, and
synthesized audio outputs.

Examples:
  # Basic transcription
  dascore transcribe recording.wav score.musicxml

  # Full output set with MuseScore PDF and FluidSynth playback
  dascore transcribe recording.mp3 score.musicxml \
    --pdf score.pdf --midi score.mid --events notes.json \
    --synthesize --soundfont /usr/share/sounds/sf2/default.sf2`,
	Args: cobra.ExactArgs(2),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().StringVar(&transcribeTitle, "title", "",
		"score title (default is the input file name)")
	transcribeCmd.Flags().StringVar(&transcribePDF, "pdf", "",
		"also render a PDF to this path (requires MuseScore)")
	transcribeCmd.Flags().StringVar(&transcribeMIDI, "midi", "",
		"also write a Standard MIDI File to this path")
	transcribeCmd.Flags().StringVar(&transcribeEvents, "events", "",
		"also write the quantized note events as JSON to this path")
	transcribeCmd.Flags().BoolVar(&transcribeSynthesize, "synthesize", false,
		"also synthesize playback audio (requires FluidSynth and a soundfont)")
	transcribeCmd.Flags().StringVar(&transcribeSoundFont, "soundfont", "",
		"SF2 soundfont for synthesis (default from config)")
	transcribeCmd.Flags().StringVar(&transcribeSynthWAV, "synth-wav", "",
		"synthesized audio path (default is the output path with a .wav extension)")
	transcribeCmd.Flags().BoolVar(&transcribeKeepTemp, "keep-temp", false,
		"keep the per-run temp directory for debugging")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	opts := transcribe.Options{
		Title:      transcribeTitle,
		OutputPath: args[1],
		PDFPath:    transcribePDF,
		MIDIPath:   transcribeMIDI,
		EventsPath: transcribeEvents,
	}

	if transcribeSynthesize {
		opts.SoundFontPath = transcribeSoundFont
		if opts.SoundFontPath == "" {
			opts.SoundFontPath = config.Synthesis.SoundFontPath
		}
		if opts.SoundFontPath == "" {
			return fmt.Errorf("--synthesize requires --soundfont or synthesis.soundfont_path in the config")
		}
		opts.SynthWAVPath = transcribeSynthWAV
	}

	pipeline := transcribe.NewPipelineWithConfig(config)
	if !transcribeKeepTemp {
		defer pipeline.Cleanup()
	}

	result, err := pipeline.Run(cmd.Context(), args[0], opts)
	if err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}
	for kind, path := range result.Outputs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", kind, path)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "status: %s (%.0f BPM, %d notes)\n",
		result.Status, result.BPM, len(result.Notes))

	return nil
}
