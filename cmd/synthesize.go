package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AbhiJ2706/cs489-project/render"
)

var (
	synthesizeSoundFont string
	synthesizeGain      float64
)

// synthesizeCmd represents the synthesize command
var synthesizeCmd = &cobra.Command{
	Use:   "synthesize <input.mid> <output.wav>",
	Short: "Synthesize audio from a MIDI file",
	Long: `Synthesize a MIDI file to audio with FluidSynth.

Examples:
  dascore synthesize score.mid playback.wav --soundfont /usr/share/sounds/sf2/default.sf2`,
	Args: cobra.ExactArgs(2),
	RunE: runSynthesize,
}

func init() {
	rootCmd.AddCommand(synthesizeCmd)

	synthesizeCmd.Flags().StringVar(&synthesizeSoundFont, "soundfont", "",
		"SF2 soundfont (default from config)")
	synthesizeCmd.Flags().Float64Var(&synthesizeGain, "gain", 0,
		"FluidSynth gain (default from config)")
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	soundFont := synthesizeSoundFont
	if soundFont == "" {
		soundFont = config.Synthesis.SoundFontPath
	}
	if soundFont == "" {
		return fmt.Errorf("a soundfont is required (--soundfont or synthesis.soundfont_path)")
	}

	synthesizer := render.NewFluidSynthesizer()
	synthesizer.Path = config.Tools.FluidSynthPath
	synthesizer.Gain = config.Synthesis.Gain
	if synthesizeGain > 0 {
		synthesizer.Gain = synthesizeGain
	}

	if err := synthesizer.Synthesize(cmd.Context(), args[0], soundFont, args[1]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wav: %s\n", args[1])
	return nil
}
