package configs

import (
	"time"

	"github.com/spf13/viper"
)

// SetDefaults sets default configuration values for all components
func SetDefaults(v *viper.Viper) {
	if !v.IsSet("log_level") {
		v.Set("log_level", "info")
	}

	// Decoding defaults
	if !v.IsSet("audio.sample_rate") {
		v.Set("audio.sample_rate", 44100)
	}
	if !v.IsSet("audio.resample_quality") {
		v.Set("audio.resample_quality", "high")
	}
	if !v.IsSet("audio.decode_timeout") {
		v.Set("audio.decode_timeout", 60*time.Second)
	}

	// Analysis defaults
	if !v.IsSet("analysis.onset_threshold") {
		v.Set("analysis.onset_threshold", 0.85)
	}
	if !v.IsSet("analysis.prominence") {
		v.Set("analysis.prominence", 0.5)
	}
	if !v.IsSet("analysis.persistence") {
		v.Set("analysis.persistence", 0.70)
	}
	if !v.IsSet("analysis.support_ratio") {
		v.Set("analysis.support_ratio", 1.5)
	}
	if !v.IsSet("analysis.split_pitch") {
		v.Set("analysis.split_pitch", 60)
	}
	if !v.IsSet("analysis.band_low_hz") {
		v.Set("analysis.band_low_hz", 25.0)
	}
	if !v.IsSet("analysis.band_high_hz") {
		v.Set("analysis.band_high_hz", 4200.0)
	}

	// External tool defaults
	if !v.IsSet("tools.ffmpeg_path") {
		v.Set("tools.ffmpeg_path", "ffmpeg")
	}
	if !v.IsSet("tools.ffprobe_path") {
		v.Set("tools.ffprobe_path", "ffprobe")
	}
	if !v.IsSet("tools.musescore_path") {
		v.Set("tools.musescore_path", "mscore")
	}
	if !v.IsSet("tools.fluidsynth_path") {
		v.Set("tools.fluidsynth_path", "fluidsynth")
	}

	// Synthesis defaults
	if !v.IsSet("synthesis.gain") {
		v.Set("synthesis.gain", 5.0)
	}
}
