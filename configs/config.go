package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Verbose  bool   `mapstructure:"verbose"`
	LogLevel string `mapstructure:"log_level"`

	Audio     AudioConfig     `mapstructure:"audio"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Synthesis SynthesisConfig `mapstructure:"synthesis"`
}

// AudioConfig contains decoding settings
type AudioConfig struct {
	SampleRate      int           `mapstructure:"sample_rate"`
	ResampleQuality string        `mapstructure:"resample_quality"`
	DecodeTimeout   time.Duration `mapstructure:"decode_timeout"`
}

// AnalysisConfig contains transcription analysis settings
type AnalysisConfig struct {
	OnsetThreshold float64 `mapstructure:"onset_threshold"`
	Prominence     float64 `mapstructure:"prominence"`
	Persistence    float64 `mapstructure:"persistence"`
	SupportRatio   float64 `mapstructure:"support_ratio"`
	SplitPitch     int     `mapstructure:"split_pitch"`
	BandLowHz      float64 `mapstructure:"band_low_hz"`
	BandHighHz     float64 `mapstructure:"band_high_hz"`
}

// ToolsConfig locates the external binaries
type ToolsConfig struct {
	FFmpegPath     string `mapstructure:"ffmpeg_path"`
	FFprobePath    string `mapstructure:"ffprobe_path"`
	MuseScorePath  string `mapstructure:"musescore_path"`
	FluidSynthPath string `mapstructure:"fluidsynth_path"`
}

// SynthesisConfig contains playback synthesis settings
type SynthesisConfig struct {
	SoundFontPath string  `mapstructure:"soundfont_path"`
	Gain          float64 `mapstructure:"gain"`
}

// LoadConfig unmarshals the active viper configuration
func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample rate must be positive")
	}

	if config.Analysis.OnsetThreshold < 0 || config.Analysis.OnsetThreshold > 1 {
		return fmt.Errorf("onset threshold must be between 0 and 1")
	}

	if config.Analysis.Persistence < 0 || config.Analysis.Persistence > 1 {
		return fmt.Errorf("persistence must be between 0 and 1")
	}

	if config.Analysis.SupportRatio <= 1 {
		return fmt.Errorf("support ratio must be greater than 1")
	}

	if config.Analysis.SplitPitch < 0 || config.Analysis.SplitPitch > 127 {
		return fmt.Errorf("split pitch must be a MIDI note number")
	}

	if config.Analysis.BandLowHz <= 0 || config.Analysis.BandHighHz <= config.Analysis.BandLowHz {
		return fmt.Errorf("band edges must satisfy 0 < low < high")
	}

	if config.Synthesis.Gain < 0 {
		return fmt.Errorf("synthesis gain cannot be negative")
	}

	return nil
}
