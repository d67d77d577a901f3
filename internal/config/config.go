package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	OutputDir  string `yaml:"output_dir"`
	UploadsDir string `yaml:"uploads_dir"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	FPS    int `yaml:"fps"`

	// MinSegmentDuration is the floor applied to every per-image duration (seconds).
	MinSegmentDuration float64 `yaml:"min_segment_duration"`
	// TargetMinutes overrides the narration length when > 0.
	TargetMinutes float64 `yaml:"target_minutes"`

	CaptionWidth int    `yaml:"caption_width"`
	FontFile     string `yaml:"font_file"`
	FontSize     int    `yaml:"font_size"`

	VideoEncoder string `yaml:"video_encoder"` // libx264, h264_nvenc, h264_videotoolbox or auto
	Quality      int    `yaml:"quality"`       // 0 picks the encoder's default
	Workers      int    `yaml:"workers"`       // 0 = size from CPU and memory

	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	TTSLanguage string `yaml:"tts_language"`
	TTSEndpoint string `yaml:"tts_endpoint"`
}

// SegmentParams describes one image clip for filter generation.
type SegmentParams struct {
	Width, Height int
	FPS           int
	Duration      float64
	Variant       int
	Caption       string
	FontFile      string
	FontSize      int
}

func Default() *Config {
	return &Config{
		OutputDir:          "output",
		UploadsDir:         "uploads",
		Width:              1920,
		Height:             1080,
		FPS:                30,
		MinSegmentDuration: 0.5,
		CaptionWidth:       40,
		FontSize:           60,
		VideoEncoder:       "libx264",
		Workers:            1,
		FFmpegPath:         "ffmpeg",
		FFprobePath:        "ffprobe",
		TTSLanguage:        "en",
		TTSEndpoint:        "https://translate.google.com/translate_tts",
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep their default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 || c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("resolution %dx%d must be positive and even", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.MinSegmentDuration <= 0 {
		return fmt.Errorf("min_segment_duration must be positive, got %f", c.MinSegmentDuration)
	}
	if c.CaptionWidth <= 0 {
		return fmt.Errorf("caption_width must be positive, got %d", c.CaptionWidth)
	}
	if c.TargetMinutes < 0 {
		return fmt.Errorf("target_minutes must not be negative, got %f", c.TargetMinutes)
	}
	if c.Quality < 0 {
		return fmt.Errorf("quality must not be negative, got %d", c.Quality)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}
