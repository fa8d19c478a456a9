// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/user/timelapse/pkg/frametimer"
	"github.com/user/timelapse/pkg/orchestrator"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/poster"
	"github.com/user/timelapse/pkg/scaler"
)

// QualityPreset represents a video quality preset name.
type QualityPreset string

const (
	QualityLow    QualityPreset = "low"
	QualityMedium QualityPreset = "medium"
	QualityHigh   QualityPreset = "high"
)

// QualitySettings contains quality parameters for both encoder backends.
type QualitySettings struct {
	CRF         int // H.264 CRF (0-51, lower is better)
	JPEGQuality int // MJPEG frame quality (1-100)
}

// GetQualitySettings returns quality settings for the given preset.
func GetQualitySettings(preset QualityPreset) QualitySettings {
	switch preset {
	case QualityLow:
		return QualitySettings{CRF: 30, JPEGQuality: 70}
	case QualityHigh:
		return QualitySettings{CRF: 18, JPEGQuality: 95}
	default: // medium
		return QualitySettings{CRF: 23, JPEGQuality: 85}
	}
}

// Config represents the full configuration for a build.
type Config struct {
	// Output
	OutputPath string `yaml:"output"`

	// Frame
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	Fit           string `yaml:"fit"`
	Interpolation string `yaml:"interpolation"`
	FPS           int    `yaml:"fps"`

	// Encoding
	Codec       string `yaml:"codec"`
	Quality     string `yaml:"quality"`
	CRF         int    `yaml:"crf"`          // overrides the preset when > 0
	JPEGQuality int    `yaml:"jpeg_quality"` // overrides the preset when > 0
	Bitrate     int    `yaml:"bitrate"`
	FFmpegPath  string `yaml:"ffmpeg_path"`
	NoFallback  bool   `yaml:"no_fallback"`
	QueueDepth  int    `yaml:"queue_depth"`

	// Session
	ReadyTimeout time.Duration `yaml:"ready_timeout"`

	Poster PosterConfig `yaml:"poster"`

	// Reports
	SummaryPath string `yaml:"summary"`
	Debug       bool   `yaml:"debug"`
	DebugDir    string `yaml:"debug_dir"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// PosterConfig represents poster thumbnail settings.
type PosterConfig struct {
	Path       string `yaml:"path"`
	Size       int    `yaml:"size"`
	Border     int    `yaml:"border"`
	Radius     int    `yaml:"radius"`
	Background string `yaml:"background"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Width:         pipeline.DefaultSize.Width,
		Height:        pipeline.DefaultSize.Height,
		Fit:           "fit",
		Interpolation: "catmullrom",
		FPS:           1,

		Codec:      string(ports.CodecH264),
		Quality:    string(QualityMedium),
		QueueDepth: 2,

		ReadyTimeout: 30 * time.Second,

		Poster: PosterConfig{
			Size: poster.DefaultSize,
		},

		DebugDir: "./debug",

		LogLevel:  "info",
		LogFormat: "console",
	}
}

// LoadFromFile loads configuration from a YAML file over Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid size %dx%d", c.Width, c.Height))
	}
	if c.FPS <= 0 || c.FPS > frametimer.MaxFPS {
		errs = append(errs, fmt.Errorf("fps must be in 1..%d, got %d", frametimer.MaxFPS, c.FPS))
	}
	if _, err := pipeline.ParseFitMode(c.Fit); err != nil {
		errs = append(errs, err)
	}
	if _, err := scaler.ParseInterpolation(c.Interpolation); err != nil {
		errs = append(errs, err)
	}
	if _, ok := ports.ParseCodec(c.Codec); !ok {
		errs = append(errs, fmt.Errorf("unknown codec %q", c.Codec))
	}
	switch QualityPreset(c.Quality) {
	case "", QualityLow, QualityMedium, QualityHigh:
	default:
		errs = append(errs, fmt.Errorf("unknown quality preset %q", c.Quality))
	}
	if c.CRF < 0 || c.CRF > 51 {
		errs = append(errs, fmt.Errorf("crf must be within 0-51, got %d", c.CRF))
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg_quality must be within 1-100, got %d", c.JPEGQuality))
	}
	if c.QueueDepth < 0 {
		errs = append(errs, fmt.Errorf("queue_depth must not be negative, got %d", c.QueueDepth))
	}
	if c.ReadyTimeout < 0 {
		errs = append(errs, fmt.Errorf("ready_timeout must not be negative, got %s", c.ReadyTimeout))
	}
	if c.Poster.Background != "" {
		if _, err := ParseColor(c.Poster.Background); err != nil {
			errs = append(errs, err)
		}
	}
	return multierr.Combine(errs...)
}

// ParseColor parses #RGB, #RRGGBB or #RRGGBBAA.
func ParseColor(hex string) (color.Color, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return nil, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q", hex)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// ToRequest converts the configuration and image list into a build request.
func (c Config) ToRequest(images []string) (orchestrator.Request, error) {
	if err := c.Validate(); err != nil {
		return orchestrator.Request{}, err
	}

	fit, _ := pipeline.ParseFitMode(c.Fit)
	interp, _ := scaler.ParseInterpolation(c.Interpolation)
	codec, _ := ports.ParseCodec(c.Codec)

	quality := GetQualitySettings(QualityPreset(c.Quality))
	if c.CRF > 0 {
		quality.CRF = c.CRF
	}
	if c.JPEGQuality > 0 {
		quality.JPEGQuality = c.JPEGQuality
	}

	req := orchestrator.DefaultRequest()
	req.OutputPath = c.OutputPath
	req.Size = pipeline.Size{Width: c.Width, Height: c.Height}
	req.Fit = fit
	req.Interpolation = interp
	req.FPS = c.FPS
	req.Codec = codec
	req.CRF = quality.CRF
	req.JPEGQuality = quality.JPEGQuality
	req.Bitrate = c.Bitrate
	if c.QueueDepth > 0 {
		req.QueueDepth = c.QueueDepth
	}
	req.ReadyTimeout = c.ReadyTimeout

	req.Images = make([]pipeline.ImageRef, len(images))
	for i, img := range images {
		req.Images[i] = pipeline.ImageRef(img)
	}

	if c.Poster.Path != "" {
		opts := poster.DefaultOptions()
		if c.Poster.Size > 0 {
			opts.Size = c.Poster.Size
		}
		opts.Border = c.Poster.Border
		opts.Radius = c.Poster.Radius
		if c.Poster.Background != "" {
			opts.Background, _ = ParseColor(c.Poster.Background)
		}
		req.Poster = &orchestrator.PosterRequest{Path: c.Poster.Path, Options: opts}
	}

	return req, nil
}
