package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/user/timelapse/pkg/frametimer"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/scaler"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS != 1 {
		t.Errorf("expected fps 1, got %d", cfg.FPS)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to be valid, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timelapse.yaml")
	yaml := `
output: out/garden.mp4
width: 640
height: 480
fit: fill
fps: 12
codec: mjpeg
quality: high
ready_timeout: 5s
poster:
  path: out/garden.png
  size: 128
  radius: 16
  background: "#102030"
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.OutputPath != "out/garden.mp4" {
		t.Errorf("expected output out/garden.mp4, got %s", cfg.OutputPath)
	}
	if cfg.Width != 640 || cfg.Height != 480 || cfg.FPS != 12 {
		t.Errorf("unexpected frame settings: %dx%d @ %d", cfg.Width, cfg.Height, cfg.FPS)
	}
	if cfg.ReadyTimeout != 5*time.Second {
		t.Errorf("expected 5s ready timeout, got %v", cfg.ReadyTimeout)
	}
	if cfg.Poster.Size != 128 || cfg.Poster.Radius != 16 {
		t.Errorf("unexpected poster config: %+v", cfg.Poster)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Interpolation != "catmullrom" || cfg.QueueDepth != 2 {
		t.Errorf("expected defaults to survive, got interpolation=%s queue=%d", cfg.Interpolation, cfg.QueueDepth)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("width: [1, 2"), 0644)
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Width = 0
	cfg.FPS = -1
	cfg.Fit = "stretch"
	cfg.Codec = "vp9"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if n := len(multierr.Errors(err)); n != 4 {
		t.Errorf("expected 4 errors, got %d: %v", n, err)
	}
	if !strings.Contains(err.Error(), "stretch") {
		t.Errorf("expected fit error to name the value, got %v", err)
	}
}

func TestValidate_FPSRange(t *testing.T) {
	cfg := Defaults()
	cfg.FPS = frametimer.MaxFPS
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected %d fps to be accepted, got %v", frametimer.MaxFPS, err)
	}
	cfg.FPS = frametimer.MaxFPS + 1
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected %d fps to be rejected", cfg.FPS)
	}
}

func TestGetQualitySettings(t *testing.T) {
	tests := []struct {
		preset QualityPreset
		crf    int
		jpeg   int
	}{
		{QualityLow, 30, 70},
		{QualityMedium, 23, 85},
		{QualityHigh, 18, 95},
		{"", 23, 85},
	}
	for _, tt := range tests {
		q := GetQualitySettings(tt.preset)
		if q.CRF != tt.crf || q.JPEGQuality != tt.jpeg {
			t.Errorf("%q: expected crf=%d jpeg=%d, got %+v", tt.preset, tt.crf, tt.jpeg, q)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#ff8000", color.NRGBA{R: 255, G: 128, A: 255}},
		{"0a0b0c", color.NRGBA{R: 10, G: 11, B: 12, A: 255}},
		{"#fff", color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{"#00000080", color.NRGBA{A: 128}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.in, tt.want, got)
		}
	}

	for _, bad := range []string{"", "#12", "#gggggg", "#1234567"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestToRequest(t *testing.T) {
	cfg := Defaults()
	cfg.OutputPath = "out.avi"
	cfg.Width = 320
	cfg.Height = 240
	cfg.Fit = "fill"
	cfg.Interpolation = "nearest"
	cfg.Codec = "mjpeg"
	cfg.Quality = "low"
	cfg.JPEGQuality = 60
	cfg.Poster = PosterConfig{Path: "poster.png", Border: 2, Background: "#000"}

	req, err := cfg.ToRequest([]string{"a.jpg", "b.jpg"})
	if err != nil {
		t.Fatalf("ToRequest failed: %v", err)
	}

	if len(req.Images) != 2 || req.Images[1] != "b.jpg" {
		t.Errorf("unexpected images: %v", req.Images)
	}
	if req.Size != (pipeline.Size{Width: 320, Height: 240}) {
		t.Errorf("unexpected size %v", req.Size)
	}
	if req.Fit != pipeline.Fill || req.Interpolation != scaler.NearestNeighbor {
		t.Errorf("unexpected fit/interpolation: %v/%v", req.Fit, req.Interpolation)
	}
	if req.Codec != ports.CodecMJPEG {
		t.Errorf("expected mjpeg, got %s", req.Codec)
	}
	if req.CRF != 30 || req.JPEGQuality != 60 {
		t.Errorf("expected preset crf 30 and explicit jpeg 60, got %d/%d", req.CRF, req.JPEGQuality)
	}
	if req.Poster == nil || req.Poster.Options.Size != 256 || req.Poster.Options.Border != 2 {
		t.Errorf("unexpected poster request: %+v", req.Poster)
	}
}

func TestToRequest_Invalid(t *testing.T) {
	cfg := Defaults()
	cfg.Quality = "ultra"
	if _, err := cfg.ToRequest([]string{"a.jpg"}); err == nil {
		t.Error("expected invalid config to be rejected")
	}
}
