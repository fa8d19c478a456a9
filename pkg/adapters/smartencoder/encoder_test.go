package smartencoder

import (
	"errors"
	"testing"

	"github.com/user/timelapse/pkg/adapters/h264encoder"
	"github.com/user/timelapse/pkg/adapters/mjpegencoder"
	"github.com/user/timelapse/pkg/mocks"
	"github.com/user/timelapse/pkg/ports"
)

func withFFmpeg(t *testing.T, available bool) {
	t.Helper()
	orig := ffmpegAvailable
	ffmpegAvailable = func() bool { return available }
	t.Cleanup(func() { ffmpegAvailable = orig })
}

func TestNew_MJPEG(t *testing.T) {
	enc, info, err := New(ports.CodecMJPEG, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := enc.(*mjpegencoder.Encoder); !ok {
		t.Errorf("expected *mjpegencoder.Encoder, got %T", enc)
	}
	if info.Codec != ports.CodecMJPEG || info.Backend != BackendPureGo || info.FallbackUsed {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestNew_H264WithFFmpeg(t *testing.T) {
	withFFmpeg(t, true)

	enc, info, err := New(ports.CodecH264, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := enc.(*h264encoder.FFmpegEncoder); !ok {
		t.Errorf("expected *h264encoder.FFmpegEncoder, got %T", enc)
	}
	if info.Codec != ports.CodecH264 || info.Backend != BackendFFmpeg {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Extension() != ".mp4" {
		t.Errorf("expected .mp4, got %s", info.Extension())
	}
}

func TestNew_H264FallsBackToMJPEG(t *testing.T) {
	withFFmpeg(t, false)
	log := mocks.NewLogger()

	enc, info, err := New(ports.CodecH264, Options{Logger: log})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := enc.(*mjpegencoder.Encoder); !ok {
		t.Errorf("expected MJPEG fallback, got %T", enc)
	}
	if !info.FallbackUsed || info.RequestedCodec != ports.CodecH264 || info.Codec != ports.CodecMJPEG {
		t.Errorf("unexpected info: %+v", info)
	}
	if len(log.Entries(ports.LevelWarn)) != 1 {
		t.Errorf("expected one fallback warning, got %v", log.Entries(ports.LevelWarn))
	}
}

func TestNew_H264WithoutFallback(t *testing.T) {
	withFFmpeg(t, false)

	_, _, err := New(ports.CodecH264, Options{DisableFallback: true})
	if !errors.Is(err, ErrNoEncoderAvailable) {
		t.Errorf("expected ErrNoEncoderAvailable, got %v", err)
	}
}

func TestFixExtension(t *testing.T) {
	tests := []struct {
		path    string
		codec   ports.Codec
		want    string
		changed bool
	}{
		{"out.mp4", ports.CodecH264, "out.mp4", false},
		{"out.MP4", ports.CodecH264, "out.MP4", false},
		{"out.mp4", ports.CodecMJPEG, "out.avi", true},
		{"dir/out", ports.CodecMJPEG, "dir/out.avi", true},
		{"out.avi", ports.CodecH264, "out.mp4", true},
	}
	for _, tt := range tests {
		got, changed := FixExtension(tt.path, tt.codec)
		if got != tt.want || changed != tt.changed {
			t.Errorf("FixExtension(%q, %s) = %q, %v; want %q, %v", tt.path, tt.codec, got, changed, tt.want, tt.changed)
		}
	}
}
