package ports

import (
	"context"
	"image"
	"strings"

	"github.com/user/timelapse/pkg/frametimer"
)

// Codec identifies a video codec.
type Codec string

const (
	CodecH264  Codec = "h264"
	CodecMJPEG Codec = "mjpeg"
)

// ParseCodec parses a codec name. The empty string selects H.264.
func ParseCodec(s string) (Codec, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "h264", "avc":
		return CodecH264, true
	case "mjpeg", "mjpg", "avi":
		return CodecMJPEG, true
	default:
		return "", false
	}
}

// EncoderSettings configures a VideoEncoder before it starts.
type EncoderSettings struct {
	Codec      Codec
	Width      int
	Height     int
	FPS        int
	OutputPath string

	// CRF is the H.264 constant rate factor (0-51, lower is better).
	CRF int
	// JPEGQuality is the per-frame JPEG quality for MJPEG (1-100).
	JPEGQuality int
	// Bitrate in kbps; 0 lets the encoder choose.
	Bitrate int
	// QueueDepth is how many frames may wait for the encoder before it reports not ready.
	QueueDepth int
}

// VideoEncoder is a push-style encoder that writes frames to a file.
//
// The encoder is single-use: Configure, Start, any number of Append, then
// exactly one of Finish or Abort. Append never blocks on encoding; callers
// must check ReadyForMoreData first and wait for the OnReady callback when
// it reports false.
type VideoEncoder interface {
	// Configure validates and stores settings. It must be called before Start.
	Configure(settings EncoderSettings) error

	// Start opens the output and begins accepting frames.
	Start(ctx context.Context) error

	// ReadyForMoreData reports whether Append would be accepted right now.
	ReadyForMoreData() bool

	// OnReady registers fn to be called whenever the encoder frees capacity.
	// fn may be called from any goroutine and must not block.
	OnReady(fn func())

	// Append queues frame for presentation at pts. Timestamps must be
	// strictly increasing. The encoder owns frame until it calls release.
	// If Append returns an error the frame was not accepted and release is
	// not called.
	Append(frame *image.RGBA, pts frametimer.Timestamp, release func()) error

	// Finish drains queued frames and finalizes the container.
	Finish(ctx context.Context) error

	// Abort stops encoding and closes the output without finalizing it.
	Abort() error
}
