// Package smartencoder picks the best available video encoder, falling
// back to pure-Go Motion-JPEG when ffmpeg is missing.
package smartencoder

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/user/timelapse/pkg/adapters/h264encoder"
	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/adapters/mjpegencoder"
	"github.com/user/timelapse/pkg/ports"
)

// Backend identifies the implementation behind the selected encoder.
type Backend string

const (
	// BackendFFmpeg streams frames into an external ffmpeg process.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendPureGo writes AVI/MJPEG without external tools.
	BackendPureGo Backend = "pure-go"
)

// Info contains information about the selected encoder.
type Info struct {
	// Codec is the codec actually used.
	Codec ports.Codec
	// Backend is the encoding backend being used.
	Backend Backend
	// RequestedCodec is the codec that was originally requested.
	RequestedCodec ports.Codec
	// FallbackUsed indicates whether a fallback occurred.
	FallbackUsed bool
}

// Extension returns the file extension of the codec's container.
func (i Info) Extension() string {
	return ExtensionFor(i.Codec)
}

// ExtensionFor returns ".mp4" for H.264 and ".avi" for MJPEG.
func ExtensionFor(codec ports.Codec) string {
	if codec == ports.CodecMJPEG {
		return ".avi"
	}
	return ".mp4"
}

// FixExtension replaces path's extension with the codec's container
// extension. It reports whether the path changed.
func FixExtension(path string, codec ports.Codec) (string, bool) {
	want := ExtensionFor(codec)
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, want) {
		return path, false
	}
	return strings.TrimSuffix(path, ext) + want, true
}

// Options configures encoder selection.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// DisableFallback makes H.264 requests fail instead of falling back to MJPEG.
	DisableFallback bool
	// Logger receives the fallback warning and is handed to the encoder.
	Logger ports.Logger
}

// ErrNoEncoderAvailable is returned when no encoder can serve the request.
var ErrNoEncoderAvailable = errors.New("smartencoder: no encoder available")

// ffmpegAvailable is replaced in tests.
var ffmpegAvailable = h264encoder.IsFFmpegAvailable

// New creates an encoder for the preferred codec.
//
// For H.264 the ffmpeg encoder is used when ffmpeg can be found; otherwise,
// unless DisableFallback is set, the MJPEG encoder is returned with
// Info.FallbackUsed set. MJPEG is always available.
func New(preferred ports.Codec, opts Options) (ports.VideoEncoder, Info, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	if opts.FFmpegPath != "" {
		h264encoder.SetFFmpegPath(opts.FFmpegPath)
	}
	if preferred == "" {
		preferred = ports.CodecH264
	}

	switch preferred {
	case ports.CodecMJPEG:
		return mjpegencoder.New(opts.Logger), Info{
			Codec:          ports.CodecMJPEG,
			Backend:        BackendPureGo,
			RequestedCodec: preferred,
		}, nil
	default:
		return selectH264Encoder(preferred, opts)
	}
}

func selectH264Encoder(requested ports.Codec, opts Options) (ports.VideoEncoder, Info, error) {
	if ffmpegAvailable() {
		return h264encoder.NewFFmpegEncoder(opts.Logger), Info{
			Codec:          ports.CodecH264,
			Backend:        BackendFFmpeg,
			RequestedCodec: requested,
		}, nil
	}

	if opts.DisableFallback {
		return nil, Info{}, ErrNoEncoderAvailable
	}

	opts.Logger.Warn("ffmpeg not available, falling back to %s", string(ports.CodecMJPEG))
	return mjpegencoder.New(opts.Logger), Info{
		Codec:          ports.CodecMJPEG,
		Backend:        BackendPureGo,
		RequestedCodec: requested,
		FallbackUsed:   true,
	}, nil
}
