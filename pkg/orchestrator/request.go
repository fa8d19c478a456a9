package orchestrator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/timelapse/pkg/frametimer"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/poster"
	"github.com/user/timelapse/pkg/scaler"
)

// Request describes one build.
type Request struct {
	// Input
	Images     []pipeline.ImageRef
	OutputPath string

	// Frame
	Size          pipeline.Size
	Fit           pipeline.FitMode
	Interpolation scaler.Interpolation
	FPS           int

	// Encoding
	Codec       ports.Codec
	CRF         int
	JPEGQuality int
	Bitrate     int // kbps, 0 = encoder default
	QueueDepth  int

	// Session
	PoolSize     int           // 0 = QueueDepth+2
	ReadyTimeout time.Duration // 0 = wait indefinitely

	// Poster is written after a successful build when non-nil.
	Poster *PosterRequest
}

// PosterRequest asks for a thumbnail of the first frame.
type PosterRequest struct {
	Path    string
	Options poster.Options
}

// DefaultRequest returns a Request with default values.
func DefaultRequest() Request {
	return Request{
		Size:          pipeline.DefaultSize,
		Fit:           pipeline.Fit,
		Interpolation: scaler.CatmullRom,
		FPS:           1,
		Codec:         ports.CodecH264,
		QueueDepth:    2,
	}
}

func (r Request) validate() error {
	switch {
	case len(r.Images) == 0:
		return pipeline.NewError(pipeline.StartError, "no images to build from", nil)
	case !r.Size.Valid():
		return pipeline.NewError(pipeline.StartError, "invalid canvas size "+r.Size.String(), nil)
	case r.FPS <= 0 || r.FPS > frametimer.MaxFPS:
		return pipeline.NewError(pipeline.StartError,
			fmt.Sprintf("frame rate %d outside 1..%d", r.FPS, frametimer.MaxFPS), nil)
	case r.OutputPath == "":
		return pipeline.NewError(pipeline.StartError, "no output path", nil)
	}
	return nil
}

func (r Request) encoderSettings() ports.EncoderSettings {
	return ports.EncoderSettings{
		Codec:       r.Codec,
		Width:       r.Size.Width,
		Height:      r.Size.Height,
		FPS:         r.FPS,
		OutputPath:  r.OutputPath,
		CRF:         r.CRF,
		JPEGQuality: r.JPEGQuality,
		Bitrate:     r.Bitrate,
		QueueDepth:  r.QueueDepth,
	}
}

// requestDump is the debug view of a Request.
type requestDump struct {
	Images        int    `json:"images"`
	First         string `json:"first,omitempty"`
	OutputPath    string `json:"output"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Fit           string `json:"fit"`
	Interpolation string `json:"interpolation"`
	FPS           int    `json:"fps"`
	Codec         string `json:"codec"`
	CRF           int    `json:"crf,omitempty"`
	JPEGQuality   int    `json:"jpeg_quality,omitempty"`
	Bitrate       int    `json:"bitrate,omitempty"`
	QueueDepth    int    `json:"queue_depth"`
	PoolSize      int    `json:"pool_size,omitempty"`
	ReadyTimeout  string `json:"ready_timeout,omitempty"`
	Poster        string `json:"poster,omitempty"`
}

func (r Request) debugJSON() ([]byte, error) {
	d := requestDump{
		Images:        len(r.Images),
		OutputPath:    r.OutputPath,
		Width:         r.Size.Width,
		Height:        r.Size.Height,
		Fit:           r.Fit.String(),
		Interpolation: r.Interpolation.String(),
		FPS:           r.FPS,
		Codec:         string(r.Codec),
		CRF:           r.CRF,
		JPEGQuality:   r.JPEGQuality,
		Bitrate:       r.Bitrate,
		QueueDepth:    r.QueueDepth,
		PoolSize:      r.PoolSize,
	}
	if len(r.Images) > 0 {
		d.First = string(r.Images[0])
	}
	if r.ReadyTimeout > 0 {
		d.ReadyTimeout = r.ReadyTimeout.String()
	}
	if r.Poster != nil {
		d.Poster = r.Poster.Path
	}
	return json.MarshalIndent(d, "", "  ")
}
