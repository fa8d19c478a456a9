package h264encoder

import (
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/user/timelapse/pkg/ports"
)

// DefaultCRF is used when settings leave CRF at zero.
const DefaultCRF = 23

// buildArgs returns the ffmpeg command line that reads raw RGBA frames from
// stdin and writes an H.264 MP4 to settings.OutputPath.
func buildArgs(settings ports.EncoderSettings) []string {
	crf := settings.CRF
	if crf <= 0 {
		crf = DefaultCRF
	}
	if crf > 51 {
		crf = 51
	}

	out := ffmpeg.KwArgs{
		"c:v":       "libx264",
		"preset":    "fast",
		"pix_fmt":   "yuv420p",
		"crf":       strconv.Itoa(crf),
		"profile:v": "high",
		"movflags":  "+faststart",
		"r":         strconv.Itoa(settings.FPS),
	}
	if settings.Bitrate > 0 {
		out["b:v"] = fmt.Sprintf("%dk", settings.Bitrate)
	}

	return ffmpeg.Input("pipe:0", ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", settings.Width, settings.Height),
		"framerate": strconv.Itoa(settings.FPS),
	}).
		Output(settings.OutputPath, out).
		OverWriteOutput().
		GetArgs()
}
