// Package poster renders a square thumbnail of a still for use next to the video.
package poster

import (
	"errors"
	"image"
	"image/color"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/scaler"
)

// DefaultSize is the poster edge length in pixels.
const DefaultSize = 256

// Options configures a poster.
type Options struct {
	Size       int
	Border     int // transparent margin around the picture
	Radius     int // corner radius; 0 draws square corners
	Background color.Color
}

// DefaultOptions returns options for a plain square poster.
func DefaultOptions() Options {
	return Options{
		Size:       DefaultSize,
		Background: color.Transparent,
	}
}

// ErrTooSmall is returned when the border leaves no room for the picture.
var ErrTooSmall = errors.New("poster size too small for border")

// Generate Fill-scales img into a centered square and returns it as PNG.
func Generate(img image.Image, opts Options, renderer ports.Renderer) ([]byte, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Background == nil {
		opts.Background = color.Transparent
	}
	inner := opts.Size - 2*opts.Border
	if inner <= 0 {
		return nil, ErrTooSmall
	}

	square := image.NewRGBA(image.Rect(0, 0, inner, inner))
	if err := scaler.Scale(img, square, pipeline.Fill); err != nil {
		return nil, err
	}

	canvas := renderer.CreateCanvas(opts.Size, opts.Size, opts.Background)
	if opts.Radius > 0 {
		canvas.ClipRoundedRect(opts.Border, opts.Border, inner, inner, opts.Radius)
	}
	canvas.DrawImage(square, opts.Border, opts.Border)
	canvas.ResetClip()

	return renderer.EncodeImage(canvas.ToImage(), ports.FormatPNG, 0)
}
