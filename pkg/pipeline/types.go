// Package pipeline defines the data model shared by the time-lapse components.
package pipeline

import (
	"fmt"
	"image"
	"strings"
	"time"
)

// =============================================================================
// Inputs
// =============================================================================

// ImageRef is an opaque handle to a source image, usually a file path.
type ImageRef string

// Size represents a canvas width and height in pixels.
type Size struct {
	Width  int
	Height int
}

// DefaultSize is the canvas used when the caller does not choose one (720p).
var DefaultSize = Size{Width: 1280, Height: 720}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// FitMode selects how a source image is mapped onto the canvas.
type FitMode int

const (
	// Fit scales the image to be fully contained in the canvas (letterbox).
	Fit FitMode = iota
	// Fill scales the image to fully cover the canvas, cropping the overflow.
	Fill
)

func (m FitMode) String() string {
	switch m {
	case Fit:
		return "fit"
	case Fill:
		return "fill"
	default:
		return "unknown"
	}
}

// ParseFitMode parses "fit" or "fill" (case-insensitive).
func ParseFitMode(s string) (FitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fit":
		return Fit, nil
	case "fill":
		return Fill, nil
	default:
		return Fit, fmt.Errorf("unknown fit mode %q (want fit or fill)", s)
	}
}

// Orientation is the EXIF orientation tag of a source image (1-8).
type Orientation uint8

// EXIF orientation values, named after the position of the stored row 0 / column 0.
const (
	OrientationUnknown     Orientation = 0
	OrientationTopLeft     Orientation = 1 // upright
	OrientationTopRight    Orientation = 2 // mirrored horizontally
	OrientationBottomRight Orientation = 3 // rotated 180
	OrientationBottomLeft  Orientation = 4 // mirrored vertically
	OrientationLeftTop     Orientation = 5 // transposed
	OrientationRightTop    Orientation = 6 // needs 90 clockwise
	OrientationRightBottom Orientation = 7 // transversed
	OrientationLeftBottom  Orientation = 8 // needs 90 counter-clockwise
)

// DecodedImage is a source image together with its orientation metadata.
type DecodedImage struct {
	Image       image.Image
	Orientation Orientation
	Format      string
}

// =============================================================================
// Outputs
// =============================================================================

// Progress reports how many frames have been appended out of the total.
type Progress struct {
	Completed int
	Total     int
}

// Fraction returns the completed share in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// BuildResult describes a finished video.
type BuildResult struct {
	OutputPath string
	Frames     int
	Duration   time.Duration
	FileSize   int64
	Size       Size
	FPS        int

	// PosterPath is set when a poster was written alongside the video.
	PosterPath string
}
