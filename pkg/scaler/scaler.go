// Package scaler maps source images onto a fixed-size RGBA canvas.
package scaler

import (
	"fmt"
	"image"
	"math"
	"strings"

	"golang.org/x/image/draw"

	"github.com/user/timelapse/pkg/pipeline"
)

// Interpolation selects the resampling kernel.
type Interpolation int

const (
	CatmullRom Interpolation = iota
	BiLinear
	NearestNeighbor
)

func (i Interpolation) String() string {
	switch i {
	case BiLinear:
		return "bilinear"
	case NearestNeighbor:
		return "nearest"
	default:
		return "catmullrom"
	}
}

// ParseInterpolation parses "catmullrom", "bilinear" or "nearest".
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "catmullrom", "catmull-rom":
		return CatmullRom, nil
	case "bilinear":
		return BiLinear, nil
	case "nearest", "nearestneighbor":
		return NearestNeighbor, nil
	default:
		return CatmullRom, fmt.Errorf("unknown interpolation %q", s)
	}
}

func (i Interpolation) kernel() draw.Scaler {
	switch i {
	case BiLinear:
		return draw.BiLinear
	case NearestNeighbor:
		return draw.NearestNeighbor
	default:
		return draw.CatmullRom
	}
}

// Scaler draws images onto a canvas using a fixed interpolation kernel.
type Scaler struct {
	kernel draw.Scaler
}

// New creates a Scaler.
func New(interp Interpolation) *Scaler {
	return &Scaler{kernel: interp.kernel()}
}

// Scale draws src into dst with the package default kernel (Catmull-Rom).
func Scale(src image.Image, dst *image.RGBA, mode pipeline.FitMode) error {
	return New(CatmullRom).Scale(src, dst, mode)
}

// Placement returns where an srcW x srcH image lands on canvas under mode.
//
// The scaled size is rounded to the nearest pixel and the image is centered
// on both axes. Under Fill the rectangle may extend past the canvas; the
// overflow is split evenly between the two sides.
func Placement(srcW, srcH int, canvas pipeline.Size, mode pipeline.FitMode) image.Rectangle {
	if srcW <= 0 || srcH <= 0 || !canvas.Valid() {
		return image.Rectangle{}
	}

	hRatio := float64(canvas.Width) / float64(srcW)
	vRatio := float64(canvas.Height) / float64(srcH)
	ratio := math.Min(hRatio, vRatio)
	if mode == pipeline.Fill {
		ratio = math.Max(hRatio, vRatio)
	}

	w := int(math.Round(float64(srcW) * ratio))
	h := int(math.Round(float64(srcH) * ratio))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	x := (canvas.Width - w) / 2
	y := (canvas.Height - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

// Scale clears dst to transparent and draws src onto it under mode.
// It fails with a ScaleError when src or dst has no pixels.
func (s *Scaler) Scale(src image.Image, dst *image.RGBA, mode pipeline.FitMode) error {
	if src == nil {
		return pipeline.NewError(pipeline.ScaleError, "no source image", nil)
	}
	sb := src.Bounds()
	if sb.Empty() {
		return pipeline.NewError(pipeline.ScaleError, fmt.Sprintf("source image has zero size (%dx%d)", sb.Dx(), sb.Dy()), nil)
	}
	if dst == nil || dst.Bounds().Empty() {
		return pipeline.NewError(pipeline.ScaleError, "destination canvas has zero size", nil)
	}

	db := dst.Bounds()
	draw.Draw(dst, db, image.Transparent, image.Point{}, draw.Src)

	canvas := pipeline.Size{Width: db.Dx(), Height: db.Dy()}
	rect := Placement(sb.Dx(), sb.Dy(), canvas, mode).Add(db.Min)
	s.kernel.Scale(dst, rect, src, sb, draw.Src, nil)
	return nil
}
