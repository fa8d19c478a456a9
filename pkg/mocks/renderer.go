package mocks

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/user/timelapse/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)

	// Canvases holds every canvas created by CreateCanvas.
	Canvases []*Canvas
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	c := &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	m.Canvases = append(m.Canvases, c)
	return c
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte("image"), nil
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas is a mock implementation of ports.Canvas backed by an RGBA image.
// Clipping is recorded but not applied.
type Canvas struct {
	img *image.RGBA

	DrawnImages int
	Clips       []image.Rectangle
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {
	m.DrawnImages++
	r := img.Bounds().Sub(img.Bounds().Min).Add(image.Pt(x, y))
	draw.Draw(m.img, r, img, img.Bounds().Min, draw.Over)
}

func (m *Canvas) ClipRoundedRect(x, y, w, h, radius int) {
	m.Clips = append(m.Clips, image.Rect(x, y, x+w, y+h))
}

func (m *Canvas) ResetClip() {}

func (m *Canvas) ToImage() image.Image {
	return m.img
}

var _ ports.Canvas = (*Canvas)(nil)
