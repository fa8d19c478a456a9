package ports

import (
	"image"
	"image/color"
)

// Renderer abstracts 2D drawing for derived artifacts such as posters.
type Renderer interface {
	// CreateCanvas creates a drawing canvas filled with bg.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// EncodeImage encodes an image to the specified format.
	// quality applies to JPEG only.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)
}

// Canvas provides drawing operations on a single image.
type Canvas interface {
	DrawImage(img image.Image, x, y int)

	// ClipRoundedRect restricts subsequent drawing to a rounded rectangle.
	ClipRoundedRect(x, y, w, h, radius int)

	ResetClip()

	ToImage() image.Image
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)
