// Package imageloader decodes still images and their EXIF orientation.
package imageloader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/evanoberholster/imagemeta"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

// Loader implements ports.ImageLoader over a ports.FileSystem.
// Supported formats: JPEG, PNG, GIF, BMP, TIFF and WebP.
type Loader struct {
	fs     ports.FileSystem
	logger ports.Logger
}

// New creates a Loader.
func New(fs ports.FileSystem, logger ports.Logger) *Loader {
	return &Loader{fs: fs, logger: logger.WithComponent("loader")}
}

// Load reads and decodes ref. Images without EXIF data report
// OrientationTopLeft.
func (l *Loader) Load(ctx context.Context, ref pipeline.ImageRef) (pipeline.DecodedImage, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.DecodedImage{}, err
	}

	data, err := l.fs.ReadFile(string(ref))
	if err != nil {
		return pipeline.DecodedImage{}, fmt.Errorf("read %s: %w", ref, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return pipeline.DecodedImage{}, fmt.Errorf("decode %s: %w", ref, err)
	}
	if b := img.Bounds(); b.Empty() {
		return pipeline.DecodedImage{}, fmt.Errorf("decode %s: image has zero size", ref)
	}

	orientation := l.orientation(ref, data)
	l.logger.Debug("Decoded %s (%s, %dx%d, orientation %d)",
		ref, format, img.Bounds().Dx(), img.Bounds().Dy(), orientation)

	return pipeline.DecodedImage{Image: img, Orientation: orientation, Format: format}, nil
}

func (l *Loader) orientation(ref pipeline.ImageRef, data []byte) pipeline.Orientation {
	exif, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		l.logger.Debug("No orientation metadata in %s: %v", ref, err)
		return pipeline.OrientationTopLeft
	}
	o := pipeline.Orientation(exif.Orientation)
	if o < pipeline.OrientationTopLeft || o > pipeline.OrientationLeftBottom {
		return pipeline.OrientationTopLeft
	}
	return o
}

var _ ports.ImageLoader = (*Loader)(nil)
