package mocks

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

// ImageLoader is a mock implementation of ports.ImageLoader.
// By default it returns a 100x100 opaque gray image for every reference.
type ImageLoader struct {
	mu sync.Mutex

	LoadFunc func(ctx context.Context, ref pipeline.ImageRef) (pipeline.DecodedImage, error)

	// Recorded calls for verification
	Loaded []pipeline.ImageRef
}

func (m *ImageLoader) Load(ctx context.Context, ref pipeline.ImageRef) (pipeline.DecodedImage, error) {
	m.mu.Lock()
	m.Loaded = append(m.Loaded, ref)
	m.mu.Unlock()
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, ref)
	}
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}), image.Point{}, draw.Src)
	return pipeline.DecodedImage{Image: img, Orientation: pipeline.OrientationTopLeft, Format: "png"}, nil
}

// Calls returns a copy of the references loaded so far.
func (m *ImageLoader) Calls() []pipeline.ImageRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pipeline.ImageRef, len(m.Loaded))
	copy(out, m.Loaded)
	return out
}

var _ ports.ImageLoader = (*ImageLoader)(nil)
