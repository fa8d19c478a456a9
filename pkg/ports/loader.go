package ports

import (
	"context"

	"github.com/user/timelapse/pkg/pipeline"
)

// ImageLoader decodes a source image reference.
type ImageLoader interface {
	// Load decodes ref and reports its orientation metadata.
	Load(ctx context.Context, ref pipeline.ImageRef) (pipeline.DecodedImage, error)
}
