package scaler

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/user/timelapse/pkg/pipeline"
)

// Orient returns img transformed so that it displays upright.
// Unknown or upright orientations return img unchanged.
func Orient(img image.Image, o pipeline.Orientation) image.Image {
	switch o {
	case pipeline.OrientationTopRight:
		return imaging.FlipH(img)
	case pipeline.OrientationBottomRight:
		return imaging.Rotate180(img)
	case pipeline.OrientationBottomLeft:
		return imaging.FlipV(img)
	case pipeline.OrientationLeftTop:
		return imaging.Transpose(img)
	case pipeline.OrientationRightTop:
		return imaging.Rotate270(img)
	case pipeline.OrientationRightBottom:
		return imaging.Transverse(img)
	case pipeline.OrientationLeftBottom:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
