package ports

import (
	"image"
)

// DebugSink receives intermediate artifacts of a build for inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveRequestJSON saves the resolved build request.
	SaveRequestJSON(data []byte) error

	// SaveFrame saves a scaled canvas just before it is submitted.
	SaveFrame(index int, img image.Image) error
}
