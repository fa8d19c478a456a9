// Package nullsink provides a debug sink that discards everything.
package nullsink

import (
	"image"

	"github.com/user/timelapse/pkg/ports"
)

// Sink is a no-op ports.DebugSink used when --debug is off.
type Sink struct{}

// New creates a new Sink.
func New() *Sink {
	return &Sink{}
}

func (s *Sink) Enabled() bool                              { return false }
func (s *Sink) SaveRequestJSON(data []byte) error          { return nil }
func (s *Sink) SaveFrame(index int, img image.Image) error { return nil }

var _ ports.DebugSink = (*Sink)(nil)
