// Package filesink writes debug artifacts of a build to a directory.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/timelapse/pkg/ports"
)

// Sink saves the resolved request and every submitted canvas:
//
//	<dir>/request.json
//	<dir>/frames/frame-0000.png
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new Sink rooted at baseDir.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

func (s *Sink) Enabled() bool {
	return true
}

func (s *Sink) SaveRequestJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "request.json"), data)
}

func (s *Sink) SaveFrame(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index)), data)
}

var _ ports.DebugSink = (*Sink)(nil)
