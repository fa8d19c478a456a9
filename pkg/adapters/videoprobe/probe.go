// Package videoprobe reads container headers of finished videos: frame
// count, duration, dimensions and codec. It understands MP4 (progressive
// and fragmented) and AVI.
package videoprobe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Container names reported in Info.
const (
	ContainerMP4 = "mp4"
	ContainerAVI = "avi"
)

// ErrUnknownContainer is returned for files that are neither MP4 nor AVI.
var ErrUnknownContainer = errors.New("videoprobe: unknown container")

// Info describes the video track of a file.
type Info struct {
	Container string
	// Codec is the sample entry or stream handler FourCC, e.g. "avc1" or "MJPG".
	Codec    string
	Frames   int
	Duration time.Duration
	Width    int
	Height   int
}

// FPS returns the average frame rate, or 0 when unknown.
func (i Info) FPS() float64 {
	if i.Duration <= 0 {
		return 0
	}
	return float64(i.Frames) / i.Duration.Seconds()
}

// ProbeFile opens path and probes it.
func ProbeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return Probe(f)
}

// Probe sniffs the container from the first bytes of r and reads its headers.
func Probe(r io.ReadSeeker) (Info, error) {
	var head [12]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Info{}, fmt.Errorf("read header: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("seek: %w", err)
	}

	switch {
	case bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("AVI ")):
		return probeAVI(r)
	case bytes.Equal(head[4:8], []byte("ftyp")) || bytes.Equal(head[4:8], []byte("moov")):
		return probeMP4(r)
	default:
		return Info{}, ErrUnknownContainer
	}
}
