// Package mjpegencoder writes Motion-JPEG AVI files in pure Go.
//
// It is the fallback when no H.264 encoder is available. AVI streams have a
// fixed frame rate, so appended timestamps must lie exactly on the frame grid.
package mjpegencoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	"github.com/icza/mjpeg"
	"go.uber.org/multierr"

	"github.com/user/timelapse/pkg/adapters/internal/framequeue"
	"github.com/user/timelapse/pkg/frametimer"
	"github.com/user/timelapse/pkg/ports"
)

const (
	// DefaultQuality is used when settings leave JPEGQuality at zero.
	DefaultQuality = 85
	// DefaultQueueDepth is used when settings leave QueueDepth at zero.
	DefaultQueueDepth = 2
)

var (
	ErrNotStarted      = errors.New("mjpegencoder: encoder not started")
	ErrNotConfigured   = errors.New("mjpegencoder: encoder not configured")
	ErrAlreadyFinished = errors.New("mjpegencoder: encoder already finished")
	ErrOffGrid         = errors.New("mjpegencoder: timestamp is not on the frame grid")
)

// Encoder implements ports.VideoEncoder with github.com/icza/mjpeg.
type Encoder struct {
	logger ports.Logger

	mu         sync.Mutex
	settings   ports.EncoderSettings
	configured bool
	writer     mjpeg.AviWriter
	queue      *framequeue.Queue
	onReady    func()
	next       int
	done       bool
}

// New creates an MJPEG encoder.
func New(logger ports.Logger) *Encoder {
	return &Encoder{logger: logger.WithComponent("mjpeg")}
}

func (e *Encoder) Configure(settings ports.EncoderSettings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if settings.Codec != "" && settings.Codec != ports.CodecMJPEG {
		return fmt.Errorf("mjpegencoder: unsupported codec %q", settings.Codec)
	}
	if settings.Width <= 0 || settings.Height <= 0 {
		return fmt.Errorf("mjpegencoder: invalid size %dx%d", settings.Width, settings.Height)
	}
	if settings.FPS <= 0 || settings.FPS > frametimer.MaxFPS {
		return fmt.Errorf("mjpegencoder: invalid frame rate %d", settings.FPS)
	}
	if settings.OutputPath == "" {
		return fmt.Errorf("mjpegencoder: no output path")
	}
	if settings.JPEGQuality <= 0 {
		settings.JPEGQuality = DefaultQuality
	}
	if settings.JPEGQuality > 100 {
		settings.JPEGQuality = 100
	}
	if settings.QueueDepth <= 0 {
		settings.QueueDepth = DefaultQueueDepth
	}

	e.settings = settings
	e.configured = true
	return nil
}

// Start creates the AVI file and its header.
func (e *Encoder) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.configured {
		return ErrNotConfigured
	}
	if e.writer != nil {
		return fmt.Errorf("mjpegencoder: already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.logger.Debug("Opening AVI writer: %s", e.settings.OutputPath)
	w, err := mjpeg.New(e.settings.OutputPath, int32(e.settings.Width), int32(e.settings.Height), int32(e.settings.FPS))
	if err != nil {
		return fmt.Errorf("mjpegencoder: create %s: %w", e.settings.OutputPath, err)
	}

	e.writer = w
	e.queue = framequeue.New(e.settings.QueueDepth, e.writeFrame)
	e.queue.SetOnReady(e.notifyReady)
	return nil
}

func (e *Encoder) notifyReady() {
	e.mu.Lock()
	fn := e.onReady
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *Encoder) OnReady(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onReady = fn
}

func (e *Encoder) ReadyForMoreData() bool {
	e.mu.Lock()
	q, done := e.queue, e.done
	e.mu.Unlock()
	return q != nil && !done && q.Ready()
}

// Append queues frame. pts must equal the next slot on the frame grid.
func (e *Encoder) Append(frame *image.RGBA, pts frametimer.Timestamp, release func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.queue == nil {
		return ErrNotStarted
	}
	if e.done {
		return ErrAlreadyFinished
	}
	if b := frame.Bounds(); b.Dx() != e.settings.Width || b.Dy() != e.settings.Height {
		return fmt.Errorf("mjpegencoder: frame %dx%d does not match %dx%d",
			b.Dx(), b.Dy(), e.settings.Width, e.settings.Height)
	}
	want := frametimer.TimestampFor(e.next, e.settings.FPS)
	if !pts.Equal(want) {
		return fmt.Errorf("%w: got %v, want %v", ErrOffGrid, pts, want)
	}

	if err := e.queue.Push(framequeue.Item{Frame: frame, PTS: pts, Release: release}); err != nil {
		return err
	}
	e.next++
	return nil
}

func (e *Encoder) writeFrame(it framequeue.Item) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, it.Frame, &jpeg.Options{Quality: e.settings.JPEGQuality}); err != nil {
		return fmt.Errorf("jpeg encode: %w", err)
	}
	return e.writer.AddFrame(buf.Bytes())
}

// Finish writes queued frames and finalizes the AVI index.
func (e *Encoder) Finish(ctx context.Context) error {
	e.mu.Lock()
	if e.queue == nil {
		e.mu.Unlock()
		return ErrNotStarted
	}
	if e.done {
		e.mu.Unlock()
		return ErrAlreadyFinished
	}
	e.done = true
	e.mu.Unlock()

	result := make(chan error, 1)
	go func() {
		err := e.queue.Close()
		result <- multierr.Append(err, e.writer.Close())
	}()

	select {
	case err := <-result:
		if err == nil {
			e.logger.Debug("Encoder drained %d frames", e.queue.Written())
		}
		return err
	case <-ctx.Done():
		e.queue.Abort()
		<-result
		return ctx.Err()
	}
}

// Abort drops queued frames and closes the file.
func (e *Encoder) Abort() error {
	e.mu.Lock()
	if e.queue == nil || e.done {
		e.done = true
		e.mu.Unlock()
		return nil
	}
	e.done = true
	e.mu.Unlock()

	e.queue.Abort()
	err := e.writer.Close()
	e.logger.Debug("Encoder aborted after %d frames", e.queue.Written())
	return err
}

var _ ports.VideoEncoder = (*Encoder)(nil)
