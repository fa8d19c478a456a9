// Package h264encoder encodes H.264 MP4 files by streaming raw RGBA frames
// into an ffmpeg process.
package h264encoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/user/timelapse/pkg/adapters/internal/framequeue"
	"github.com/user/timelapse/pkg/frametimer"
	"github.com/user/timelapse/pkg/ports"
)

// DefaultQueueDepth is used when settings leave QueueDepth at zero.
const DefaultQueueDepth = 2

// FFmpegEncoder implements ports.VideoEncoder with an external ffmpeg.
// Frames are queued and written to ffmpeg's stdin by a single goroutine,
// so Append never blocks on the encoder.
type FFmpegEncoder struct {
	logger ports.Logger

	mu         sync.Mutex
	settings   ports.EncoderSettings
	configured bool
	ffmpegPath string
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stderr     bytes.Buffer
	queue      *framequeue.Queue
	onReady    func()
	done       bool
}

// NewFFmpegEncoder creates an encoder. ffmpeg is located at Configure time.
func NewFFmpegEncoder(logger ports.Logger) *FFmpegEncoder {
	return &FFmpegEncoder{logger: logger.WithComponent("h264")}
}

// Configure validates settings and locates ffmpeg.
// yuv420p output requires even dimensions.
func (e *FFmpegEncoder) Configure(settings ports.EncoderSettings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if settings.Codec != "" && settings.Codec != ports.CodecH264 {
		return fmt.Errorf("h264encoder: unsupported codec %q", settings.Codec)
	}
	if settings.Width <= 0 || settings.Height <= 0 {
		return fmt.Errorf("h264encoder: invalid size %dx%d", settings.Width, settings.Height)
	}
	if settings.Width%2 != 0 || settings.Height%2 != 0 {
		return fmt.Errorf("h264encoder: size %dx%d must be even", settings.Width, settings.Height)
	}
	if settings.FPS <= 0 || settings.FPS > frametimer.MaxFPS {
		return fmt.Errorf("h264encoder: invalid frame rate %d", settings.FPS)
	}
	if settings.OutputPath == "" {
		return fmt.Errorf("h264encoder: no output path")
	}
	if settings.QueueDepth <= 0 {
		settings.QueueDepth = DefaultQueueDepth
	}

	path, err := FindFFmpeg()
	if err != nil {
		return err
	}

	e.ffmpegPath = path
	e.settings = settings
	e.configured = true
	return nil
}

// Start launches ffmpeg. The process is killed if ctx ends before Finish.
func (e *FFmpegEncoder) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.configured {
		return ErrNotConfigured
	}
	if e.cmd != nil {
		return fmt.Errorf("h264encoder: already started")
	}

	args := buildArgs(e.settings)
	e.logger.Debug("Starting ffmpeg: %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.Stderr = &e.stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("h264encoder: stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("h264encoder: start ffmpeg: %w", err)
	}

	e.cmd = cmd
	e.stdin = stdin
	e.queue = framequeue.New(e.settings.QueueDepth, e.writeFrame)
	e.queue.SetOnReady(e.notifyReady)
	return nil
}

func (e *FFmpegEncoder) notifyReady() {
	e.mu.Lock()
	fn := e.onReady
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *FFmpegEncoder) OnReady(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onReady = fn
}

func (e *FFmpegEncoder) ReadyForMoreData() bool {
	e.mu.Lock()
	q, done := e.queue, e.done
	e.mu.Unlock()
	return q != nil && !done && q.Ready()
}

func (e *FFmpegEncoder) Append(frame *image.RGBA, pts frametimer.Timestamp, release func()) error {
	e.mu.Lock()
	q, done, w, h := e.queue, e.done, e.settings.Width, e.settings.Height
	e.mu.Unlock()

	if q == nil {
		return ErrNotStarted
	}
	if done {
		return ErrAlreadyFinished
	}
	if b := frame.Bounds(); b.Dx() != w || b.Dy() != h {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrFrameSize, b.Dx(), b.Dy(), w, h)
	}
	return q.Push(framequeue.Item{Frame: frame, PTS: pts, Release: release})
}

// writeFrame streams one frame's rows to ffmpeg.
func (e *FFmpegEncoder) writeFrame(it framequeue.Item) error {
	f := it.Frame
	b := f.Bounds()
	rowBytes := b.Dx() * 4

	if f.Stride == rowBytes {
		start := f.PixOffset(b.Min.X, b.Min.Y)
		_, err := e.stdin.Write(f.Pix[start : start+rowBytes*b.Dy()])
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := f.PixOffset(b.Min.X, y)
		if _, err := e.stdin.Write(f.Pix[off : off+rowBytes]); err != nil {
			return err
		}
	}
	return nil
}

// Finish writes the remaining frames, closes ffmpeg's input and waits for
// it to finalize the MP4. If ctx ends first, ffmpeg is killed.
func (e *FFmpegEncoder) Finish(ctx context.Context) error {
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
		err = multierr.Append(err, e.stdin.Close())
		if werr := e.cmd.Wait(); werr != nil {
			err = multierr.Append(err, fmt.Errorf("ffmpeg encoding failed: %w\nstderr: %s", werr, stderrTail(e.stderr.String())))
		}
		result <- err
	}()

	select {
	case err := <-result:
		if err == nil {
			e.logger.Debug("Encoder drained %d frames", e.queue.Written())
		}
		return err
	case <-ctx.Done():
		_ = e.cmd.Process.Kill()
		<-result
		return ctx.Err()
	}
}

// Abort kills ffmpeg and drops any queued frames.
func (e *FFmpegEncoder) Abort() error {
	e.mu.Lock()
	if e.queue == nil || e.done {
		e.done = true
		e.mu.Unlock()
		return nil
	}
	e.done = true
	e.mu.Unlock()

	_ = e.cmd.Process.Kill()
	e.queue.Abort()
	_ = e.stdin.Close()
	_ = e.cmd.Wait()
	e.logger.Debug("Encoder aborted after %d frames", e.queue.Written())
	return nil
}

func stderrTail(s string) string {
	const max = 2048
	if len(s) > max {
		return "..." + s[len(s)-max:]
	}
	return s
}

var _ ports.VideoEncoder = (*FFmpegEncoder)(nil)
