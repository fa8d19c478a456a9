// Package session wraps a push-style video encoder in a guarded state machine.
//
// A Session owns one output file for one build. Frames are written to a
// staging file next to the destination and renamed into place only when the
// encoder finishes cleanly, so a failed build never leaves a partial video
// at the requested path.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/user/timelapse/pkg/frametimer"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
)

// Options configures a Session.
type Options struct {
	Settings ports.EncoderSettings

	// PoolSize caps the number of pixel buffers. Zero means QueueDepth+2:
	// one per queued frame, one being encoded and one being drawn.
	PoolSize int

	// ReadyTimeout bounds each WaitReady call. Zero waits indefinitely.
	ReadyTimeout time.Duration
}

// Session drives a single ports.VideoEncoder from Idle to Completed or Failed.
type Session struct {
	encoder      ports.VideoEncoder
	fs           ports.FileSystem
	logger       ports.Logger
	settings     ports.EncoderSettings
	readyTimeout time.Duration
	pool         *BufferPool

	// ready carries at most one pending readiness signal.
	ready chan struct{}

	mu          sync.Mutex
	state       State
	stagingPath string
	last        frametimer.Timestamp
	hasLast     bool
	frames      int
	err         *pipeline.Error
}

// New creates an idle session.
func New(encoder ports.VideoEncoder, fs ports.FileSystem, opts Options, logger ports.Logger) *Session {
	depth := opts.Settings.QueueDepth
	if depth < 1 {
		depth = 1
	}
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = depth + 2
	}
	return &Session{
		encoder:      encoder,
		fs:           fs,
		logger:       logger.WithComponent("session"),
		settings:     opts.Settings,
		readyTimeout: opts.ReadyTimeout,
		pool:         NewBufferPool(opts.Settings.Width, opts.Settings.Height, poolSize),
		ready:        make(chan struct{}, 1),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the first error captured by the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		return nil
	}
	return s.err
}

// Frames returns the number of frames accepted so far.
func (s *Session) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Pool exposes the buffer pool for inspection.
func (s *Session) Pool() *BufferPool {
	return s.pool
}

// Start configures and starts the encoder, moving Idle to Writing.
// On failure the session becomes Failed and is unusable.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return s.invalid("start")
	}

	s.stagingPath = stagingPath(s.settings.OutputPath)
	settings := s.settings
	settings.OutputPath = s.stagingPath

	s.encoder.OnReady(s.signalReady)

	if err := s.encoder.Configure(settings); err != nil {
		return s.failStartLocked("configure encoder", err)
	}
	if err := s.encoder.Start(ctx); err != nil {
		return s.failStartLocked("start encoder", err)
	}

	s.state = Writing
	s.logger.Debug("Session started: %dx%d at %d fps, %d buffers, staging to %s",
		settings.Width, settings.Height, settings.FPS, s.pool.Capacity(), s.stagingPath)
	return nil
}

func (s *Session) failStartLocked(what string, err error) error {
	s.state = Failed
	s.err = pipeline.NewError(pipeline.StartError, what, err)
	if rmErr := s.fs.Remove(s.stagingPath); rmErr != nil {
		s.logger.Debug("Failed to remove staging file: %v", rmErr)
	}
	return s.err
}

// Ready reports whether the encoder would accept a frame now.
func (s *Session) Ready() bool {
	return s.State() == Writing && s.encoder.ReadyForMoreData()
}

// WaitReady blocks until the encoder can accept a frame.
//
// It returns a Cancelled error when ctx ends and a Stalled error when the
// ready timeout elapses first. It never polls: between checks it sleeps on
// the encoder's readiness callback.
func (s *Session) WaitReady(ctx context.Context) error {
	if st := s.State(); st != Writing {
		return pipeline.NewError(pipeline.InvalidState, fmt.Sprintf("wait for readiness in state %s", st), nil)
	}

	var timeout <-chan time.Time
	if s.readyTimeout > 0 {
		t := time.NewTimer(s.readyTimeout)
		defer t.Stop()
		timeout = t.C
	}

	for {
		if s.encoder.ReadyForMoreData() {
			return nil
		}
		select {
		case <-s.ready:
		case <-ctx.Done():
			return pipeline.NewError(pipeline.Cancelled, "cancelled while waiting for encoder", ctx.Err())
		case <-timeout:
			return pipeline.NewError(pipeline.Stalled,
				fmt.Sprintf("encoder not ready after %s", s.readyTimeout), nil)
		}
	}
}

func (s *Session) signalReady() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// AcquireBuffer borrows a canvas-sized buffer from the pool.
func (s *Session) AcquireBuffer() (*PixelBuffer, error) {
	s.mu.Lock()
	if s.state != Writing {
		defer s.mu.Unlock()
		return nil, s.invalid("acquire buffer")
	}
	s.mu.Unlock()
	return s.pool.Get()
}

// Submit hands buf to the encoder for presentation at ts.
//
// Misuse (a foreign or already-submitted buffer, a session that is not
// Writing, an encoder that is not ready) returns InvalidState. An encoder
// rejection or a non-increasing timestamp returns an AppendError, which is
// also captured and reported by Err and Finish; the session stays Writing
// so that Finish can release the encoder.
func (s *Session) Submit(buf *PixelBuffer, ts frametimer.Timestamp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Writing {
		return s.invalid("submit")
	}
	if buf == nil || buf.pool != s.pool {
		return pipeline.NewError(pipeline.InvalidState, "buffer does not belong to this session", nil)
	}
	if buf.img == nil {
		return pipeline.NewError(pipeline.InvalidState, "buffer already submitted or discarded", nil)
	}
	if !s.encoder.ReadyForMoreData() {
		return pipeline.NewError(pipeline.InvalidState, "submit while encoder is not ready", nil)
	}

	if !ts.Valid() || (s.hasLast && !ts.After(s.last)) {
		buf.Discard()
		return s.recordLocked(pipeline.FrameError(pipeline.AppendError, s.frames,
			fmt.Sprintf("timestamp %v does not follow %v", ts, s.last), nil))
	}

	img := buf.take()
	if err := s.encoder.Append(img, ts, func() { s.pool.put(img) }); err != nil {
		s.pool.put(img)
		return s.recordLocked(pipeline.FrameError(pipeline.AppendError, s.frames, "encoder rejected frame", err))
	}

	s.last = ts
	s.hasLast = true
	s.frames++
	return nil
}

// Fail records err as the session's outcome so that Finish releases the
// encoder and reports it instead of committing the output. Only the first
// recorded error is kept.
func (s *Session) Fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Writing {
		return
	}
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		perr = pipeline.NewError(pipeline.AppendError, "build failed", err)
	}
	s.recordLocked(perr)
}

func (s *Session) recordLocked(err *pipeline.Error) error {
	if s.err == nil {
		s.err = err
	}
	return err
}

// Finish drains the encoder and commits the output. It must be called
// exactly once, after the last Submit. If an error was captured while
// writing, the encoder is still finished to release its resources, the
// staging file is removed and the captured error is returned.
func (s *Session) Finish(ctx context.Context) (pipeline.BuildResult, error) {
	s.mu.Lock()
	if s.state != Writing {
		defer s.mu.Unlock()
		return pipeline.BuildResult{}, s.invalid("finish")
	}
	s.state = Finishing
	s.mu.Unlock()

	finishErr := s.encoder.Finish(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if finishErr != nil {
		kind := pipeline.AppendError
		if ctx.Err() != nil {
			kind = pipeline.Cancelled
		}
		s.recordLocked(pipeline.NewError(kind, "encoder failed to finish", finishErr))
	}
	if s.err != nil {
		s.state = Failed
		if err := s.fs.Remove(s.stagingPath); err != nil {
			s.logger.Debug("Failed to remove staging file: %v", err)
		}
		return pipeline.BuildResult{}, s.err
	}

	if err := s.fs.Rename(s.stagingPath, s.settings.OutputPath); err != nil {
		s.state = Failed
		s.err = pipeline.NewError(pipeline.IOError, "commit output", err)
		return pipeline.BuildResult{}, s.err
	}

	s.state = Completed
	duration := frametimer.Timestamp{}
	if s.hasLast {
		duration = s.last.Add(frametimer.FrameDuration(s.settings.FPS))
	}
	s.logger.Debug("Session completed: %d frames, %s", s.frames, duration.Duration())
	return pipeline.BuildResult{
		OutputPath: s.settings.OutputPath,
		Frames:     s.frames,
		Duration:   duration.Duration(),
		Size:       pipeline.Size{Width: s.settings.Width, Height: s.settings.Height},
		FPS:        s.settings.FPS,
	}, nil
}

// Abort tears the session down without finalizing the output.
// It is a no-op on a session that has already failed.
func (s *Session) Abort() error {
	s.mu.Lock()
	switch s.state {
	case Failed:
		s.mu.Unlock()
		return nil
	case Completed:
		defer s.mu.Unlock()
		return s.invalid("abort")
	}
	started := s.state != Idle
	s.state = Failed
	staging := s.stagingPath
	s.mu.Unlock()

	var err error
	if started {
		err = multierr.Append(err, s.encoder.Abort())
		err = multierr.Append(err, s.fs.Remove(staging))
	}
	return err
}

func (s *Session) invalid(op string) error {
	return pipeline.NewError(pipeline.InvalidState, fmt.Sprintf("%s in state %s", op, s.state), nil)
}

// stagingPath returns a hidden sibling of final that keeps its extension,
// since encoders pick the container from it.
func stagingPath(final string) string {
	dir, base := filepath.Split(final)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf(".%s.%s.partial%s", name, uuid.NewString()[:8], ext))
}
