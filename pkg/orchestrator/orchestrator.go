// Package orchestrator drives a time-lapse build from a list of stills to
// a finished video, reporting progress and the outcome through callbacks.
package orchestrator

import (
	"context"
	"errors"
	"image"
	"path/filepath"

	"github.com/user/timelapse/pkg/framesource"
	"github.com/user/timelapse/pkg/frametimer"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/poster"
	"github.com/user/timelapse/pkg/scaler"
	"github.com/user/timelapse/pkg/session"
)

// Callbacks receive build events. Each is delivered through the
// orchestrator's dispatcher; nil callbacks are skipped.
//
// Progress is called once per accepted frame, in order. Exactly one of
// Success or Failure is called, after the last Progress.
type Callbacks struct {
	Progress func(pipeline.Progress)
	Success  func(pipeline.BuildResult)
	Failure  func(error)
}

// Orchestrator coordinates the loader, scaler and encode session.
// An Orchestrator owns its encoder and runs a single build.
type Orchestrator struct {
	encoder    ports.VideoEncoder
	loader     ports.ImageLoader
	fs         ports.FileSystem
	renderer   ports.Renderer
	sink       ports.DebugSink
	dispatcher ports.Dispatcher
	logger     ports.Logger
}

// New creates a new Orchestrator.
func New(
	encoder ports.VideoEncoder,
	loader ports.ImageLoader,
	fs ports.FileSystem,
	renderer ports.Renderer,
	sink ports.DebugSink,
	dispatcher ports.Dispatcher,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		encoder:    encoder,
		loader:     loader,
		fs:         fs,
		renderer:   renderer,
		sink:       sink,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Build is a handle on a running build.
type Build struct {
	cancel context.CancelFunc
	done   chan struct{}
	result pipeline.BuildResult
	err    error
}

// Done is closed when the build has finished and its terminal callback
// has been dispatched.
func (b *Build) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the build finishes.
func (b *Build) Wait() (pipeline.BuildResult, error) {
	<-b.done
	return b.result, b.err
}

// Cancel stops the build. The partial output is removed and Failure
// receives a Cancelled error.
func (b *Build) Cancel() {
	b.cancel()
}

// Start runs the build on its own goroutine and returns immediately.
func (o *Orchestrator) Start(ctx context.Context, req Request, cb Callbacks) *Build {
	ctx, cancel := context.WithCancel(ctx)
	b := &Build{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(b.done)
		defer cancel()

		b.result, b.err = o.build(ctx, req, cb)
		if b.err != nil {
			if pipeline.KindOf(b.err) == pipeline.Cancelled {
				o.logger.Warn("Build cancelled: %v", b.err)
			} else {
				o.logger.Error("Build failed: %v", b.err)
			}
			if cb.Failure != nil {
				err := b.err
				o.dispatcher.Dispatch(func() { cb.Failure(err) })
			}
			return
		}
		if cb.Success != nil {
			result := b.result
			o.dispatcher.Dispatch(func() { cb.Success(result) })
		}
	}()

	return b
}

// Run executes a build and waits for it.
func (o *Orchestrator) Run(ctx context.Context, req Request, cb Callbacks) (pipeline.BuildResult, error) {
	return o.Start(ctx, req, cb).Wait()
}

func (o *Orchestrator) build(ctx context.Context, req Request, cb Callbacks) (pipeline.BuildResult, error) {
	if err := req.validate(); err != nil {
		return pipeline.BuildResult{}, err
	}

	o.logger.Info("Building %d frames at %s, %d fps (%s)",
		len(req.Images), req.Size.String(), req.FPS, req.Fit.String())

	if err := o.prepareOutput(req.OutputPath); err != nil {
		return pipeline.BuildResult{}, err
	}

	if o.sink.Enabled() {
		if data, err := req.debugJSON(); err == nil {
			if err := o.sink.SaveRequestJSON(data); err != nil {
				o.logger.Warn("Failed to save debug request: %v", err)
			}
		}
	}

	sess := session.New(o.encoder, o.fs, session.Options{
		Settings:     req.encoderSettings(),
		PoolSize:     req.PoolSize,
		ReadyTimeout: req.ReadyTimeout,
	}, o.logger)
	if err := sess.Start(ctx); err != nil {
		return pipeline.BuildResult{}, err
	}

	first, loopErr := o.writeFrames(ctx, sess, req, cb)
	if loopErr == nil && ctx.Err() != nil {
		loopErr = pipeline.NewError(pipeline.Cancelled, "build cancelled", ctx.Err())
	}
	switch pipeline.KindOf(loopErr) {
	case pipeline.Cancelled, pipeline.Stalled:
		// The encoder may never drain; tear it down without finalizing.
		if err := sess.Abort(); err != nil {
			o.logger.Warn("Teardown error: %v", err)
		}
		return pipeline.BuildResult{}, loopErr
	}
	sess.Fail(loopErr)

	result, err := sess.Finish(ctx)
	if err != nil {
		return pipeline.BuildResult{}, err
	}

	if size, err := o.fs.Size(result.OutputPath); err == nil {
		result.FileSize = size
	}
	o.logger.Info("Video saved to %s (%d frames, %s)", result.OutputPath, result.Frames, result.Duration.String())

	if req.Poster != nil && first != nil {
		if err := o.writePoster(first, req.Poster); err != nil {
			o.logger.Warn("Failed to write poster: %v", err)
		} else {
			result.PosterPath = req.Poster.Path
			o.logger.Info("Poster saved to %s", req.Poster.Path)
		}
	}

	return result, nil
}

// writeFrames pulls, decodes, scales and submits every image in order.
// It returns the first oriented still for the poster.
func (o *Orchestrator) writeFrames(ctx context.Context, sess *session.Session, req Request, cb Callbacks) (image.Image, error) {
	source := framesource.New(req.Images)
	sc := scaler.New(req.Interpolation)
	total := source.Total()

	var first image.Image
	for index := 0; !source.Exhausted(); index++ {
		if err := ctx.Err(); err != nil {
			return first, pipeline.NewError(pipeline.Cancelled, "build cancelled", err)
		}
		if err := sess.WaitReady(ctx); err != nil {
			return first, err
		}

		ref, ok := source.Next()
		if !ok {
			break
		}

		decoded, err := o.loader.Load(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return first, pipeline.NewError(pipeline.Cancelled, "build cancelled", ctx.Err())
			}
			return first, pipeline.FrameError(pipeline.DecodeError, index, "decode "+string(ref), err)
		}
		img := scaler.Orient(decoded.Image, decoded.Orientation)
		if first == nil && req.Poster != nil {
			first = img
		}

		buf, err := sess.AcquireBuffer()
		if err != nil {
			return first, err
		}
		if err := sc.Scale(img, buf.RGBA(), req.Fit); err != nil {
			buf.Discard()
			return first, pipeline.FrameError(pipeline.DecodeError, index, "unusable image "+string(ref), err)
		}

		if o.sink.Enabled() {
			if err := o.sink.SaveFrame(index, buf.RGBA()); err != nil {
				o.logger.Warn("Failed to save debug frame %d: %v", index, err)
			}
		}

		if err := sess.Submit(buf, frametimer.TimestampFor(index, req.FPS)); err != nil {
			return first, err
		}

		progress := pipeline.Progress{Completed: sess.Frames(), Total: total}
		o.logger.Debug("Frame %d/%d", progress.Completed, progress.Total)
		if cb.Progress != nil {
			o.dispatcher.Dispatch(func() { cb.Progress(progress) })
		}
	}
	return first, nil
}

// prepareOutput removes a stale output file and creates its directory.
func (o *Orchestrator) prepareOutput(path string) error {
	exists, err := o.fs.Exists(path)
	if err != nil {
		return pipeline.NewError(pipeline.IOError, "check output path", err)
	}
	if exists {
		if err := o.fs.Remove(path); err != nil {
			return pipeline.NewError(pipeline.IOError, "remove existing output", err)
		}
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := o.fs.MkdirAll(dir); err != nil {
			return pipeline.NewError(pipeline.IOError, "create output directory", err)
		}
	}
	return nil
}

func (o *Orchestrator) writePoster(img image.Image, req *PosterRequest) error {
	if req.Path == "" {
		return errors.New("no poster path")
	}
	data, err := poster.Generate(img, req.Options, o.renderer)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(req.Path); dir != "" && dir != "." {
		if err := o.fs.MkdirAll(dir); err != nil {
			return err
		}
	}
	return o.fs.WriteFile(req.Path, data)
}
