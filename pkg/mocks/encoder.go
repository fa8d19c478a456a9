package mocks

import (
	"context"
	"image"
	"sync"

	"github.com/user/timelapse/pkg/frametimer"
	"github.com/user/timelapse/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder.
// Accepted frames are released synchronously inside Append unless
// HoldFrames is set.
type VideoEncoder struct {
	mu sync.Mutex

	ConfigureFunc func(settings ports.EncoderSettings) error
	StartFunc     func(ctx context.Context) error
	ReadyFunc     func() bool
	AppendFunc    func(frame *image.RGBA, pts frametimer.Timestamp) error
	FinishFunc    func(ctx context.Context) error
	AbortFunc     func() error

	// Output, when set, receives placeholder bytes at the configured output
	// path when Finish succeeds, like a real encoder writing its container.
	Output *FileSystem

	// HoldFrames keeps accepted frames instead of releasing them, like an
	// encoder whose writer has stopped draining.
	HoldFrames bool

	// Recorded calls for verification
	Settings        ports.EncoderSettings
	ConfigureCalled bool
	StartCalled     bool
	AppendCalls     []AppendCall
	FinishCalls     int
	AbortCalled     bool

	onReady func()
	held    []func()
}

// AppendCall records a call to Append.
type AppendCall struct {
	PTS    frametimer.Timestamp
	Width  int
	Height int
}

func (m *VideoEncoder) Configure(settings ports.EncoderSettings) error {
	m.mu.Lock()
	m.ConfigureCalled = true
	m.Settings = settings
	m.mu.Unlock()
	if m.ConfigureFunc != nil {
		return m.ConfigureFunc(settings)
	}
	return nil
}

func (m *VideoEncoder) Start(ctx context.Context) error {
	m.mu.Lock()
	m.StartCalled = true
	m.mu.Unlock()
	if m.StartFunc != nil {
		return m.StartFunc(ctx)
	}
	return nil
}

func (m *VideoEncoder) ReadyForMoreData() bool {
	if m.ReadyFunc != nil {
		return m.ReadyFunc()
	}
	return true
}

func (m *VideoEncoder) OnReady(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReady = fn
}

// NotifyReady invokes the registered readiness callback, if any.
func (m *VideoEncoder) NotifyReady() {
	m.mu.Lock()
	fn := m.onReady
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (m *VideoEncoder) Append(frame *image.RGBA, pts frametimer.Timestamp, release func()) error {
	m.mu.Lock()
	m.AppendCalls = append(m.AppendCalls, AppendCall{
		PTS:    pts,
		Width:  frame.Bounds().Dx(),
		Height: frame.Bounds().Dy(),
	})
	m.mu.Unlock()
	if m.AppendFunc != nil {
		if err := m.AppendFunc(frame, pts); err != nil {
			return err
		}
	}
	if release == nil {
		return nil
	}
	m.mu.Lock()
	if m.HoldFrames {
		m.held = append(m.held, release)
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	release()
	return nil
}

func (m *VideoEncoder) Finish(ctx context.Context) error {
	m.mu.Lock()
	m.FinishCalls++
	path := m.Settings.OutputPath
	m.mu.Unlock()
	if m.FinishFunc != nil {
		if err := m.FinishFunc(ctx); err != nil {
			return err
		}
	}
	if m.Output != nil {
		return m.Output.WriteFile(path, []byte("video"))
	}
	return nil
}

func (m *VideoEncoder) Abort() error {
	m.mu.Lock()
	m.AbortCalled = true
	m.mu.Unlock()
	if m.AbortFunc != nil {
		return m.AbortFunc()
	}
	return nil
}

// Appends returns a copy of the recorded Append calls.
func (m *VideoEncoder) Appends() []AppendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AppendCall, len(m.AppendCalls))
	copy(out, m.AppendCalls)
	return out
}

// Finished returns how many times Finish was called.
func (m *VideoEncoder) Finished() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FinishCalls
}

// Aborted reports whether Abort was called.
func (m *VideoEncoder) Aborted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.AbortCalled
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)
