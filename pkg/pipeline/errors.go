package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a build failure.
type ErrorKind int

const (
	// StartError means the encoder or session failed to initialise.
	StartError ErrorKind = iota + 1
	// AppendError means the encoder rejected a frame or failed to finalise it.
	AppendError
	// DecodeError means a source image could not be read.
	DecodeError
	// PoolExhausted means the pixel-buffer pool could not produce a buffer.
	PoolExhausted
	// IOError means the output location could not be prepared or committed.
	IOError
	// InvalidState means the session state machine was misused.
	InvalidState
	// ScaleError means a decoded image could not be rasterized onto the canvas.
	ScaleError
	// Cancelled means the build was cancelled by the caller.
	Cancelled
	// Stalled means the encoder did not become ready within the allowed wait.
	Stalled
)

func (k ErrorKind) String() string {
	switch k {
	case StartError:
		return "StartError"
	case AppendError:
		return "AppendError"
	case DecodeError:
		return "DecodeError"
	case PoolExhausted:
		return "PoolExhausted"
	case IOError:
		return "IOError"
	case InvalidState:
		return "InvalidState"
	case ScaleError:
		return "ScaleError"
	case Cancelled:
		return "Cancelled"
	case Stalled:
		return "Stalled"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrStart         = &Error{Kind: StartError}
	ErrAppend        = &Error{Kind: AppendError}
	ErrDecode        = &Error{Kind: DecodeError}
	ErrPoolExhausted = &Error{Kind: PoolExhausted}
	ErrIO            = &Error{Kind: IOError}
	ErrInvalidState  = &Error{Kind: InvalidState}
	ErrScale         = &Error{Kind: ScaleError}
	ErrCancelled     = &Error{Kind: Cancelled}
	ErrStalled       = &Error{Kind: Stalled}
)

// Error is the single error type surfaced by a build.
type Error struct {
	Kind    ErrorKind
	Message string
	// Frame is the index of the frame being processed, or -1.
	Frame int
	Err   error
}

// NewError creates an error that is not tied to a frame.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Frame: -1, Err: err}
}

// FrameError creates an error for the frame at index.
func FrameError(kind ErrorKind, index int, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Frame: index, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Frame >= 0 {
		msg = fmt.Sprintf("frame %d: %s", e.Frame, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
