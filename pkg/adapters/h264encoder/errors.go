package h264encoder

import "errors"

var (
	// ErrNotStarted is returned when frames are appended before Start.
	ErrNotStarted = errors.New("h264encoder: encoder not started")

	// ErrNotConfigured is returned when Start is called before Configure.
	ErrNotConfigured = errors.New("h264encoder: encoder not configured")

	// ErrAlreadyFinished is returned when the encoder is used after Finish or Abort.
	ErrAlreadyFinished = errors.New("h264encoder: encoder already finished")

	// ErrFFmpegNotFound is returned when no ffmpeg executable can be located.
	ErrFFmpegNotFound = errors.New("h264encoder: ffmpeg not found")

	// ErrFrameSize is returned when a frame does not match the configured size.
	ErrFrameSize = errors.New("h264encoder: frame size does not match settings")
)
