// Package frametimer computes presentation timestamps for frames at a fixed rate.
//
// Timestamps are exact rationals (Value/Scale seconds) so that frame n at
// f frames per second is exactly n/f with no floating-point drift.
package frametimer

import (
	"fmt"
	"time"
)

// MaxFPS is the highest supported frame rate. Scales up to MaxFPS keep the
// common scale of any two timestamps within int32.
const MaxFPS = 240

// Timestamp is a presentation time of Value/Scale seconds.
// The zero value is not a valid timestamp.
type Timestamp struct {
	Value int64
	Scale int32
}

// TimestampFor returns the presentation time of frame index at fps.
// fps must be in 1..MaxFPS.
func TimestampFor(index int, fps int) Timestamp {
	if fps <= 0 || fps > MaxFPS {
		panic(fmt.Sprintf("frametimer: frame rate %d out of range", fps))
	}
	return Timestamp{Value: int64(index), Scale: int32(fps)}
}

// FrameDuration returns the duration of one frame at fps.
func FrameDuration(fps int) Timestamp {
	return TimestampFor(1, fps)
}

// Valid reports whether t has a positive scale.
func (t Timestamp) Valid() bool {
	return t.Scale > 0
}

// Cmp returns -1, 0 or +1 depending on whether t is before, equal to, or after u.
func (t Timestamp) Cmp(u Timestamp) int {
	l := t.Value * int64(u.Scale)
	r := u.Value * int64(t.Scale)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

// Equal reports whether t and u denote the same instant, regardless of scale.
func (t Timestamp) Equal(u Timestamp) bool {
	return t.Cmp(u) == 0
}

// After reports whether t is strictly later than u.
func (t Timestamp) After(u Timestamp) bool {
	return t.Cmp(u) > 0
}

// Add returns t+u on the smallest common scale.
func (t Timestamp) Add(u Timestamp) Timestamp {
	if t.Scale == u.Scale {
		return Timestamp{Value: t.Value + u.Value, Scale: t.Scale}
	}
	scale := lcm(int64(t.Scale), int64(u.Scale))
	return Timestamp{
		Value: t.Value*(scale/int64(t.Scale)) + u.Value*(scale/int64(u.Scale)),
		Scale: int32(scale),
	}
}

// Sub returns t-u on the smallest common scale.
func (t Timestamp) Sub(u Timestamp) Timestamp {
	return t.Add(Timestamp{Value: -u.Value, Scale: u.Scale})
}

// Seconds returns t as floating-point seconds.
func (t Timestamp) Seconds() float64 {
	if t.Scale == 0 {
		return 0
	}
	return float64(t.Value) / float64(t.Scale)
}

// Duration returns t as a time.Duration.
func (t Timestamp) Duration() time.Duration {
	if t.Scale == 0 {
		return 0
	}
	return time.Duration(t.Value) * time.Second / time.Duration(t.Scale)
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%d/%d", t.Value, t.Scale)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func lcm(a, b int64) int64 {
	return a / gcd(a, b) * b
}
