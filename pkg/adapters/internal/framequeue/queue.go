// Package framequeue is the bounded hand-off between a session and an
// encoder's writer goroutine.
package framequeue

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/user/timelapse/pkg/frametimer"
)

var (
	// ErrFull is returned by Push when the queue has no free slot.
	ErrFull = errors.New("frame queue is full")
	// ErrClosed is returned by Push after Close or Abort.
	ErrClosed = errors.New("frame queue is closed")
)

// Item is one queued frame.
type Item struct {
	Frame   *image.RGBA
	PTS     frametimer.Timestamp
	Release func()
}

// WriteFunc consumes one frame. It runs on the writer goroutine.
type WriteFunc func(Item) error

// Queue holds up to depth frames and writes them, in order, on a single
// goroutine. Every pushed frame is released exactly once, whether it was
// written, skipped after a failure, or dropped by Abort.
type Queue struct {
	items chan Item
	write WriteFunc
	done  chan struct{}

	mu      sync.Mutex
	onReady func()
	closed  bool
	aborted bool
	err     error
	last    frametimer.Timestamp
	pushed  int
	written int
}

// New starts a queue with the given depth (minimum 1).
func New(depth int, write WriteFunc) *Queue {
	if depth < 1 {
		depth = 1
	}
	q := &Queue{
		items: make(chan Item, depth),
		write: write,
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

// SetOnReady registers the callback fired whenever a slot frees up.
func (q *Queue) SetOnReady(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onReady = fn
}

// Ready reports whether Push would currently succeed or fail fast with the
// writer's error. A failed writer reports ready so callers observe the
// error on their next Push instead of waiting forever.
func (q *Queue) Ready() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	if q.err != nil {
		return true
	}
	return len(q.items) < cap(q.items)
}

// Push enqueues it without blocking. Timestamps must be strictly increasing.
func (q *Queue) Push(it Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if q.err != nil {
		return q.err
	}
	if !it.PTS.Valid() {
		return fmt.Errorf("invalid timestamp %v", it.PTS)
	}
	if q.pushed > 0 && !it.PTS.After(q.last) {
		return fmt.Errorf("timestamp %v does not follow %v", it.PTS, q.last)
	}

	select {
	case q.items <- it:
	default:
		return ErrFull
	}
	q.last = it.PTS
	q.pushed++
	return nil
}

// Close stops accepting frames, waits for queued frames to be written and
// returns the first write error.
func (q *Queue) Close() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
	q.mu.Unlock()

	<-q.done

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Abort drops queued frames without writing them and waits for the writer
// to stop. A write already in progress is allowed to finish or fail.
func (q *Queue) Abort() {
	q.mu.Lock()
	q.aborted = true
	q.mu.Unlock()
	q.Close()
}

// Written returns how many frames the writer has consumed successfully.
func (q *Queue) Written() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.written
}

func (q *Queue) run() {
	defer close(q.done)
	for it := range q.items {
		q.notify()

		q.mu.Lock()
		skip := q.aborted || q.err != nil
		q.mu.Unlock()

		var err error
		if !skip {
			err = q.write(it)
		}
		if it.Release != nil {
			it.Release()
		}

		q.mu.Lock()
		if err != nil && q.err == nil {
			q.err = err
		} else if err == nil && !skip {
			q.written++
		}
		q.mu.Unlock()

		if err != nil {
			q.notify()
		}
	}
}

func (q *Queue) notify() {
	q.mu.Lock()
	fn := q.onReady
	q.mu.Unlock()
	if fn != nil {
		fn()
	}
}
