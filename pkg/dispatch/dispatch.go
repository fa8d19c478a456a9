// Package dispatch delivers callbacks off the build's worker goroutine.
package dispatch

import "sync"

// Inline runs each function immediately on the calling goroutine.
type Inline struct{}

func (Inline) Dispatch(fn func()) {
	fn()
}

// Serial runs dispatched functions one at a time, in order, on its own goroutine.
// A slow callback never blocks the dispatcher's callers.
type Serial struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewSerial starts a serial dispatcher. Call Close to stop it.
func NewSerial() *Serial {
	s := &Serial{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s
}

// Dispatch enqueues fn. Functions dispatched after Close are dropped.
func (s *Serial) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, fn)
	s.cond.Signal()
}

// Close runs everything already queued, then stops the dispatcher.
// It blocks until the queue has drained.
func (s *Serial) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.cond.Signal()
	}
	s.mu.Unlock()
	<-s.done
}

func (s *Serial) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		fn()
	}
}
