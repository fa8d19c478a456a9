// Package framesource yields source images in order, one at a time.
package framesource

import "github.com/user/timelapse/pkg/pipeline"

// Source is an ordered queue of image references.
// It is owned by a single build and is not safe for concurrent use.
type Source struct {
	refs []pipeline.ImageRef
	next int
}

// New creates a source over a copy of refs.
func New(refs []pipeline.ImageRef) *Source {
	cp := make([]pipeline.ImageRef, len(refs))
	copy(cp, refs)
	return &Source{refs: cp}
}

// Next returns the next reference, or false once the queue is exhausted.
func (s *Source) Next() (pipeline.ImageRef, bool) {
	if s.next >= len(s.refs) {
		return "", false
	}
	ref := s.refs[s.next]
	s.refs[s.next] = ""
	s.next++
	return ref, true
}

// Total returns the number of references the source started with.
func (s *Source) Total() int {
	return len(s.refs)
}

// Remaining returns how many references have not been yielded yet.
func (s *Source) Remaining() int {
	return len(s.refs) - s.next
}

// Exhausted reports whether every reference has been yielded.
func (s *Source) Exhausted() bool {
	return s.Remaining() == 0
}
