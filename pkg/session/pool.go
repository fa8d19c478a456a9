package session

import (
	"fmt"
	"image"
	"sync"

	"github.com/user/timelapse/pkg/pipeline"
)

// PixelBuffer is a canvas-sized RGBA surface borrowed from a BufferPool.
//
// A buffer is either submitted to the session exactly once or discarded.
// After either, RGBA returns nil and the buffer must not be used again.
type PixelBuffer struct {
	img  *image.RGBA
	pool *BufferPool
}

// RGBA returns the writable surface, or nil once the buffer has been handed off.
func (b *PixelBuffer) RGBA() *image.RGBA {
	return b.img
}

// Discard returns an unsubmitted buffer to its pool.
func (b *PixelBuffer) Discard() {
	if b.img == nil {
		return
	}
	b.pool.put(b.take())
}

func (b *PixelBuffer) take() *image.RGBA {
	img := b.img
	b.img = nil
	return img
}

// BufferPool recycles canvas-sized RGBA images up to a fixed number.
type BufferPool struct {
	width  int
	height int
	max    int
	free   chan *image.RGBA

	mu        sync.Mutex
	allocated int
}

// NewBufferPool creates a pool that never holds more than max buffers.
func NewBufferPool(width, height, max int) *BufferPool {
	if max < 1 {
		max = 1
	}
	return &BufferPool{
		width:  width,
		height: height,
		max:    max,
		free:   make(chan *image.RGBA, max),
	}
}

// Get returns a recycled buffer or allocates one. It fails with
// PoolExhausted when every buffer is already checked out.
func (p *BufferPool) Get() (*PixelBuffer, error) {
	select {
	case img := <-p.free:
		return &PixelBuffer{img: img, pool: p}, nil
	default:
	}

	p.mu.Lock()
	if p.allocated >= p.max {
		p.mu.Unlock()
		return nil, pipeline.NewError(pipeline.PoolExhausted,
			fmt.Sprintf("all %d pixel buffers are in use", p.max), nil)
	}
	p.allocated++
	p.mu.Unlock()

	return &PixelBuffer{img: image.NewRGBA(image.Rect(0, 0, p.width, p.height)), pool: p}, nil
}

// put returns img to the pool. Safe to call from any goroutine.
func (p *BufferPool) put(img *image.RGBA) {
	if img == nil {
		return
	}
	select {
	case p.free <- img:
	default:
	}
}

// Outstanding returns how many buffers are currently checked out.
func (p *BufferPool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated - len(p.free)
}

// Capacity returns the maximum number of buffers.
func (p *BufferPool) Capacity() int {
	return p.max
}
