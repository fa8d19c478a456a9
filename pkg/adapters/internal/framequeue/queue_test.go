package framequeue

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/timelapse/pkg/frametimer"
)

func item(i int, released *int32) Item {
	return Item{
		Frame:   image.NewRGBA(image.Rect(0, 0, 2, 2)),
		PTS:     frametimer.TimestampFor(i, 1),
		Release: func() { atomic.AddInt32(released, 1) },
	}
}

func TestQueue_WritesInOrderAndReleases(t *testing.T) {
	var mu sync.Mutex
	var order []int64
	var released int32
	q := New(2, func(it Item) error {
		mu.Lock()
		order = append(order, it.PTS.Value)
		mu.Unlock()
		return nil
	})

	for i := 0; i < 5; i++ {
		for !q.Ready() {
			time.Sleep(time.Millisecond)
		}
		if err := q.Push(item(i, &released)); err != nil {
			t.Fatalf("Push %d failed: %v", i, err)
		}
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	for i, v := range order {
		if v != int64(i) {
			t.Fatalf("expected frame %d at position %d, got %d", i, i, v)
		}
	}
	if len(order) != 5 || q.Written() != 5 {
		t.Errorf("expected 5 written, got %d (%d)", len(order), q.Written())
	}
	if released != 5 {
		t.Errorf("expected 5 releases, got %d", released)
	}
}

func TestQueue_FullAndReadiness(t *testing.T) {
	block := make(chan struct{})
	readyCalls := make(chan struct{}, 10)
	var released int32
	q := New(1, func(it Item) error {
		<-block
		return nil
	})
	q.SetOnReady(func() { readyCalls <- struct{}{} })

	q.Push(item(0, &released)) // taken by the writer, which then blocks
	<-readyCalls
	if err := q.Push(item(1, &released)); err != nil {
		t.Fatalf("Push 1 failed: %v", err)
	}
	if q.Ready() {
		t.Error("expected queue not ready when full")
	}
	if err := q.Push(item(2, &released)); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}

	close(block)
	select {
	case <-readyCalls:
	case <-time.After(time.Second):
		t.Fatal("expected readiness callback after the writer freed a slot")
	}
	q.Close()
}

func TestQueue_RejectsNonIncreasingTimestamps(t *testing.T) {
	var released int32
	q := New(4, func(it Item) error { return nil })
	defer q.Close()

	q.Push(item(3, &released))
	if err := q.Push(item(3, &released)); err == nil {
		t.Error("expected error for repeated timestamp")
	}
	if err := q.Push(item(2, &released)); err == nil {
		t.Error("expected error for earlier timestamp")
	}
	if err := q.Push(Item{Frame: image.NewRGBA(image.Rect(0, 0, 1, 1))}); err == nil {
		t.Error("expected error for zero timestamp")
	}
}

func TestQueue_WriteErrorSurfaces(t *testing.T) {
	var released int32
	boom := errors.New("pipe closed")
	q := New(4, func(it Item) error {
		if it.PTS.Value == 1 {
			return boom
		}
		return nil
	})

	for i := 0; i < 4; i++ {
		q.Push(item(i, &released))
	}
	if err := q.Close(); !errors.Is(err, boom) {
		t.Errorf("expected write error from Close, got %v", err)
	}
	if released != 4 {
		t.Errorf("expected every frame released, got %d", released)
	}
	if err := q.Push(item(9, &released)); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}
}

func TestQueue_AbortDropsQueued(t *testing.T) {
	var released int32
	var writes int32
	block := make(chan struct{})
	q := New(3, func(it Item) error {
		atomic.AddInt32(&writes, 1)
		<-block
		return nil
	})

	for i := 0; i < 4; i++ {
		for !q.Ready() {
			time.Sleep(time.Millisecond)
		}
		q.Push(item(i, &released))
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(block)
	}()
	q.Abort()

	if w := atomic.LoadInt32(&writes); w != 1 {
		t.Errorf("expected only the in-flight frame to be written, got %d", w)
	}
	if released != 4 {
		t.Errorf("expected all 4 frames released, got %d", released)
	}
}
