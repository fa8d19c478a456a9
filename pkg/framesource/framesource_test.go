package framesource

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/user/timelapse/pkg/pipeline"
)

func TestSource_YieldsInOrder(t *testing.T) {
	refs := []pipeline.ImageRef{"a.png", "b.png", "c.png"}
	src := New(refs)

	var got []pipeline.ImageRef
	for {
		ref, ok := src.Next()
		if !ok {
			break
		}
		got = append(got, ref)
	}

	if diff := cmp.Diff(refs, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if !src.Exhausted() {
		t.Error("expected source to be exhausted")
	}
	if _, ok := src.Next(); ok {
		t.Error("expected Next to keep returning false after exhaustion")
	}
}

func TestSource_Counts(t *testing.T) {
	src := New([]pipeline.ImageRef{"a", "b"})
	if src.Total() != 2 || src.Remaining() != 2 {
		t.Fatalf("expected total 2 remaining 2, got %d/%d", src.Total(), src.Remaining())
	}
	src.Next()
	if src.Remaining() != 1 {
		t.Errorf("expected 1 remaining, got %d", src.Remaining())
	}
	if src.Total() != 2 {
		t.Errorf("expected total to stay 2, got %d", src.Total())
	}
}

func TestSource_CopiesInput(t *testing.T) {
	refs := []pipeline.ImageRef{"a", "b"}
	src := New(refs)
	refs[0] = "mutated"

	ref, _ := src.Next()
	if ref != "a" {
		t.Errorf("expected source to be isolated from caller slice, got %q", ref)
	}
}

func TestSource_Empty(t *testing.T) {
	src := New(nil)
	if !src.Exhausted() {
		t.Error("expected empty source to be exhausted")
	}
	if _, ok := src.Next(); ok {
		t.Error("expected no references")
	}
}
