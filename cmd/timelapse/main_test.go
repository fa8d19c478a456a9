package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/user/timelapse/pkg/pipeline"
)

func TestExpandImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.jpg", "c.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := expandImages([]string{
		filepath.Join(dir, "c.png"),
		filepath.Join(dir, "*.jpg"),
		"literal/missing.png",
	})
	if err != nil {
		t.Fatalf("expandImages failed: %v", err)
	}
	want := []string{
		filepath.Join(dir, "c.png"),
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.jpg"),
		"literal/missing.png",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("expansion mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandImages_Errors(t *testing.T) {
	if _, err := expandImages(nil); err == nil {
		t.Error("expected error for no arguments")
	}
	if _, err := expandImages([]string{filepath.Join(t.TempDir(), "*.webp")}); err == nil {
		t.Error("expected error for a pattern with no matches")
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(pipeline.NewError(pipeline.Cancelled, "stop", nil)); got != 130 {
		t.Errorf("expected 130 for cancellation, got %d", got)
	}
	if got := exitCode(pipeline.NewError(pipeline.DecodeError, "bad", nil)); got != 1 {
		t.Errorf("expected 1 for decode error, got %d", got)
	}
	if got := exitCode(errors.New("plain")); got != 1 {
		t.Errorf("expected 1 for plain error, got %d", got)
	}
}

func TestBuildExit_CarriesMessage(t *testing.T) {
	err := pipeline.NewError(pipeline.DecodeError, "decode a.png", errors.New("corrupt"))
	exit := buildExit(err)
	if exit.Error() != err.Error() {
		t.Errorf("expected message %q, got %q", err.Error(), exit.Error())
	}
	if exit.ExitCode() != 1 {
		t.Errorf("expected exit code 1, got %d", exit.ExitCode())
	}

	cancelled := buildExit(pipeline.NewError(pipeline.Cancelled, "build cancelled", nil))
	if cancelled.ExitCode() != 130 || cancelled.Error() == "" {
		t.Errorf("expected non-empty message with code 130, got %q/%d", cancelled.Error(), cancelled.ExitCode())
	}
}
