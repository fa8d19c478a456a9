package orchestrator

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/dispatch"
	"github.com/user/timelapse/pkg/frametimer"
	"github.com/user/timelapse/pkg/mocks"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/poster"
)

// recorder collects callback events in delivery order.
type recorder struct {
	mu        sync.Mutex
	progress  []pipeline.Progress
	successes []pipeline.BuildResult
	failures  []error
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		Progress: func(p pipeline.Progress) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.progress = append(r.progress, p)
		},
		Success: func(res pipeline.BuildResult) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.successes = append(r.successes, res)
		},
		Failure: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.failures = append(r.failures, err)
		},
	}
}

type fixture struct {
	enc    *mocks.VideoEncoder
	loader *mocks.ImageLoader
	fs     *mocks.FileSystem
	sink   *mocks.DebugSink
	orch   *Orchestrator
	disp   *dispatch.Serial
}

func newFixture(t *testing.T, debug bool) *fixture {
	t.Helper()
	fs := mocks.NewFileSystem()
	f := &fixture{
		enc:    &mocks.VideoEncoder{Output: fs},
		loader: &mocks.ImageLoader{},
		fs:     fs,
		sink:   mocks.NewDebugSink(debug),
		disp:   dispatch.NewSerial(),
	}
	f.orch = New(f.enc, f.loader, f.fs, &mocks.Renderer{}, f.sink, f.disp, logger.NewNoop())
	return f
}

// run builds synchronously and drains the dispatcher so every callback has run.
func (f *fixture) run(ctx context.Context, req Request, rec *recorder) (pipeline.BuildResult, error) {
	res, err := f.orch.Run(ctx, req, rec.callbacks())
	f.disp.Close()
	return res, err
}

func testRequest(n int) Request {
	req := DefaultRequest()
	req.Size = pipeline.Size{Width: 320, Height: 240}
	req.OutputPath = "/out/movie.mp4"
	for i := 0; i < n; i++ {
		req.Images = append(req.Images, pipeline.ImageRef(string(rune('a'+i))+".png"))
	}
	return req
}

func TestOrchestrator_Run(t *testing.T) {
	f := newFixture(t, false)
	rec := &recorder{}

	result, err := f.run(context.Background(), testRequest(3), rec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wantProgress := []pipeline.Progress{{Completed: 1, Total: 3}, {Completed: 2, Total: 3}, {Completed: 3, Total: 3}}
	if diff := cmp.Diff(wantProgress, rec.progress); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
	if len(rec.successes) != 1 || len(rec.failures) != 0 {
		t.Fatalf("expected exactly one success, got %d successes and %d failures", len(rec.successes), len(rec.failures))
	}
	if result.Frames != 3 || rec.successes[0].Frames != 3 {
		t.Errorf("expected 3 frames, got %d", result.Frames)
	}
	if result.Duration != 3*time.Second {
		t.Errorf("expected 3s, got %v", result.Duration)
	}
	if result.FileSize != int64(len("video")) {
		t.Errorf("expected file size from the filesystem, got %d", result.FileSize)
	}
	if _, ok := f.fs.GetFile("/out/movie.mp4"); !ok {
		t.Error("expected output file")
	}

	appends := f.enc.Appends()
	var pts []frametimer.Timestamp
	for _, a := range appends {
		pts = append(pts, a.PTS)
		if a.Width != 320 || a.Height != 240 {
			t.Errorf("expected 320x240 frames, got %dx%d", a.Width, a.Height)
		}
	}
	wantPTS := []frametimer.Timestamp{{Value: 0, Scale: 1}, {Value: 1, Scale: 1}, {Value: 2, Scale: 1}}
	if diff := cmp.Diff(wantPTS, pts); diff != "" {
		t.Errorf("timestamps mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]pipeline.ImageRef{"a.png", "b.png", "c.png"}, f.loader.Calls()); diff != "" {
		t.Errorf("load order mismatch (-want +got):\n%s", diff)
	}
	if f.enc.Finished() != 1 {
		t.Errorf("expected Finish once, got %d", f.enc.Finished())
	}
	if f.enc.Settings.Width != 320 || f.enc.Settings.FPS != 1 {
		t.Errorf("unexpected encoder settings: %+v", f.enc.Settings)
	}
}

func TestOrchestrator_StartValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"empty list", func(r *Request) { r.Images = nil }},
		{"zero canvas", func(r *Request) { r.Size = pipeline.Size{} }},
		{"zero fps", func(r *Request) { r.FPS = 0 }},
		{"fps above max", func(r *Request) { r.FPS = frametimer.MaxFPS + 1 }},
		{"no output", func(r *Request) { r.OutputPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			rec := &recorder{}
			req := testRequest(3)
			tt.mutate(&req)

			_, err := f.run(context.Background(), req, rec)
			if !errors.Is(err, pipeline.ErrStart) {
				t.Fatalf("expected StartError, got %v", err)
			}
			if len(rec.progress) != 0 {
				t.Errorf("expected no progress, got %v", rec.progress)
			}
			if len(rec.failures) != 1 || len(rec.successes) != 0 {
				t.Errorf("expected one failure, got %d failures and %d successes", len(rec.failures), len(rec.successes))
			}
			if f.enc.ConfigureCalled {
				t.Error("expected encoder not to be configured")
			}
		})
	}
}

func TestOrchestrator_EncoderStartFails(t *testing.T) {
	f := newFixture(t, false)
	f.enc.StartFunc = func(ctx context.Context) error { return errors.New("no encoder") }
	rec := &recorder{}

	_, err := f.run(context.Background(), testRequest(2), rec)
	if !errors.Is(err, pipeline.ErrStart) {
		t.Fatalf("expected StartError, got %v", err)
	}
	if len(f.loader.Calls()) != 0 {
		t.Error("expected no images to be loaded")
	}
	if len(rec.failures) != 1 {
		t.Errorf("expected one failure, got %d", len(rec.failures))
	}
}

func TestOrchestrator_DecodeError(t *testing.T) {
	f := newFixture(t, false)
	f.loader.LoadFunc = func(ctx context.Context, ref pipeline.ImageRef) (pipeline.DecodedImage, error) {
		if ref == "b.png" {
			return pipeline.DecodedImage{}, errors.New("corrupt")
		}
		return pipeline.DecodedImage{Image: image.NewRGBA(image.Rect(0, 0, 10, 10))}, nil
	}
	rec := &recorder{}

	_, err := f.run(context.Background(), testRequest(3), rec)
	if !errors.Is(err, pipeline.ErrDecode) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	var perr *pipeline.Error
	if errors.As(err, &perr) && perr.Frame != 1 {
		t.Errorf("expected frame 1, got %d", perr.Frame)
	}
	if len(rec.successes) != 0 || len(rec.failures) != 1 {
		t.Errorf("expected one failure and no success, got %d/%d", len(rec.failures), len(rec.successes))
	}
	if len(rec.progress) != 1 {
		t.Errorf("expected one progress update, got %v", rec.progress)
	}
	if f.enc.Finished() != 1 || f.enc.Aborted() {
		t.Errorf("expected Finish to release the encoder, got finish=%d abort=%v", f.enc.Finished(), f.enc.Aborted())
	}
	if len(f.fs.GetAllFiles()) != 0 {
		t.Errorf("expected no files left behind, got %v", f.fs.GetAllFiles())
	}
}

func TestOrchestrator_EmptyImageIsDecodeError(t *testing.T) {
	f := newFixture(t, false)
	f.loader.LoadFunc = func(ctx context.Context, ref pipeline.ImageRef) (pipeline.DecodedImage, error) {
		return pipeline.DecodedImage{Image: image.NewRGBA(image.Rectangle{})}, nil
	}
	rec := &recorder{}

	_, err := f.run(context.Background(), testRequest(1), rec)
	if !errors.Is(err, pipeline.ErrDecode) || !errors.Is(err, pipeline.ErrScale) {
		t.Fatalf("expected DecodeError wrapping ScaleError, got %v", err)
	}
}

func TestOrchestrator_AppendError(t *testing.T) {
	f := newFixture(t, false)
	f.enc.AppendFunc = func(frame *image.RGBA, pts frametimer.Timestamp) error {
		if pts.Value == 1 {
			return errors.New("encoder rejected")
		}
		return nil
	}
	rec := &recorder{}

	_, err := f.run(context.Background(), testRequest(3), rec)
	if !errors.Is(err, pipeline.ErrAppend) {
		t.Fatalf("expected AppendError, got %v", err)
	}
	if f.enc.Finished() != 1 {
		t.Errorf("expected Finish to release the encoder once, got %d", f.enc.Finished())
	}
	if len(rec.failures) != 1 || len(rec.successes) != 0 {
		t.Errorf("expected one failure, got %d failures and %d successes", len(rec.failures), len(rec.successes))
	}
	if _, ok := f.fs.GetFile("/out/movie.mp4"); ok {
		t.Error("expected no output after a failed build")
	}
}

func TestOrchestrator_PoolExhausted(t *testing.T) {
	f := newFixture(t, false)
	f.enc.HoldFrames = true
	rec := &recorder{}
	req := testRequest(3)
	req.PoolSize = 1

	_, err := f.run(context.Background(), req, rec)
	if !errors.Is(err, pipeline.ErrPoolExhausted) {
		t.Fatalf("expected PoolExhausted, got %v", err)
	}
	if f.enc.Finished() != 1 || f.enc.Aborted() {
		t.Errorf("expected Finish to release the encoder, got finish=%d abort=%v", f.enc.Finished(), f.enc.Aborted())
	}
	if len(rec.progress) != 1 {
		t.Errorf("expected one progress update, got %v", rec.progress)
	}
	if len(rec.failures) != 1 || len(rec.successes) != 0 {
		t.Errorf("expected one failure, got %d failures and %d successes", len(rec.failures), len(rec.successes))
	}
	if len(f.fs.GetAllFiles()) != 0 {
		t.Errorf("expected no files left behind, got %v", f.fs.GetAllFiles())
	}
}

func TestOrchestrator_AppliesOrientation(t *testing.T) {
	f := newFixture(t, false)
	f.loader.LoadFunc = func(ctx context.Context, ref pipeline.ImageRef) (pipeline.DecodedImage, error) {
		img := image.NewRGBA(image.Rect(0, 0, 40, 20))
		draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 0xff, A: 0xff}), image.Point{}, draw.Src)
		return pipeline.DecodedImage{Image: img, Orientation: pipeline.OrientationRightTop, Format: "jpeg"}, nil
	}
	// A 20x40 portrait fit into 320x240 spans x 100..220; the unrotated
	// 40x20 landscape would fill the full width.
	var outside, inside uint8
	f.enc.AppendFunc = func(frame *image.RGBA, pts frametimer.Timestamp) error {
		outside = frame.RGBAAt(50, 120).A
		inside = frame.RGBAAt(160, 120).A
		return nil
	}
	rec := &recorder{}

	if _, err := f.run(context.Background(), testRequest(1), rec); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outside != 0 {
		t.Errorf("expected letterbox at x=50 for a rotated portrait, got alpha %d", outside)
	}
	if inside != 0xff {
		t.Errorf("expected opaque image at x=160, got alpha %d", inside)
	}
}

func TestOrchestrator_Stall(t *testing.T) {
	f := newFixture(t, false)
	f.enc.ReadyFunc = func() bool { return len(f.enc.Appends()) < 2 }
	rec := &recorder{}
	req := testRequest(4)
	req.ReadyTimeout = 50 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		_, err := f.run(context.Background(), req, rec)
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, pipeline.ErrStalled) {
			t.Fatalf("expected Stalled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("build hung on a stalled encoder")
	}

	if len(rec.progress) != 2 {
		t.Errorf("expected 2 progress updates, got %v", rec.progress)
	}
	if !f.enc.Aborted() {
		t.Error("expected encoder to be aborted")
	}
	if f.enc.Finished() != 0 {
		t.Error("expected no Finish after a stall")
	}
	if len(rec.failures) != 1 {
		t.Errorf("expected one failure, got %d", len(rec.failures))
	}
}

func TestOrchestrator_Cancel(t *testing.T) {
	f := newFixture(t, false)
	log := mocks.NewLogger()
	f.orch = New(f.enc, f.loader, f.fs, &mocks.Renderer{}, f.sink, f.disp, log)
	f.enc.ReadyFunc = func() bool { return len(f.enc.Appends()) < 1 }
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cb := rec.callbacks()
	progress := cb.Progress
	cb.Progress = func(p pipeline.Progress) {
		progress(p)
		cancel()
	}

	b := f.orch.Start(ctx, testRequest(3), cb)
	_, err := b.Wait()
	f.disp.Close()

	if !errors.Is(err, pipeline.ErrCancelled) {
		t.Fatalf("expected Cancelled, got %v", err)
	}
	if !f.enc.Aborted() {
		t.Error("expected encoder to be aborted")
	}
	if len(f.fs.GetAllFiles()) != 0 {
		t.Errorf("expected partial output to be removed, got %v", f.fs.GetAllFiles())
	}
	if len(rec.successes) != 0 || len(rec.failures) != 1 {
		t.Errorf("expected one failure, got %d failures and %d successes", len(rec.failures), len(rec.successes))
	}
	if errs := log.Entries(ports.LevelError); len(errs) != 0 {
		t.Errorf("expected cancellation not to log errors, got %v", errs)
	}
	var warned bool
	for _, e := range log.Entries(ports.LevelWarn) {
		if strings.HasPrefix(e.Message, "Build cancelled") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("expected a cancellation warning, got %v", log.Entries(ports.LevelWarn))
	}
}

func TestOrchestrator_ReplacesExistingOutput(t *testing.T) {
	f := newFixture(t, false)
	f.fs.WriteFile("/out/movie.mp4", []byte("stale output"))
	rec := &recorder{}

	if _, err := f.run(context.Background(), testRequest(1), rec); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	data, _ := f.fs.GetFile("/out/movie.mp4")
	if string(data) != "video" {
		t.Errorf("expected fresh output, got %q", data)
	}
}

func TestOrchestrator_PrepareOutputFails(t *testing.T) {
	f := newFixture(t, false)
	f.fs.MkdirAllFunc = func(path string) error { return errors.New("read-only") }
	rec := &recorder{}

	_, err := f.run(context.Background(), testRequest(1), rec)
	if !errors.Is(err, pipeline.ErrIO) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if f.enc.ConfigureCalled {
		t.Error("expected encoder not to be configured")
	}
}

func TestOrchestrator_DebugSink(t *testing.T) {
	f := newFixture(t, true)
	rec := &recorder{}

	if _, err := f.run(context.Background(), testRequest(2), rec); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(f.sink.RequestJSON) == 0 {
		t.Error("expected request JSON to be saved")
	}
	if len(f.sink.Frames) != 2 {
		t.Errorf("expected 2 debug frames, got %d", len(f.sink.Frames))
	}
	if img := f.sink.Frames[1]; img == nil || img.Bounds().Dx() != 320 {
		t.Errorf("expected 320px wide debug frame, got %v", img)
	}
}

func TestOrchestrator_Poster(t *testing.T) {
	f := newFixture(t, false)
	rec := &recorder{}
	req := testRequest(2)
	req.Poster = &PosterRequest{Path: "/out/poster.png", Options: poster.Options{Size: 32}}

	result, err := f.run(context.Background(), req, rec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.PosterPath != "/out/poster.png" {
		t.Errorf("expected poster path, got %q", result.PosterPath)
	}
	if _, ok := f.fs.GetFile("/out/poster.png"); !ok {
		t.Error("expected poster file")
	}
}

func TestOrchestrator_PosterFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, false)
	rec := &recorder{}
	req := testRequest(1)
	req.Poster = &PosterRequest{Path: "/out/poster.png", Options: poster.Options{Size: 4, Border: 4}}

	result, err := f.run(context.Background(), req, rec)
	if err != nil {
		t.Fatalf("expected build to succeed, got %v", err)
	}
	if result.PosterPath != "" {
		t.Errorf("expected no poster path, got %q", result.PosterPath)
	}
	if len(rec.successes) != 1 {
		t.Errorf("expected success, got %d", len(rec.successes))
	}
}

func TestRequest_EncoderSettings(t *testing.T) {
	req := testRequest(1)
	req.Codec = ports.CodecMJPEG
	req.JPEGQuality = 90
	req.QueueDepth = 3

	got := req.encoderSettings()
	want := ports.EncoderSettings{
		Codec:       ports.CodecMJPEG,
		Width:       320,
		Height:      240,
		FPS:         1,
		OutputPath:  "/out/movie.mp4",
		JPEGQuality: 90,
		QueueDepth:  3,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}
