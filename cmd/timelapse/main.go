// Package main provides the CLI entry point for timelapse.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/timelapse/pkg/adapters/filesink"
	"github.com/user/timelapse/pkg/adapters/ggrenderer"
	"github.com/user/timelapse/pkg/adapters/imageloader"
	"github.com/user/timelapse/pkg/adapters/logger"
	"github.com/user/timelapse/pkg/adapters/nullsink"
	"github.com/user/timelapse/pkg/adapters/osfilesystem"
	"github.com/user/timelapse/pkg/adapters/smartencoder"
	"github.com/user/timelapse/pkg/adapters/videoprobe"
	"github.com/user/timelapse/pkg/config"
	"github.com/user/timelapse/pkg/dispatch"
	"github.com/user/timelapse/pkg/orchestrator"
	"github.com/user/timelapse/pkg/pipeline"
	"github.com/user/timelapse/pkg/ports"
	"github.com/user/timelapse/pkg/summarizer"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "timelapse",
		Usage:   l10n.T("Build time-lapse videos from still images"),
		Version: version,
		Commands: []*cli.Command{
			buildCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     l10n.T("Build a video from an ordered list of images"),
		ArgsUsage: "IMAGE...",
		Description: l10n.T("Each image becomes one frame, in the order given. " +
			"Glob patterns are expanded and sorted."),
		Flags: []cli.Flag{
			// Output
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Category: l10n.T("Output"), Usage: l10n.T("Output video file path (required)")},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: l10n.T("Output"), Usage: l10n.T("YAML configuration file")},
			&cli.StringFlag{Name: "summary", Category: l10n.T("Output"), Usage: l10n.T("Output build summary to file (Markdown format)")},

			// Frame
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Category: l10n.T("Frame"), Usage: l10n.T("Output video width (default: 1280)")},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Category: l10n.T("Frame"), Usage: l10n.T("Output video height (default: 720)")},
			&cli.StringFlag{Name: "fit", Category: l10n.T("Frame"), Usage: l10n.T("Scaling mode (fit, fill)")},
			&cli.IntFlag{Name: "fps", Aliases: []string{"r"}, Category: l10n.T("Frame"), Usage: l10n.T("Frames per second (default: 1)")},
			&cli.StringFlag{Name: "interpolation", Category: l10n.T("Frame"), Usage: l10n.T("Resampling kernel (catmullrom, bilinear, nearest)")},

			// Video and quality
			&cli.StringFlag{Name: "codec", Category: l10n.T("Video and Quality"), Usage: l10n.T("Video codec (h264, mjpeg)")},
			&cli.StringFlag{Name: "quality", Aliases: []string{"q"}, Category: l10n.T("Video and Quality"), Usage: l10n.T("Quality preset (low, medium, high)")},
			&cli.IntFlag{Name: "crf", Category: l10n.T("Video and Quality"), Usage: l10n.T("H.264 CRF value (0-51, lower is better, overrides quality preset)")},
			&cli.IntFlag{Name: "jpeg-quality", Category: l10n.T("Video and Quality"), Usage: l10n.T("MJPEG frame quality (1-100, overrides quality preset)")},
			&cli.StringFlag{Name: "ffmpeg", Category: l10n.T("Video and Quality"), Usage: l10n.T("Path to ffmpeg (falls back to FFMPEG_PATH env, then PATH)")},
			&cli.BoolFlag{Name: "no-fallback", Category: l10n.T("Video and Quality"), Usage: l10n.T("Fail instead of falling back to MJPEG when ffmpeg is missing")},
			&cli.DurationFlag{Name: "ready-timeout", Category: l10n.T("Video and Quality"), Usage: l10n.T("Give up when the encoder stays busy this long (0 = wait forever)")},

			// Poster
			&cli.StringFlag{Name: "poster", Category: l10n.T("Poster"), Usage: l10n.T("Write a square PNG thumbnail of the first image")},
			&cli.IntFlag{Name: "poster-size", Category: l10n.T("Poster"), Usage: l10n.T("Poster edge length in pixels (default: 256)")},

			// Debug
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Category: l10n.T("Debug"), Usage: l10n.T("Enable debug output")},
			&cli.StringFlag{Name: "debug-dir", Category: l10n.T("Debug"), Usage: l10n.T("Directory for debug output")},

			// Logging
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: l10n.T("Logging"), Usage: l10n.T("Log level (debug, info, warn, error)")},
			&cli.StringFlag{Name: "log-format", Category: l10n.T("Logging"), Usage: l10n.T("Log format (console, json)")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Category: l10n.T("Logging"), Usage: l10n.T("Suppress all log output")},
		},
		Action: runBuild,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Println(l10n.F("timelapse version %s", version))
			return nil
		},
	}
}

func runBuild(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.OutputPath == "" {
		return cli.Exit(l10n.T("Output path is required (--output)"), 2)
	}

	level, err := ports.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if c.Bool("quiet") {
		level = ports.LevelQuiet
	}
	log := logger.New(cfg.LogFormat, level)

	images, err := expandImages(c.Args().Slice())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	codec, ok := ports.ParseCodec(cfg.Codec)
	if !ok {
		return cli.Exit(l10n.F("Unknown codec: %s", cfg.Codec), 2)
	}
	encoder, info, err := smartencoder.New(codec, smartencoder.Options{
		FFmpegPath:      cfg.FFmpegPath,
		DisableFallback: cfg.NoFallback,
		Logger:          log.WithComponent("encoder"),
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	log.Info("Using %s encoder (%s)", string(info.Codec), string(info.Backend))
	cfg.Codec = string(info.Codec)

	if fixed, changed := smartencoder.FixExtension(cfg.OutputPath, info.Codec); changed {
		log.Warn("Output extension %s does not match %s container, writing %s",
			filepath.Ext(cfg.OutputPath), info.Extension(), fixed)
		cfg.OutputPath = fixed
	}

	req, err := cfg.ToRequest(images)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	disp := dispatch.NewSerial()
	defer disp.Close()

	orch := orchestrator.New(
		encoder,
		imageloader.New(fs, log),
		fs,
		renderer,
		sink,
		disp,
		log,
	)

	result, err := orch.Run(ctx, req, orchestrator.Callbacks{
		Progress: func(p pipeline.Progress) {
			log.Info("Frame %d/%d", p.Completed, p.Total)
		},
	})
	disp.Close()
	if err != nil {
		return buildExit(err)
	}

	if cfg.SummaryPath != "" {
		writeSummary(cfg, images, info, result, fs, log)
	}
	return nil
}

// loadConfig reads --config when given and applies explicitly set flags over it.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, cli.Exit(l10n.F("Failed to load config: %v", err), 2)
		}
	}

	stringFlags := map[string]*string{
		"output":        &cfg.OutputPath,
		"fit":           &cfg.Fit,
		"interpolation": &cfg.Interpolation,
		"codec":         &cfg.Codec,
		"quality":       &cfg.Quality,
		"ffmpeg":        &cfg.FFmpegPath,
		"poster":        &cfg.Poster.Path,
		"summary":       &cfg.SummaryPath,
		"debug-dir":     &cfg.DebugDir,
		"log-level":     &cfg.LogLevel,
		"log-format":    &cfg.LogFormat,
	}
	for name, dst := range stringFlags {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}

	intFlags := map[string]*int{
		"width":        &cfg.Width,
		"height":       &cfg.Height,
		"fps":          &cfg.FPS,
		"crf":          &cfg.CRF,
		"jpeg-quality": &cfg.JPEGQuality,
		"poster-size":  &cfg.Poster.Size,
	}
	for name, dst := range intFlags {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}

	if c.IsSet("no-fallback") {
		cfg.NoFallback = c.Bool("no-fallback")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("ready-timeout") {
		cfg.ReadyTimeout = c.Duration("ready-timeout")
	}

	return cfg, nil
}

// expandImages expands glob patterns, keeping argument order. Within a
// pattern, matches are sorted by name. Plain paths pass through unchanged.
func expandImages(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New(l10n.T("At least one image is required"))
	}
	var images []string
	for _, arg := range args {
		if !hasMeta(arg) {
			images = append(images, arg)
			continue
		}
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, errors.New(l10n.F("No images match %s", arg))
		}
		images = append(images, matches...)
	}
	return images, nil
}

func hasMeta(path string) bool {
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '*', '?', '[':
			return true
		}
	}
	return false
}

// buildExit carries the error text to stderr even when logging is quiet.
func buildExit(err error) cli.ExitCoder {
	return cli.Exit(err.Error(), exitCode(err))
}

func exitCode(err error) int {
	if pipeline.KindOf(err) == pipeline.Cancelled {
		return 130
	}
	return 1
}

func writeSummary(cfg config.Config, images []string, info smartencoder.Info, result pipeline.BuildResult, fs ports.FileSystem, log ports.Logger) {
	quality := config.GetQualitySettings(config.QualityPreset(cfg.Quality))
	settings := summarizer.Settings{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Fit:           cfg.Fit,
		FPS:           cfg.FPS,
		Codec:         string(info.Codec),
		Backend:       string(info.Backend),
		FallbackUsed:  info.FallbackUsed,
		Quality:       cfg.Quality,
		Interpolation: cfg.Interpolation,
	}
	if info.Codec == ports.CodecMJPEG {
		settings.JPEGQuality = quality.JPEGQuality
		if cfg.JPEGQuality > 0 {
			settings.JPEGQuality = cfg.JPEGQuality
		}
	} else {
		settings.CRF = quality.CRF
		if cfg.CRF > 0 {
			settings.CRF = cfg.CRF
		}
	}

	video := summarizer.VideoInfo{
		Path:       result.OutputPath,
		FrameCount: result.Frames,
		DurationMs: int(result.Duration.Milliseconds()),
		FileSize:   result.FileSize,
		PosterPath: result.PosterPath,
	}
	if probed, err := videoprobe.ProbeFile(result.OutputPath); err == nil {
		video.Container = probed.Container
	}

	summary := summarizer.NewBuilder().
		WithInput(images).
		WithSettings(settings).
		WithVideo(video).
		Build()

	writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), fs)
	if err := writer.Write(cfg.SummaryPath, summary); err != nil {
		log.Warn("Failed to write summary: %v", err)
		return
	}
	log.Info("Summary saved to %s", cfg.SummaryPath)
}
