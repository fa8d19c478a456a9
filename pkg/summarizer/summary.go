// Package summarizer provides summary generation for build results.
package summarizer

import "time"

// Summary contains all data collected during a build.
type Summary struct {
	GeneratedAt time.Time

	Input    InputInfo
	Settings Settings
	Video    VideoInfo
}

// InputInfo describes the source stills.
type InputInfo struct {
	ImageCount int
	First      string
	Last       string
}

// Settings contains the build configuration.
type Settings struct {
	Width         int
	Height        int
	Fit           string
	FPS           int
	Codec         string
	Backend       string
	FallbackUsed  bool
	Quality       string
	CRF           int
	JPEGQuality   int
	Interpolation string
}

// VideoInfo contains information about the output video.
type VideoInfo struct {
	Path       string
	Container  string
	FrameCount int
	DurationMs int
	FileSize   int64
	PosterPath string
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithInput records the source image list. Only the ends are kept.
func (b *Builder) WithInput(images []string) *Builder {
	info := InputInfo{ImageCount: len(images)}
	if len(images) > 0 {
		info.First = images[0]
		info.Last = images[len(images)-1]
	}
	b.summary.Input = info
	return b
}

// WithSettings sets build settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithVideo sets video output information.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Video = video
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
