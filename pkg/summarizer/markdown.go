package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	b.WriteString("# Time-lapse Summary\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", s.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Input\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	fmt.Fprintf(&b, "| Images | %d |\n", s.Input.ImageCount)
	if s.Input.First != "" {
		fmt.Fprintf(&b, "| First | `%s` |\n", s.Input.First)
		fmt.Fprintf(&b, "| Last | `%s` |\n", s.Input.Last)
	}

	b.WriteString("\n## Settings\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	fmt.Fprintf(&b, "| Canvas | %dx%d |\n", s.Settings.Width, s.Settings.Height)
	fmt.Fprintf(&b, "| Fit | %s |\n", s.Settings.Fit)
	fmt.Fprintf(&b, "| Frame Rate | %d fps |\n", s.Settings.FPS)
	codec := s.Settings.Codec
	if s.Settings.Backend != "" {
		codec = fmt.Sprintf("%s (%s)", codec, s.Settings.Backend)
	}
	if s.Settings.FallbackUsed {
		codec += ", fallback"
	}
	fmt.Fprintf(&b, "| Codec | %s |\n", codec)
	if s.Settings.Quality != "" {
		fmt.Fprintf(&b, "| Quality | %s |\n", s.Settings.Quality)
	}
	if s.Settings.CRF > 0 {
		fmt.Fprintf(&b, "| CRF | %d |\n", s.Settings.CRF)
	}
	if s.Settings.JPEGQuality > 0 {
		fmt.Fprintf(&b, "| JPEG Quality | %d |\n", s.Settings.JPEGQuality)
	}
	if s.Settings.Interpolation != "" {
		fmt.Fprintf(&b, "| Interpolation | %s |\n", s.Settings.Interpolation)
	}

	b.WriteString("\n## Video\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	fmt.Fprintf(&b, "| File | `%s` |\n", s.Video.Path)
	if s.Video.Container != "" {
		fmt.Fprintf(&b, "| Container | %s |\n", s.Video.Container)
	}
	fmt.Fprintf(&b, "| Frames | %d |\n", s.Video.FrameCount)
	fmt.Fprintf(&b, "| Duration | %s |\n", formatDuration(s.Video.DurationMs))
	fmt.Fprintf(&b, "| File Size | %s |\n", formatBytes(s.Video.FileSize))
	if s.Video.PosterPath != "" {
		fmt.Fprintf(&b, "| Poster | `%s` |\n", s.Video.PosterPath)
	}

	return b.String()
}

func formatDuration(ms int) string {
	if ms < 1000 {
		return fmt.Sprintf("%d ms", ms)
	}
	return fmt.Sprintf("%.2f s", float64(ms)/1000)
}

func formatBytes(n int64) string {
	const unit = 1024
	switch {
	case n < unit:
		return fmt.Sprintf("%d B", n)
	case n < unit*unit:
		return fmt.Sprintf("%.2f KB", float64(n)/unit)
	case n < unit*unit*unit:
		return fmt.Sprintf("%.2f MB", float64(n)/(unit*unit))
	default:
		return fmt.Sprintf("%.2f GB", float64(n)/(unit*unit*unit))
	}
}

var _ Formatter = (*MarkdownFormatter)(nil)
