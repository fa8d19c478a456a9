package h264encoder

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"
)

var (
	pathMu           sync.RWMutex
	customFFmpegPath string
)

// SetFFmpegPath pins the ffmpeg executable. An empty path restores the search.
func SetFFmpegPath(path string) {
	pathMu.Lock()
	defer pathMu.Unlock()
	customFFmpegPath = path
}

// IsFFmpegAvailable checks if ffmpeg is available on the system.
func IsFFmpegAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// FindFFmpeg locates ffmpeg.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common install locations.
func FindFFmpeg() (string, error) {
	pathMu.RLock()
	custom := customFFmpegPath
	pathMu.RUnlock()

	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, custom)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	for _, p := range commonPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrFFmpegNotFound
}

func commonPaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		return []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}
}
