// Package main provides localization for the timelapse CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":            "出力先",
		"Frame":             "フレーム",
		"Video and Quality": "動画と品質",
		"Poster":            "ポスター画像",
		"Debug":             "デバッグ",
		"Logging":           "ログ",

		// Root command
		"Build time-lapse videos from still images": "静止画からタイムラプス動画を作成",

		// Build command
		"Build a video from an ordered list of images": "順番に並べた画像から動画を作成",
		"Each image becomes one frame, in the order given. Glob patterns are expanded and sorted.": "各画像が指定順に1フレームになります。グロブパターンは展開され、名前順に並べられます。",

		// Version command
		"Show version information": "バージョン情報を表示",
		"timelapse version %s":     "timelapse バージョン %s",

		// Output flags
		"Output video file path (required)":              "出力動画ファイルパス（必須）",
		"YAML configuration file":                        "YAML設定ファイル",
		"Output build summary to file (Markdown format)": "作成サマリーをファイルに出力（Markdown形式）",

		// Frame flags
		"Output video width (default: 1280)":                 "出力動画の幅（デフォルト: 1280）",
		"Output video height (default: 720)":                 "出力動画の高さ（デフォルト: 720）",
		"Scaling mode (fit, fill)":                           "拡大縮小モード（fit, fill）",
		"Frames per second (default: 1)":                     "1秒あたりのフレーム数（デフォルト: 1）",
		"Resampling kernel (catmullrom, bilinear, nearest)": "リサンプリング方式（catmullrom, bilinear, nearest）",

		// Video flags
		"Video codec (h264, mjpeg)":          "動画コーデック（h264, mjpeg）",
		"Quality preset (low, medium, high)": "品質プリセット（low, medium, high）",
		"H.264 CRF value (0-51, lower is better, overrides quality preset)": "H.264のCRF値（0-51、低いほど高品質、品質プリセットを上書き）",
		"MJPEG frame quality (1-100, overrides quality preset)":             "MJPEGフレーム品質（1-100、品質プリセットを上書き）",
		"Path to ffmpeg (falls back to FFMPEG_PATH env, then PATH)":         "ffmpegのパス（未指定時はFFMPEG_PATH環境変数、次にPATHを使用）",
		"Fail instead of falling back to MJPEG when ffmpeg is missing":      "ffmpegがない場合にMJPEGへフォールバックせず失敗する",
		"Give up when the encoder stays busy this long (0 = wait forever)":  "エンコーダーがこの時間以上応答しない場合に中止（0 = 無制限）",

		// Poster flags
		"Write a square PNG thumbnail of the first image": "最初の画像の正方形PNGサムネイルを出力",
		"Poster edge length in pixels (default: 256)":     "ポスター画像の一辺のピクセル数（デフォルト: 256）",

		// Debug flags
		"Enable debug output":        "デバッグ出力を有効化",
		"Directory for debug output": "デバッグ出力先ディレクトリ",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Log format (console, json)":           "ログ形式（console, json）",
		"Suppress all log output":              "すべてのログ出力を抑制",

		// Error messages
		"Output path is required (--output)": "出力パスが必要です（--output）",
		"At least one image is required":     "画像を1つ以上指定してください",
		"No images match %s":                 "%s に一致する画像がありません",
		"Unknown codec: %s":                  "不明なコーデック: %s",
		"Failed to load config: %v":          "設定の読み込みに失敗しました: %v",
	})
}
