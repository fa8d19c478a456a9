package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Build level messages (info)
		"Building %d frames at %s, %d fps (%s)": "%d フレームを %s, %d fps (%s) で作成中",
		"Frame %d/%d":                           "フレーム %d/%d",
		"Video saved to %s (%d frames, %s)":     "動画を %s に保存しました (%d フレーム, %s)",
		"Poster saved to %s":                    "ポスター画像を %s に保存しました",
		"Summary saved to %s":                   "サマリーを %s に保存しました",
		"Failed to write summary: %v":           "サマリーの書き込みに失敗しました: %v",
		"Interrupted, shutting down...":         "中断されました。シャットダウン中...",
		"Using %s encoder (%s)":                 "%s エンコーダー (%s) を使用します",

		// Session
		"Session started: %dx%d at %d fps, staging to %s": "セッション開始: %dx%d, %d fps, 一時ファイル %s",
		"Session completed: %d frames, %s":                 "セッション完了: %d フレーム, %s",
		"Failed to remove staging file: %v":                "一時ファイルの削除に失敗しました: %v",

		// Encoders
		"Starting ffmpeg: %s":                   "ffmpeg を起動中: %s",
		"Opening AVI writer: %s":                "AVI ライターを開いています: %s",
		"Encoder drained %d frames":             "エンコーダーが %d フレームを書き出しました",
		"Encoder aborted after %d frames":       "エンコーダーは %d フレーム後に中断されました",
		"ffmpeg not available, falling back to %s": "ffmpeg が利用できないため %s にフォールバックします",

		// Loader
		"Decoded %s (%s, %dx%d, orientation %d)": "%s をデコードしました (%s, %dx%d, 向き %d)",
		"No orientation metadata in %s: %v":       "%s に向き情報がありません: %v",

		// Warnings
		"Output extension %s does not match %s container, writing %s": "出力拡張子 %s は %s コンテナと一致しないため %s に書き込みます",
		"Failed to write poster: %v":      "ポスター画像の書き込みに失敗しました: %v",
		"Failed to save debug frame %d: %v": "デバッグフレーム %d の保存に失敗しました: %v",
		"Failed to save debug request: %v":  "デバッグ用リクエストの保存に失敗しました: %v",
		"Teardown error: %v":                "後処理でエラーが発生しました: %v",

		// Errors
		"Build failed: %v":    "作成に失敗しました: %v",
		"Build cancelled: %v": "作成を中止しました: %v",
	})
}
