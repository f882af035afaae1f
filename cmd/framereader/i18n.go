// Package main provides localization for the framereader CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Logging": "ログ",

		// Root command
		"Decode, seek and import video frames":     "動画フレームのデコード、シーク、取り込み",
		"Configuration file (YAML)":                "設定ファイル（YAML）",
		"Path to ffmpeg executable":                "ffmpeg実行ファイルのパス",
		"Log level (debug, info, warn, error)":     "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                  "全てのログ出力を抑制",
		"Write Prometheus metrics to file on exit": "終了時にPrometheusメトリクスをファイルへ出力",

		// Probe command
		"Show stream and timing information of a video": "動画のストリームとタイミング情報を表示",
		"Write a Markdown report to file":               "Markdownレポートをファイルに出力",
		"Report saved to %s":                            "レポートを %s に保存しました",

		// Step command
		"Decode consecutive frames from a position":                            "指定位置から連続したフレームをデコード",
		"Start timestamp in stream ticks (default: start of the working zone)": "開始タイムスタンプ（ストリーム単位、デフォルト: 作業範囲の先頭）",
		"Number of frames to decode":                                           "デコードするフレーム数",
		"Directory to save frames as PNG":                                      "フレームをPNGで保存するディレクトリ",
		"Frames":                                                               "フレーム",

		// Import command
		"Import a range of frames into memory for analysis":                "解析のためにフレーム範囲をメモリへ取り込み",
		"Range start in stream ticks (default: start of the working zone)": "範囲の開始（ストリーム単位、デフォルト: 作業範囲の先頭）",
		"Range end in stream ticks (default: end of the working zone)":     "範囲の終了（ストリーム単位、デフォルト: 作業範囲の末尾）",
		"Ignore the analysis limits of the configuration":                  "設定の解析上限を無視",
		"Importing":        "取り込み中",
		"Import cancelled": "取り込みを中止しました",
		"Analysis":         "解析",
		"Strategy":         "方式",
		"Range":            "範囲",
		"Memory":           "メモリ",
		"Imported %d frames": "%d フレームを取り込みました",
		"Range %d - %d exceeds the analysis limits (%.0f s, %d MiB)": "範囲 %d - %d は解析上限（%.0f 秒, %d MiB）を超えています",

		// Summary command
		"Create a contact sheet of evenly spaced thumbnails": "等間隔のサムネイルで一覧画像を作成",
		"Output image path (.png or .jpg)":                   "出力画像のパス（.png または .jpg）",
		"Number of thumbnails":                               "サムネイル数",
		"Thumbnail width in pixels":                          "サムネイルの幅（ピクセル）",
		"No thumbnails extracted from %s":                    "%s からサムネイルを取得できませんでした",
		"Contact sheet saved to %s":                          "一覧画像を %s に保存しました",

		// Error messages
		"A video file argument is required": "動画ファイルの引数が必要です",
		"Cannot open %s":                    "%s を開けません",
		"Frame at %d not read":              "%d のフレームを読み込めませんでした",
		"Failed to load config %s":          "設定 %s の読み込みに失敗しました",
		"Failed to write report %s":         "レポート %s の書き込みに失敗しました",
		"Failed to write %s":                "%s の書き込みに失敗しました",
		"Failed to write metrics":           "メトリクスの書き込みに失敗しました",
	})
}
