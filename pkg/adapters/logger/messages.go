package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Reader
		"Opened %s: %s at %.3f fps":              "%s を開きました: %s, %.3f fps",
		"Decoder startup failed: %v":             "デコーダの起動に失敗しました: %v",
		"File not opened: %s: %v":                "ファイルを開けません: %s: %v",
		"No stream information in %s":            "%s にストリーム情報がありません",
		"No video stream in %s":                  "%s に映像ストリームがありません",
		"Stream information not found in %s: %v": "%s のストリーム情報が見つかりません: %v",
		"Codec not found: %s":                    "コーデックが見つかりません: %s",
		"Codec not opened: %s: %v":               "コーデックを開けません: %s: %v",
		"Closing source failed: %v":              "ソースのクローズに失敗しました: %v",
		"Rewind after metadata read failed: %v":  "メタデータ読み込み後の巻き戻しに失敗しました: %v",
		"Seek to %d failed: %v":                  "%d へのシークに失敗しました: %v",

		// Bulk import
		"Importing %d to %d (%s)":                    "%d から %d を取り込み中 (%s)",
		"Import cancelled, analysis window discarded": "取り込みを中止し、解析ウィンドウを破棄しました",
		"Analysis window holds %d frames":            "解析ウィンドウは %d フレームを保持しています",
		"Import stopped, frame %d not converted: %v": "取り込みを停止しました。フレーム %d を変換できません: %v",
		"Interrupted, stopping import...":            "中断されました。取り込みを停止中...",

		// Post-processing
		"Deinterlace failed, using original picture: %v": "インターレース解除に失敗しました。元の画像を使用します: %v",

		// Summary
		"Summary: file not opened: %s: %v":                    "サマリー: ファイルを開けません: %s: %v",
		"Summary: no stream information in %s":                "サマリー: %s にストリーム情報がありません",
		"Summary: no video stream in %s":                      "サマリー: %s に映像ストリームがありません",
		"Summary: codec not opened: %s: %v":                   "サマリー: コーデックを開けません: %s: %v",
		"Summary: frame reading failed after %d thumbnails: %v": "サマリー: %d 枚目以降のフレーム読み込みに失敗しました: %v",
		"Summary: thumbnail %d not created: %v":               "サマリー: サムネイル %d を作成できません: %v",
		"Summary: seek to %d failed: %v":                      "サマリー: %d へのシークに失敗しました: %v",

		// Report
		"Video Report":         "動画レポート",
		"Generated":            "生成日時",
		"File":                 "ファイル",
		"Path":                 "パス",
		"Container":            "コンテナ",
		"Duration":             "再生時間",
		"Analysis Metadata":    "解析メタデータ",
		"Video":                "映像",
		"Codec":                "コーデック",
		"Frame Rate":           "フレームレート",
		"Frame Interval":       "フレーム間隔",
		"Ticks per Second":     "1秒あたりのティック数",
		"Ticks per Frame":      "1フレームあたりのティック数",
		"Working Zone":         "作業範囲",
		"Original Size":        "元のサイズ",
		"Decoding Size":        "デコードサイズ",
		"Pixel Aspect Ratio":   "ピクセルアスペクト比",
		"Streams":              "ストリーム",
		"Kind":                 "種別",
		"Frame Count":          "フレーム数",
		"Language":             "言語",
		"Item":                 "項目",
		"Value":                "値",
		"Embedded and sidecar": "埋め込みとサイドカー",
		"Embedded":             "埋め込み",
		"Sidecar":              "サイドカー",
		"None":                 "なし",
	})
}
