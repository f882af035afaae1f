package ffmpegdecoder

import "errors"

var (
	// ErrNotInitialized is returned when a decoder is requested before Init.
	ErrNotInitialized = errors.New("ffmpegdecoder: not initialized")

	// ErrDecodeFailed is returned when ffmpeg cannot decode a group of pictures.
	ErrDecodeFailed = errors.New("ffmpegdecoder: decode failed")

	// ErrFFmpegNotFound is returned when ffmpeg is not found.
	ErrFFmpegNotFound = errors.New("ffmpegdecoder: ffmpeg not found")
)
