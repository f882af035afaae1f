package video

import (
	"context"
	"errors"
)

var (
	// ErrMovieNotLoaded is returned when navigation is attempted without an open file.
	ErrMovieNotLoaded = errors.New("video: movie not loaded")

	// ErrFrameNotRead is returned when the packet read fails before a frame completes.
	ErrFrameNotRead = errors.New("video: frame not read")

	// ErrImageNotConverted is returned when post-processing cannot produce the target picture.
	ErrImageNotConverted = errors.New("video: image not converted")

	// ErrMemoryNotAllocated is returned when a frame buffer cannot be allocated.
	ErrMemoryNotAllocated = errors.New("video: memory not allocated")

	// ErrImportFailed is returned when a bulk import produced no frame.
	ErrImportFailed = errors.New("video: import produced no frame")

	// ErrStreamInfoNotFound is returned when the container lacks usable timing information.
	ErrStreamInfoNotFound = errors.New("video: stream info not found")
)

// OpenResult is the outcome of opening a file.
type OpenResult int

const (
	OpenSuccess OpenResult = iota
	OpenFileNotOpened
	OpenStreamInfoNotFound
	OpenVideoStreamNotFound
	OpenCodecNotFound
	OpenCodecNotOpened
)

// String returns the string representation of the open result.
func (r OpenResult) String() string {
	switch r {
	case OpenSuccess:
		return "success"
	case OpenFileNotOpened:
		return "file not opened"
	case OpenStreamInfoNotFound:
		return "stream info not found"
	case OpenVideoStreamNotFound:
		return "video stream not found"
	case OpenCodecNotFound:
		return "codec not found"
	case OpenCodecNotOpened:
		return "codec not opened"
	default:
		return "unknown"
	}
}

// ReadResult is the outcome of a decode-time operation.
type ReadResult int

const (
	ReadSuccess ReadResult = iota
	ReadMovieNotLoaded
	ReadMemoryNotAllocated
	ReadFrameNotRead
	ReadImageNotConverted
	ReadCancelled
)

// String returns the string representation of the read result.
func (r ReadResult) String() string {
	switch r {
	case ReadSuccess:
		return "success"
	case ReadMovieNotLoaded:
		return "movie not loaded"
	case ReadMemoryNotAllocated:
		return "memory not allocated"
	case ReadFrameNotRead:
		return "frame not read"
	case ReadImageNotConverted:
		return "image not converted"
	case ReadCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ResultOf maps an error returned by the engine to its ReadResult.
func ResultOf(err error) ReadResult {
	switch {
	case err == nil:
		return ReadSuccess
	case errors.Is(err, ErrMovieNotLoaded):
		return ReadMovieNotLoaded
	case errors.Is(err, ErrMemoryNotAllocated):
		return ReadMemoryNotAllocated
	case errors.Is(err, ErrImageNotConverted):
		return ReadImageNotConverted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReadCancelled
	default:
		return ReadFrameNotRead
	}
}
