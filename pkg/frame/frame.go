package frame

import (
	"errors"
	"image"
	"sync"

	"github.com/user/framereader/pkg/video"
)

// ErrReleased is returned when the pixels of a released frame are written.
var ErrReleased = errors.New("frame: released")

// Frame is a decoded picture at a presentation timestamp.
//
// The pixel buffer never leaves the frame: readers get copies, writers go
// through Write. A frame evicted by the engine can therefore be released
// while another goroutine still holds the pointer.
type Frame struct {
	Timestamp int64

	size   video.Size
	format video.PixelFormat
	pool   *Pool

	mu       sync.RWMutex
	pix      []byte
	released bool
}

// New allocates a frame of the given geometry from pool. A nil pool uses DefaultPool.
func New(ts int64, size video.Size, format video.PixelFormat, pool *Pool) *Frame {
	if pool == nil {
		pool = DefaultPool
	}
	return &Frame{
		Timestamp: ts,
		size:      size,
		format:    format,
		pix:       pool.get(video.BytesPerFrame(size, format)),
		pool:      pool,
	}
}

// Size returns the frame geometry.
func (f *Frame) Size() video.Size { return f.size }

// Format returns the pixel layout.
func (f *Frame) Format() video.PixelFormat { return f.format }

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int { return f.size.Width * f.format.BytesPerPixel() }

// Released reports whether the buffer was returned to the pool.
func (f *Frame) Released() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.released
}

// Release returns the pixel buffer to its pool. Subsequent calls are no-ops.
func (f *Frame) Release() {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return
	}
	f.released = true
	f.pool.put(f.pix)
	f.pix = nil
}

// Bytes returns a copy of the pixel data, or nil after Release.
func (f *Frame) Bytes() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.released {
		return nil
	}
	return append([]byte(nil), f.pix...)
}

// Write calls fn with the pixel buffer. fn must not retain pix.
func (f *Frame) Write(fn func(pix []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return ErrReleased
	}
	fn(f.pix)
	return nil
}

// Clone returns a deep copy backed by a new buffer from the same pool.
func (f *Frame) Clone() *Frame {
	c := New(f.Timestamp, f.size, f.format, f.pool)
	f.mu.RLock()
	copy(c.pix, f.pix)
	f.mu.RUnlock()
	return c
}

// Image returns a copy of the frame as an image.Image, or nil after Release.
// BGRA frames are converted to RGBA.
func (f *Frame) Image() image.Image {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.released {
		return nil
	}

	rect := image.Rect(0, 0, f.size.Width, f.size.Height)
	switch f.format {
	case video.PixelFormatGray8:
		img := image.NewGray(rect)
		copy(img.Pix, f.pix)
		return img
	case video.PixelFormatBGRA32:
		img := image.NewRGBA(rect)
		copy(img.Pix, f.pix)
		SwapRedBlue(img.Pix)
		return img
	default:
		img := image.NewRGBA(rect)
		copy(img.Pix, f.pix)
		return img
	}
}

// SwapRedBlue converts between RGBA and BGRA in place.
func SwapRedBlue(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
