// Package ffmpegdecoder decodes H.264 streams through an external ffmpeg process.
//
// Pictures are decoded one group of pictures at a time: when a keyframe
// arrives the whole group is read ahead from the source and handed to ffmpeg.
// Its pictures are then returned one per Decode call in display order, held
// back by the stream's reorder depth.
package ffmpegdecoder

import (
	"fmt"
	"image"
	"sync"

	"github.com/user/framereader/pkg/ports"
)

// Factory creates ffmpeg decoders.
type Factory struct {
	mu         sync.Mutex
	customPath string
	ffmpegPath string
}

// NewFactory creates a factory. An empty customPath searches for ffmpeg.
func NewFactory(customPath string) *Factory {
	return &Factory{customPath: customPath}
}

// Init locates the ffmpeg binary.
func (f *Factory) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path, err := FindFFmpeg(f.customPath)
	if err != nil {
		return err
	}
	f.ffmpegPath = path
	return nil
}

// NewDecoder opens a decoder for an h264 stream whose groups are read from groups.
func (f *Factory) NewDecoder(stream ports.StreamInfo, groups ports.GroupReader) (ports.VideoDecoder, error) {
	if stream.Codec != ports.CodecH264 || stream.Width <= 0 || stream.Height <= 0 || groups == nil {
		return nil, ports.ErrCodecNotFound
	}

	f.mu.Lock()
	path := f.ffmpegPath
	f.mu.Unlock()
	if path == "" {
		return nil, ErrNotInitialized
	}

	return newDecoder(ffmpegRunner(path), groups, stream), nil
}

// Decoder decodes one h264 stream.
type Decoder struct {
	mu     sync.Mutex
	run    runFunc
	groups ports.GroupReader
	width  int
	height int

	// depth is how many packets are consumed before the first picture is
	// returned, matching the stream's reorder depth.
	depth   int
	fed     int
	started bool
	ready   []image.Image
}

func newDecoder(run runFunc, groups ports.GroupReader, stream ports.StreamInfo) *Decoder {
	return &Decoder{
		run:    run,
		groups: groups,
		width:  stream.Width,
		height: stream.Height,
		depth:  stream.ReorderDepth,
	}
}

// Decode consumes pkt and returns the next picture in display order, if any.
// On a keyframe the whole group is read through the GroupReader and decoded
// at once, so pkt.Data itself is not piped to ffmpeg. Packets before the
// first keyframe are dropped.
func (d *Decoder) Decode(pkt ports.Packet) (*ports.Picture, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if pkt.Keyframe {
		if err := d.decodeGroup(pkt); err != nil {
			return nil, false, err
		}
		d.started = true
	}
	if !d.started {
		return nil, false, nil
	}

	d.fed++
	if d.fed <= d.depth || len(d.ready) == 0 {
		return nil, false, nil
	}
	return d.pop(), true, nil
}

// decodeGroup decodes the group starting at the keyframe pkt into the ready queue.
func (d *Decoder) decodeGroup(pkt ports.Packet) error {
	data, err := d.groups.ReadGroup(pkt.StreamIndex, pkt.DTS)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	frames, err := d.run(data, d.width, d.height)
	if err != nil {
		return err
	}
	d.ready = append(d.ready, frames...)
	return nil
}

func (d *Decoder) pop() *ports.Picture {
	img := d.ready[0]
	d.ready[0] = nil
	d.ready = d.ready[1:]
	return &ports.Picture{Image: img}
}

// Drain returns the pictures still queued after the last packet.
func (d *Decoder) Drain() (*ports.Picture, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.ready) == 0 {
		return nil, false, nil
	}
	return d.pop(), true, nil
}

// Flush drops queued pictures. Decoding resumes at the next keyframe.
func (d *Decoder) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fed = 0
	d.started = false
	d.ready = nil
}

// Close releases buffers.
func (d *Decoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ready = nil
}

var (
	_ ports.Initializer  = (*Factory)(nil)
	_ ports.VideoDecoder = (*Decoder)(nil)
)
