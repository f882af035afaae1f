package mocks

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/user/framereader/pkg/ports"
)

// VideoOptions describes a synthetic stream generated by NewVideo.
type VideoOptions struct {
	Frames         int   // number of pictures
	Spacing        int64 // ticks between pictures
	TicksPerSecond int   // time base denominator
	GOP            int   // keyframe interval
	BFrames        bool  // emit I P B decode order
	Start          int64 // first presentation timestamp
	Width          int
	Height         int
	Codec          string
	WithAudio      bool
	Metadata       string // embedded XML metadata text, empty for none
	DropPTS        bool   // packets carry DTS only
}

// DefaultVideoOptions returns a 100 frame 10 fps stream with B-frames.
func DefaultVideoOptions() VideoOptions {
	return VideoOptions{
		Frames:         100,
		Spacing:        10,
		TicksPerSecond: 100,
		GOP:            12,
		BFrames:        true,
		Width:          16,
		Height:         12,
		Codec:          ports.CodecH264,
	}
}

// SeekCall records a Seek invocation.
type SeekCall struct {
	Stream   int
	Min      int64
	Target   int64
	Max      int64
	Backward bool
}

// MediaSource is a scripted ports.MediaSource.
// Video packets carry their presentation timestamp in the payload so the
// mock Decoder can reorder them like a real decoder.
type MediaSource struct {
	mu sync.Mutex

	Container    ports.ContainerInfo
	Packets      []ports.Packet
	VideoStream  int
	ReorderDepth int

	// OvershootSeeks makes the next n seeks land on the first keyframe after the target.
	OvershootSeeks int

	ReadPacketFunc  func() (ports.Packet, error)
	SeekFunc        func(stream int, min, target, max int64, backward bool) error
	OpenDecoderFunc func(stream int) (ports.VideoDecoder, error)

	SeekCalls   []SeekCall
	Decoders    []*Decoder
	PacketsRead int
	Closed      bool

	pos int
}

// NewVideo generates a synthetic file.
func NewVideo(opts VideoOptions) *MediaSource {
	if opts.GOP < 1 {
		opts.GOP = 1
	}
	if opts.Codec == "" {
		opts.Codec = ports.CodecH264
	}

	src := &MediaSource{VideoStream: 0}
	if opts.BFrames {
		src.ReorderDepth = 1
	}

	tps := int64(opts.TicksPerSecond)
	durationTicks := int64(opts.Frames) * opts.Spacing
	src.Container = ports.ContainerInfo{
		FormatName:  "mock",
		StartTimeUs: opts.Start * 1000000 / tps,
		DurationUs:  durationTicks * 1000000 / tps,
		Streams: []ports.StreamInfo{{
			Index:        0,
			Kind:         ports.StreamVideo,
			Codec:        opts.Codec,
			FrameCount:   int64(opts.Frames),
			TimeBase:     ports.Rational{Num: 1, Den: opts.TicksPerSecond},
			AvgFrameRate: ports.Rational{Num: opts.TicksPerSecond, Den: int(opts.Spacing)},
			Width:        opts.Width,
			Height:       opts.Height,
			ReorderDepth: src.ReorderDepth,
		}},
	}

	audioIndex, metadataIndex := -1, -1
	if opts.WithAudio {
		audioIndex = len(src.Container.Streams)
		src.Container.Streams = append(src.Container.Streams, ports.StreamInfo{
			Index:      audioIndex,
			Kind:       ports.StreamAudio,
			Codec:      ports.CodecAAC,
			FrameCount: int64(opts.Frames) * 2,
			TimeBase:   ports.Rational{Num: 1, Den: opts.TicksPerSecond},
		})
	}
	if opts.Metadata != "" {
		metadataIndex = len(src.Container.Streams)
		src.Container.Streams = append(src.Container.Streams, ports.StreamInfo{
			Index:      metadataIndex,
			Kind:       ports.StreamSubtitle,
			Codec:      ports.CodecText,
			FrameCount: 1,
			Language:   "XML",
		})
		src.Packets = append(src.Packets, ports.Packet{
			StreamIndex: metadataIndex,
			DTS:         opts.Start,
			PTS:         opts.Start,
			Data:        []byte(opts.Metadata),
		})
	}

	order := decodeOrder(opts.Frames, opts.GOP, opts.BFrames)
	shift := int64(0)
	if opts.BFrames {
		shift = opts.Spacing
	}
	for i, frameIndex := range order {
		pts := opts.Start + int64(frameIndex)*opts.Spacing
		pkt := ports.Packet{
			StreamIndex: 0,
			DTS:         opts.Start + int64(i)*opts.Spacing - shift,
			PTS:         pts,
			Data:        encodePTS(pts),
			Keyframe:    frameIndex%opts.GOP == 0,
		}
		if opts.DropPTS {
			pkt.PTS = ports.NoTimestamp
		}
		src.Packets = append(src.Packets, pkt)

		if audioIndex >= 0 {
			src.Packets = append(src.Packets, ports.Packet{
				StreamIndex: audioIndex,
				DTS:         pts,
				PTS:         pts,
				Data:        []byte{0xff, 0xf1},
			})
		}
	}

	return src
}

// decodeOrder returns presentation indices in decode order. With B-frames
// each pair of pictures after the keyframe is sent as P then B.
func decodeOrder(frames, gop int, bframes bool) []int {
	order := make([]int, 0, frames)
	for k := 0; k < frames; k += gop {
		end := min(k+gop, frames)
		order = append(order, k)
		for j := k + 1; j < end; {
			if bframes && j+1 < end {
				order = append(order, j+1, j)
				j += 2
				continue
			}
			order = append(order, j)
			j++
		}
	}
	return order
}

func encodePTS(pts int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(pts))
	return buf
}

// PacketPTS returns the presentation timestamp carried by a mock video packet.
func PacketPTS(pkt ports.Packet) int64 {
	if len(pkt.Data) < 8 {
		return ports.NoTimestamp
	}
	return int64(binary.BigEndian.Uint64(pkt.Data))
}

// Level returns the gray level of the picture the mock decoder produces for pts.
func Level(pts int64) uint8 {
	return uint8(pts % 251)
}

// Clone returns an independent session over the same packets.
func (m *MediaSource) Clone() *MediaSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &MediaSource{
		Container:       m.Container,
		Packets:         m.Packets,
		VideoStream:     m.VideoStream,
		ReorderDepth:    m.ReorderDepth,
		OvershootSeeks:  m.OvershootSeeks,
		ReadPacketFunc:  m.ReadPacketFunc,
		SeekFunc:        m.SeekFunc,
		OpenDecoderFunc: m.OpenDecoderFunc,
	}
}

func (m *MediaSource) Info() ports.ContainerInfo {
	return m.Container
}

func (m *MediaSource) ReadPacket() (ports.Packet, error) {
	if m.ReadPacketFunc != nil {
		return m.ReadPacketFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pos >= len(m.Packets) {
		return ports.Packet{}, io.EOF
	}
	pkt := m.Packets[m.pos]
	m.pos++
	m.PacketsRead++
	return pkt, nil
}

func (m *MediaSource) Seek(stream int, min, target, max int64, backward bool) error {
	m.mu.Lock()
	m.SeekCalls = append(m.SeekCalls, SeekCall{Stream: stream, Min: min, Target: target, Max: max, Backward: backward})
	m.mu.Unlock()

	if m.SeekFunc != nil {
		return m.SeekFunc(stream, min, target, max, backward)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []int
	for i, p := range m.Packets {
		if p.StreamIndex == m.VideoStream && p.Keyframe {
			keys = append(keys, i)
		}
	}
	if len(keys) == 0 {
		return errors.New("mock: no keyframe")
	}

	landing := -1
	if m.OvershootSeeks > 0 {
		m.OvershootSeeks--
		for _, k := range keys {
			if PacketPTS(m.Packets[k]) > target {
				landing = k
				break
			}
		}
	}
	if landing < 0 {
		for _, k := range keys {
			if PacketPTS(m.Packets[k]) <= target {
				landing = k
			}
		}
	}
	if landing < 0 || landing == keys[0] {
		landing = 0
	}
	m.pos = landing
	return nil
}

func (m *MediaSource) OpenDecoder(stream int) (ports.VideoDecoder, error) {
	if m.OpenDecoderFunc != nil {
		return m.OpenDecoderFunc(stream)
	}
	st, ok := m.streamInfo(stream)
	if !ok || st.Kind != ports.StreamVideo {
		return nil, ports.ErrCodecNotFound
	}
	d := NewDecoder(m.ReorderDepth, st.Width, st.Height)
	m.mu.Lock()
	m.Decoders = append(m.Decoders, d)
	m.mu.Unlock()
	return d, nil
}

func (m *MediaSource) streamInfo(index int) (ports.StreamInfo, bool) {
	for _, st := range m.Container.Streams {
		if st.Index == index {
			return st, true
		}
	}
	return ports.StreamInfo{}, false
}

func (m *MediaSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Position returns the index of the next packet to read.
func (m *MediaSource) Position() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

var _ ports.MediaSource = (*MediaSource)(nil)

// Decoder is a mock ports.VideoDecoder that holds back ReorderDepth pictures
// and emits them in presentation order.
type Decoder struct {
	mu      sync.Mutex
	depth   int
	width   int
	height  int
	pending []int64

	DecodeFunc func(pkt ports.Packet) (*ports.Picture, bool, error)
	Interlaced bool

	Decoded int
	Drained int
	Flushes int
	Closed  bool
}

// NewDecoder creates a decoder producing width x height pictures.
func NewDecoder(depth, width, height int) *Decoder {
	return &Decoder{depth: depth, width: width, height: height}
}

func (d *Decoder) Decode(pkt ports.Packet) (*ports.Picture, bool, error) {
	if d.DecodeFunc != nil {
		return d.DecodeFunc(pkt)
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	pts := PacketPTS(pkt)
	if pts == ports.NoTimestamp {
		return nil, false, errors.New("mock: corrupt packet")
	}
	d.pending = append(d.pending, pts)
	sort.Slice(d.pending, func(i, j int) bool { return d.pending[i] < d.pending[j] })
	if len(d.pending) <= d.depth {
		return nil, false, nil
	}

	out := d.pending[0]
	d.pending = d.pending[1:]
	d.Decoded++
	return &ports.Picture{Image: d.picture(out), Interlaced: d.Interlaced}, true, nil
}

func (d *Decoder) picture(pts int64) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	level := Level(pts)
	c := color.RGBA{R: level, G: level, B: level, A: 255}
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Drain emits the held back pictures in presentation order.
func (d *Decoder) Drain() (*ports.Picture, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) == 0 {
		return nil, false, nil
	}
	out := d.pending[0]
	d.pending = d.pending[1:]
	d.Decoded++
	d.Drained++
	return &ports.Picture{Image: d.picture(out), Interlaced: d.Interlaced}, true, nil
}

func (d *Decoder) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = nil
	d.Flushes++
}

func (d *Decoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed = true
}

var _ ports.VideoDecoder = (*Decoder)(nil)

// MediaOpener is a mock ports.MediaOpener serving clones of registered sources.
type MediaOpener struct {
	mu      sync.Mutex
	Sources map[string]*MediaSource

	OpenFunc func(path string) (ports.MediaSource, error)

	// Opened records every session handed out.
	Opened []*MediaSource
	Inits  int
}

// NewMediaOpener creates an opener with no registered file.
func NewMediaOpener() *MediaOpener {
	return &MediaOpener{Sources: make(map[string]*MediaSource)}
}

// Init counts startup calls.
func (m *MediaOpener) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Inits++
	return nil
}

func (m *MediaOpener) Open(path string) (ports.MediaSource, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.Sources[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	session := src.Clone()
	m.Opened = append(m.Opened, session)
	return session, nil
}

// Last returns the most recently opened session.
func (m *MediaOpener) Last() *MediaSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Opened) == 0 {
		return nil
	}
	return m.Opened[len(m.Opened)-1]
}

var (
	_ ports.MediaOpener = (*MediaOpener)(nil)
	_ ports.Initializer = (*MediaOpener)(nil)
)
