package ports

import (
	"errors"
	"image"
	"math"
)

// NoTimestamp marks a packet timestamp the container did not provide.
const NoTimestamp int64 = math.MinInt64

// ErrCodecNotFound is returned by OpenDecoder when no decoder exists for the stream codec.
var ErrCodecNotFound = errors.New("ports: codec not found")

// Codec names reported in StreamInfo.Codec.
const (
	CodecH264  = "h264"
	CodecHEVC  = "hevc"
	CodecAV1   = "av1"
	CodecMPEG2 = "mpeg2video"
	CodecMPEG4 = "mpeg4"
	CodecAAC   = "aac"
	CodecText  = "text"
)

// Rational is a num/den pair as reported by the container.
type Rational struct {
	Num int
	Den int
}

// Valid reports whether both terms are non-zero.
func (r Rational) Valid() bool {
	return r.Num != 0 && r.Den != 0
}

// Float returns num/den, or 0 when the denominator is zero.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Inverse returns den/num, or 0 when the numerator is zero.
func (r Rational) Inverse() float64 {
	if r.Num == 0 {
		return 0
	}
	return float64(r.Den) / float64(r.Num)
}

// StreamKind classifies an elementary stream.
type StreamKind int

const (
	StreamData StreamKind = iota
	StreamVideo
	StreamAudio
	StreamSubtitle
)

// String returns the string representation of the stream kind.
func (k StreamKind) String() string {
	switch k {
	case StreamVideo:
		return "video"
	case StreamAudio:
		return "audio"
	case StreamSubtitle:
		return "subtitle"
	default:
		return "data"
	}
}

// StreamInfo holds the raw hints a container exposes for one elementary stream.
// Any field may be zero when the container does not carry it.
type StreamInfo struct {
	Index         int
	Kind          StreamKind
	Codec         string
	FrameCount    int64
	TimeBase      Rational
	CodecTimeBase Rational
	AvgFrameRate  Rational
	TicksPerFrame int
	Width         int
	Height        int
	SampleAspect  Rational
	Language      string

	// ReorderDepth is the number of pictures a decoder holds back
	// before emitting in presentation order.
	ReorderDepth int
}

// ContainerInfo describes an opened media file.
type ContainerInfo struct {
	FormatName  string
	StartTimeUs int64 // microseconds, 0 when unknown
	DurationUs  int64 // microseconds, 0 when unknown
	Streams     []StreamInfo
}

// Packet is one compressed unit read from the container.
type Packet struct {
	StreamIndex int
	DTS         int64 // NoTimestamp when absent
	PTS         int64 // NoTimestamp when absent
	Data        []byte
	Keyframe    bool
}

// Picture is a decoded raw picture owned by the decoder until the next call.
type Picture struct {
	Image      image.Image
	Interlaced bool
}

// MediaOpener opens media files into demux sessions.
type MediaOpener interface {
	// Open opens the file at path.
	Open(path string) (MediaSource, error)
}

// Initializer is implemented by openers whose underlying library needs a
// one-time startup before the first Open.
type Initializer interface {
	Init() error
}

// MediaSource is a demux session over one file.
// Implementations are not safe for concurrent use.
type MediaSource interface {
	// Info returns container and stream information.
	Info() ContainerInfo

	// ReadPacket returns the next packet in file order, or io.EOF.
	ReadPacket() (Packet, error)

	// Seek moves the read position near target, expressed in ticks of the given stream.
	// The landing point is approximate and bounded by [min, max] on a best effort basis.
	// backward requests the nearest keyframe at or before target.
	Seek(stream int, min, target, max int64, backward bool) error

	// OpenDecoder opens a decoder for the stream.
	// Returns ErrCodecNotFound when no decoder supports the codec.
	OpenDecoder(stream int) (VideoDecoder, error)

	// Close releases the session.
	Close() error
}

// GroupReader is implemented by sources that can read a whole group of
// pictures ahead of the read position.
type GroupReader interface {
	// ReadGroup returns the data of every packet of stream from the keyframe
	// with decode timestamp dts up to the next keyframe, in decode order.
	ReadGroup(stream int, dts int64) ([]byte, error)
}

// VideoDecoder decodes packets of one video stream.
type VideoDecoder interface {
	// Decode feeds one packet. finished is false while the decoder is still
	// buffering pictures for reordering.
	Decode(pkt Packet) (pic *Picture, finished bool, err error)

	// Drain returns the next picture still held back once the stream has
	// ended. ok is false when none remain.
	Drain() (pic *Picture, ok bool, err error)

	// Flush drops any buffered pictures.
	Flush()

	// Close releases decoder resources.
	Close()
}
