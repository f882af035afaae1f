// Package mp4source demuxes MP4 and fragmented MP4 files with mp4ff.
package mp4source

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"sync"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framereader/pkg/ports"
)

// DecoderFactory creates decoders for the video streams of a source.
type DecoderFactory interface {
	// NewDecoder opens a decoder for stream. Keyframe packets of h264
	// streams carry their parameter sets in Annex B form. groups reads whole
	// groups of pictures ahead of the read position.
	NewDecoder(stream ports.StreamInfo, groups ports.GroupReader) (ports.VideoDecoder, error)
}

// Opener opens MP4 files.
type Opener struct {
	decoders DecoderFactory

	// DTSOnly reports packets of tracks without a ctts box with no PTS,
	// the way raw elementary stream containers do.
	DTSOnly bool
}

// NewOpener creates an opener using decoders for OpenDecoder.
func NewOpener(decoders DecoderFactory) *Opener {
	return &Opener{decoders: decoders}
}

// Init initializes the decoder factory when it needs it.
func (o *Opener) Init() error {
	if init, ok := o.decoders.(ports.Initializer); ok {
		return init.Init()
	}
	return nil
}

// Open opens and indexes the file at path.
func (o *Opener) Open(path string) (ports.MediaSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	src, err := newSource(f, o.decoders)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.dtsOnly = o.DTSOnly
	return src, nil
}

// fileReader is the file handle a Source reads samples from.
type fileReader interface {
	io.ReadSeeker
	io.ReaderAt
	io.Closer
}

// Source is a demux session over one MP4 file.
type Source struct {
	mu       sync.Mutex
	file     fileReader
	decoders DecoderFactory
	info     ports.ContainerInfo
	tracks   []*track
	samples  []sample // file order
	pos      int
	dtsOnly  bool
}

func newSource(file fileReader, decoders DecoderFactory) (*Source, error) {
	parsed, err := mp4.DecodeFile(file)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	moov := parsed.Moov
	if parsed.Init != nil && parsed.Init.Moov != nil {
		moov = parsed.Init.Moov
	}
	if moov == nil {
		return nil, fmt.Errorf("no moov box found")
	}

	s := &Source{file: file, decoders: decoders}
	byID := make(map[uint32]*track)
	for i, trak := range moov.Traks {
		t, err := newTrack(i, trak)
		if err != nil {
			return nil, err
		}
		s.tracks = append(s.tracks, t)
		byID[t.trackID] = t
	}

	if parsed.IsFragmented() {
		s.samples, err = fragmentedSamples(parsed, byID)
		if err != nil {
			return nil, err
		}
	} else {
		for i, trak := range moov.Traks {
			if trak.Mdia.Minf == nil {
				continue
			}
			samples, err := progressiveSamples(s.tracks[i], trak.Mdia.Minf.Stbl)
			if err != nil {
				return nil, err
			}
			s.samples = append(s.samples, samples...)
		}
		sort.SliceStable(s.samples, func(i, j int) bool {
			return s.samples[i].offset < s.samples[j].offset
		})
	}

	s.info = s.describe(moov)
	return s, nil
}

// describe fills the container and stream information once samples are indexed.
func (s *Source) describe(moov *mp4.MoovBox) ports.ContainerInfo {
	info := ports.ContainerInfo{FormatName: "mp4"}

	hasStart := false
	counts := make([]int64, len(s.tracks))
	pts := make([][]int64, len(s.tracks))
	for _, smp := range s.samples {
		counts[smp.stream]++
		if s.tracks[smp.stream].info.Kind == ports.StreamVideo {
			pts[smp.stream] = append(pts[smp.stream], smp.pts)
		}
	}

	for i, t := range s.tracks {
		t.info.FrameCount = counts[i]
		if counts[i] > 0 && t.mediaTicks > 0 {
			t.info.AvgFrameRate = reduce(counts[i]*int64(t.timescale), int64(t.mediaTicks))
		}
		t.info.ReorderDepth = reorderDepth(pts[i])
		info.Streams = append(info.Streams, t.info)

		// Composition offsets push the first picture past zero; report it as the start.
		if len(pts[i]) > 0 {
			start := max(0, slices.Min(pts[i])*1000000/int64(t.timescale))
			if !hasStart || start < info.StartTimeUs {
				info.StartTimeUs = start
				hasStart = true
			}
		}

		if d := int64(t.mediaTicks) * 1000000 / int64(t.timescale); d > info.DurationUs {
			info.DurationUs = d
		}
	}

	if moov.Mvhd != nil && moov.Mvhd.Timescale > 0 && moov.Mvhd.Duration > 0 {
		info.DurationUs = int64(moov.Mvhd.Duration) * 1000000 / int64(moov.Mvhd.Timescale)
	}
	return info
}

// Info returns container and stream information.
func (s *Source) Info() ports.ContainerInfo {
	return s.info
}

// ReadPacket returns the next sample in file order.
func (s *Source) ReadPacket() (ports.Packet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return ports.Packet{}, os.ErrClosed
	}
	if s.pos >= len(s.samples) {
		return ports.Packet{}, io.EOF
	}
	smp := s.samples[s.pos]
	s.pos++

	data, err := s.sampleData(smp)
	if err != nil {
		return ports.Packet{}, err
	}

	t := s.tracks[smp.stream]
	pkt := ports.Packet{
		StreamIndex: smp.stream,
		DTS:         smp.dts,
		PTS:         smp.pts,
		Data:        data,
		Keyframe:    smp.sync,
	}
	if s.dtsOnly && t.noCtts {
		pkt.PTS = ports.NoTimestamp
	}
	return pkt, nil
}

// sampleData reads smp, converting h264 samples to Annex B with the
// parameter sets in front of sync samples.
func (s *Source) sampleData(smp sample) ([]byte, error) {
	data, err := readSample(s.file, smp)
	if err != nil {
		return nil, err
	}

	t := s.tracks[smp.stream]
	if t.annexB {
		data = avccToAnnexB(data)
		if smp.sync && len(t.header) > 0 {
			data = append(append(make([]byte, 0, len(t.header)+len(data)), t.header...), data...)
		}
	}
	return data, nil
}

// ReadGroup returns the data of the samples of stream from the sync sample
// decoded at dts up to the next sync sample, in decode order. The read
// position is left unchanged.
func (s *Source) ReadGroup(stream int, dts int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil, os.ErrClosed
	}

	var group []sample
	for _, smp := range s.samples {
		if smp.stream != stream {
			continue
		}
		if len(group) == 0 {
			if smp.sync && smp.dts == dts {
				group = append(group, smp)
			}
			continue
		}
		if smp.sync {
			break
		}
		group = append(group, smp)
	}
	if len(group) == 0 {
		return nil, fmt.Errorf("read group: no sync sample at %d in stream %d", dts, stream)
	}

	sort.SliceStable(group, func(i, j int) bool { return group[i].dts < group[j].dts })

	var out []byte
	for _, smp := range group {
		data, err := s.sampleData(smp)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

// Seek moves the read position to a keyframe of stream near target.
// A backward seek lands on the last keyframe at or before target, falling
// back to the first keyframe of the stream. A forward seek lands on the
// first keyframe at or after target, falling back to the last one.
func (s *Source) Seek(stream int, min, target, max int64, backward bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stream < 0 || stream >= len(s.tracks) {
		return fmt.Errorf("seek: no stream %d", stream)
	}

	found := -1
	for i, smp := range s.samples {
		if smp.stream != stream || !smp.sync {
			continue
		}
		if backward {
			if smp.dts <= target || found < 0 {
				found = i
			}
			if smp.dts > target {
				break
			}
			continue
		}
		found = i
		if smp.dts >= target {
			break
		}
	}
	if found < 0 {
		return fmt.Errorf("seek: no keyframe in stream %d", stream)
	}

	// Keyframes outside [min, max] are still used; the caller corrects the landing.
	s.pos = found
	return nil
}

// OpenDecoder opens a decoder for the stream.
func (s *Source) OpenDecoder(stream int) (ports.VideoDecoder, error) {
	if stream < 0 || stream >= len(s.tracks) {
		return nil, fmt.Errorf("open decoder: no stream %d", stream)
	}
	if s.decoders == nil {
		return nil, ports.ErrCodecNotFound
	}
	return s.decoders.NewDecoder(s.tracks[stream].info, s)
}

// Close closes the underlying file.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func reduce(num, den int64) ports.Rational {
	a, b := num, den
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return ports.Rational{}
	}
	return ports.Rational{Num: int(num / a), Den: int(den / a)}
}

var (
	_ ports.MediaOpener = (*Opener)(nil)
	_ ports.Initializer = (*Opener)(nil)
	_ ports.MediaSource = (*Source)(nil)
	_ ports.GroupReader = (*Source)(nil)
)
