package mp4source

import (
	"fmt"
	"io"
	"sort"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/framereader/pkg/ports"
)

// sample locates one access unit of a track.
type sample struct {
	stream int
	offset int64
	size   uint32
	data   []byte // set for fragmented files
	dts    int64
	pts    int64
	sync   bool
}

// track is the demux state of one trak box.
type track struct {
	info       ports.StreamInfo
	trackID    uint32
	header     []byte // Annex B parameter sets, h264 only
	annexB     bool
	timescale  uint32
	noCtts     bool
	mediaTicks uint64
}

// newTrack reads the stream description of a trak box.
func newTrack(index int, trak *mp4.TrakBox) (*track, error) {
	if trak.Tkhd == nil || trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Mdhd == nil {
		return nil, fmt.Errorf("track %d: missing tkhd or mdia", index)
	}

	t := &track{
		trackID:   trak.Tkhd.TrackID,
		timescale: trak.Mdia.Mdhd.Timescale,
	}
	if t.timescale == 0 {
		t.timescale = 1000
	}
	t.mediaTicks = trak.Mdia.Mdhd.Duration

	t.info = ports.StreamInfo{
		Index:    index,
		Kind:     kindFromHandler(trak.Mdia.Hdlr.HandlerType),
		TimeBase: ports.Rational{Num: 1, Den: int(t.timescale)},
		Language: trak.Mdia.Mdhd.GetLanguage(),
	}

	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return t, nil
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		t.info.Codec = codecFromEntry(child.Type())
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			t.info.Width = int(vse.Width)
			t.info.Height = int(vse.Height)
			if vse.Pasp != nil && vse.Pasp.HSpacing > 0 && vse.Pasp.VSpacing > 0 {
				t.info.SampleAspect = ports.Rational{Num: int(vse.Pasp.HSpacing), Den: int(vse.Pasp.VSpacing)}
			}
			if vse.AvcC != nil {
				t.header = parameterSets(vse.AvcC)
				t.annexB = true
			}
		}
		break
	}
	return t, nil
}

// progressiveSamples indexes the samples of a progressive track from its sample table.
func progressiveSamples(t *track, stbl *mp4.StblBox) ([]sample, error) {
	if stbl == nil || stbl.Stsz == nil || stbl.Stsc == nil {
		return nil, fmt.Errorf("track %d: no sample table", t.info.Index)
	}
	t.noCtts = stbl.Ctts == nil

	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	count := stbl.Stsz.SampleNumber
	samples := make([]sample, 0, count)
	var chunkNr, firstInChunk int
	var offset int64

	for nr := uint32(1); nr <= count; nr++ {
		cn, first, err := stbl.Stsc.ChunkNrFromSampleNr(int(nr))
		if err != nil {
			return nil, fmt.Errorf("track %d sample %d: %w", t.info.Index, nr, err)
		}
		if cn != chunkNr || first != firstInChunk {
			chunkNr, firstInChunk = cn, first
			off, err := chunkOffset(stbl, cn)
			if err != nil {
				return nil, fmt.Errorf("track %d sample %d: %w", t.info.Index, nr, err)
			}
			offset = int64(off)
		}

		size := stbl.Stsz.GetSampleSize(int(nr))
		s := sample{
			stream: t.info.Index,
			offset: offset,
			size:   size,
			sync:   syncSamples[nr] || len(syncSamples) == 0,
		}
		offset += int64(size)

		if stbl.Stts != nil {
			dts, _ := stbl.Stts.GetDecodeTime(nr)
			s.dts = int64(dts)
		}
		s.pts = s.dts
		if stbl.Ctts != nil {
			s.pts += int64(stbl.Ctts.GetCompositionTimeOffset(nr))
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func chunkOffset(stbl *mp4.StblBox, chunkNr int) (uint64, error) {
	switch {
	case stbl.Stco != nil:
		return stbl.Stco.GetOffset(chunkNr)
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return 0, fmt.Errorf("chunk nr %d out of range", chunkNr)
		}
		return stbl.Co64.ChunkOffset[chunkNr-1], nil
	default:
		return 0, fmt.Errorf("no stco or co64 box")
	}
}

// fragmentedSamples collects the samples of every fragment, in file order.
func fragmentedSamples(f *mp4.File, tracks map[uint32]*track) ([]sample, error) {
	trexs := make(map[uint32]*mp4.TrexBox)
	if f.Init != nil && f.Init.Moov != nil && f.Init.Moov.Mvex != nil {
		for _, trex := range f.Init.Moov.Mvex.Trexs {
			trexs[trex.TrackID] = trex
		}
	}

	var samples []sample
	for _, seg := range f.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil || frag.Moof.Traf == nil {
				continue
			}
			trackID := frag.Moof.Traf.Tfhd.TrackID
			t, ok := tracks[trackID]
			if !ok {
				continue
			}
			full, err := frag.GetFullSamples(trexs[trackID])
			if err != nil {
				return nil, fmt.Errorf("get samples: %w", err)
			}
			for _, fs := range full {
				samples = append(samples, sample{
					stream: t.info.Index,
					size:   uint32(len(fs.Data)),
					data:   fs.Data,
					dts:    int64(fs.DecodeTime),
					pts:    int64(fs.DecodeTime) + int64(fs.CompositionTimeOffset),
					sync:   fs.IsSync(),
				})
				t.mediaTicks = max(t.mediaTicks, fs.DecodeTime+uint64(fs.Dur))
			}
		}
	}
	return samples, nil
}

// reorderDepth returns the smallest number of pictures a decoder must hold
// back to output pts in increasing order, or 0 when decode order is display order.
func reorderDepth(pts []int64) int {
	const maxDepth = 16
	for depth := 0; depth < maxDepth; depth++ {
		if emitsInOrder(pts, depth) {
			return depth
		}
	}
	return maxDepth
}

func emitsInOrder(pts []int64, depth int) bool {
	var pending []int64
	last := int64(-1 << 62)
	emit := func() bool {
		out := pending[0]
		pending = pending[1:]
		if out < last {
			return false
		}
		last = out
		return true
	}

	for _, p := range pts {
		i := sort.Search(len(pending), func(i int) bool { return pending[i] >= p })
		pending = append(pending, 0)
		copy(pending[i+1:], pending[i:])
		pending[i] = p
		if len(pending) > depth && !emit() {
			return false
		}
	}
	for len(pending) > 0 {
		if !emit() {
			return false
		}
	}
	return true
}

// readSample returns the payload of s.
func readSample(r io.ReaderAt, s sample) ([]byte, error) {
	if s.data != nil {
		return s.data, nil
	}
	data := make([]byte, s.size)
	if _, err := r.ReadAt(data, s.offset); err != nil {
		return nil, fmt.Errorf("read sample at %d: %w", s.offset, err)
	}
	return data, nil
}
