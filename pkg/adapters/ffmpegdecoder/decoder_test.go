package ffmpegdecoder

import (
	"bytes"
	"errors"
	"image"
	"testing"

	"github.com/user/framereader/pkg/ports"
	"github.com/user/framereader/pkg/timestamp"
)

// fakeRunner returns one picture per start code, with its gray level set to
// the byte following the start code.
type fakeRunner struct {
	calls [][]byte
	err   error
}

func (f *fakeRunner) run(data []byte, width, height int) ([]image.Image, error) {
	f.calls = append(f.calls, append([]byte(nil), data...))
	if f.err != nil {
		return nil, f.err
	}
	var frames []image.Image
	for _, nal := range bytes.Split(data, []byte{0, 0, 0, 1})[1:] {
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		img.Pix[0] = nal[0]
		frames = append(frames, img)
	}
	return frames, nil
}

// groups serves the data of each group keyed by the keyframe dts.
type groups map[int64][]byte

func (g groups) ReadGroup(stream int, dts int64) ([]byte, error) {
	data, ok := g[dts]
	if !ok {
		return nil, errors.New("no group")
	}
	return data, nil
}

// levels builds group data whose fake decode yields pictures with the given levels.
func levels(l ...byte) []byte {
	var data []byte
	for _, v := range l {
		data = append(data, 0, 0, 0, 1, v)
	}
	return data
}

func stream(depth int) ports.StreamInfo {
	return ports.StreamInfo{Codec: ports.CodecH264, Width: 4, Height: 2, ReorderDepth: depth}
}

func level(pic *ports.Picture) byte {
	return pic.Image.(*image.RGBA).Pix[0]
}

func TestDecoder_Decode(t *testing.T) {
	fake := &fakeRunner{}
	g := groups{0: levels(0, 1, 2, 3), 40: levels(4, 5, 6, 7)}
	d := newDecoder(fake.run, g, stream(0))
	r := timestamp.New(10)

	// A delta frame before the first keyframe is dropped.
	if _, finished, _ := d.Decode(ports.Packet{DTS: -10, PTS: -10}); finished {
		t.Fatal("expected no picture before the first keyframe")
	}

	for i := int64(0); i < 8; i++ {
		pkt := ports.Packet{DTS: 10 * i, PTS: 10 * i, Keyframe: i%4 == 0}
		pic, finished, err := d.Decode(pkt)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !finished {
			t.Fatalf("packet %d: expected one picture per packet", i)
		}
		ts := r.Observe(pkt.DTS, pkt.PTS, true)
		if got := level(pic); int64(got)*10 != ts {
			t.Errorf("picture %d labelled %d", got, ts)
		}
	}

	if len(fake.calls) != 2 {
		t.Errorf("expected 2 groups decoded, got %d", len(fake.calls))
	}
	if _, ok, _ := d.Drain(); ok {
		t.Error("expected nothing left to drain")
	}
}

func TestDecoder_Reorder(t *testing.T) {
	fake := &fakeRunner{}
	// Decode order I0 P20 B10 P40 B30, pictures come out of ffmpeg in display order.
	g := groups{-10: levels(0, 1, 2, 3, 4)}
	d := newDecoder(fake.run, g, stream(1))
	r := timestamp.New(10)

	feed := []ports.Packet{
		{DTS: -10, PTS: 0, Keyframe: true},
		{DTS: 0, PTS: 20},
		{DTS: 10, PTS: 10},
		{DTS: 20, PTS: 40},
		{DTS: 30, PTS: 30},
	}

	var got []int64
	for i, pkt := range feed {
		pic, finished, err := d.Decode(pkt)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !finished {
			if i != 0 {
				t.Fatalf("packet %d: expected a picture", i)
			}
			r.Observe(pkt.DTS, pkt.PTS, false)
			continue
		}
		ts := r.Observe(pkt.DTS, pkt.PTS, true)
		if int64(level(pic))*10 != ts {
			t.Errorf("picture %d labelled %d", level(pic), ts)
		}
		got = append(got, ts)
	}

	pic, ok, err := d.Drain()
	if err != nil || !ok {
		t.Fatalf("expected the last picture from Drain, got %v %v", ok, err)
	}
	ts := r.Observe(ports.NoTimestamp, ports.NoTimestamp, true)
	if level(pic) != 4 || ts != 40 {
		t.Errorf("expected picture 4 at 40, got %d at %d", level(pic), ts)
	}
	if want := []int64{0, 10, 20, 30}; !equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func equal(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDecoder_SingleGroupDrains(t *testing.T) {
	fake := &fakeRunner{}
	d := newDecoder(fake.run, groups{0: levels(0, 1, 2)}, stream(2))

	var n int
	for i := int64(0); i < 3; i++ {
		if _, finished, _ := d.Decode(ports.Packet{DTS: i, Keyframe: i == 0}); finished {
			n++
		}
	}
	for {
		_, ok, _ := d.Drain()
		if !ok {
			break
		}
		n++
	}
	if n != 3 {
		t.Errorf("expected every picture of a single group, got %d", n)
	}
}

func TestDecoder_Flush(t *testing.T) {
	fake := &fakeRunner{}
	d := newDecoder(fake.run, groups{0: levels(1, 2)}, stream(1))

	d.Decode(ports.Packet{DTS: 0, Keyframe: true})
	d.Flush()

	if _, finished, _ := d.Decode(ports.Packet{DTS: 1}); finished {
		t.Error("expected no picture after a flush")
	}
	if _, ok, _ := d.Drain(); ok {
		t.Error("expected the flushed pictures to be dropped")
	}
}

func TestDecoder_Decode_Error(t *testing.T) {
	fake := &fakeRunner{err: ErrDecodeFailed}
	d := newDecoder(fake.run, groups{0: levels(1)}, stream(0))

	if _, _, err := d.Decode(ports.Packet{DTS: 0, Keyframe: true}); !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("expected ErrDecodeFailed, got %v", err)
	}

	fake.err = nil
	if _, _, err := d.Decode(ports.Packet{DTS: 99, Keyframe: true}); !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("expected ErrDecodeFailed for a missing group, got %v", err)
	}
}

func TestSplitFrames(t *testing.T) {
	raw := make([]byte, 2*2*4*2+3)
	raw[16] = 0xff

	frames := splitFrames(raw, 2, 2)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[1].(*image.RGBA).Pix[0] != 0xff {
		t.Error("expected the second frame to start at its own offset")
	}
	if splitFrames(raw, 0, 2) != nil {
		t.Error("expected no frames for an empty size")
	}
}

func TestFactory_NewDecoder(t *testing.T) {
	f := NewFactory("")

	if _, err := f.NewDecoder(ports.StreamInfo{Codec: ports.CodecHEVC, Width: 4, Height: 2}, groups{}); !errors.Is(err, ports.ErrCodecNotFound) {
		t.Errorf("expected ErrCodecNotFound for hevc, got %v", err)
	}
	if _, err := f.NewDecoder(stream(0), nil); !errors.Is(err, ports.ErrCodecNotFound) {
		t.Errorf("expected ErrCodecNotFound without a group reader, got %v", err)
	}
	if _, err := f.NewDecoder(stream(0), groups{}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized before Init, got %v", err)
	}
}

func TestFindFFmpeg_CustomPath(t *testing.T) {
	if _, err := FindFFmpeg("/nonexistent/ffmpeg"); !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("expected ErrFFmpegNotFound, got %v", err)
	}
}
