package reader

import (
	"errors"
	"testing"

	"github.com/user/framereader/pkg/adapters/logger"
	"github.com/user/framereader/pkg/mocks"
	"github.com/user/framereader/pkg/ports"
	"github.com/user/framereader/pkg/video"
)

const testPath = "/videos/jump.mp4"

// newTestReader opens a synthetic video registered at testPath.
func newTestReader(t *testing.T, opts mocks.VideoOptions) (*Reader, *mocks.MediaOpener, *mocks.FileSystem) {
	t.Helper()
	opener := mocks.NewMediaOpener()
	opener.Sources[testPath] = mocks.NewVideo(opts)
	fs := mocks.NewFileSystem()

	r := New(opener, fs, logger.NewNoop(), DefaultOptions())
	if res := r.Open(testPath); res != video.OpenSuccess {
		t.Fatalf("open failed: %s", res)
	}
	return r, opener, fs
}

func TestReader_Open(t *testing.T) {
	r, opener, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	if !r.Loaded() {
		t.Fatal("expected reader to be loaded")
	}
	if opener.Inits != 1 {
		t.Errorf("expected one decoder startup, got %d", opener.Inits)
	}

	info := r.Info()
	if info.AverageTimeStampsPerSeconds != 100 {
		t.Errorf("expected 100 ticks per second, got %f", info.AverageTimeStampsPerSeconds)
	}
	if info.AverageTimeStampsPerFrame != 10 {
		t.Errorf("expected 10 ticks per frame, got %d", info.AverageTimeStampsPerFrame)
	}
	if info.DurationTimeStamps != 1000 {
		t.Errorf("expected duration 1000, got %d", info.DurationTimeStamps)
	}
	if zone := r.WorkingZone(); zone != (video.Section{Start: 0, End: 990}) {
		t.Errorf("unexpected working zone %+v", zone)
	}
	if info.DecodingSize != (video.Size{Width: 16, Height: 12}) {
		t.Errorf("unexpected decoding size %s", info.DecodingSize)
	}
}

func TestReader_Open_Failures(t *testing.T) {
	audioOnly := &mocks.MediaSource{
		Container: ports.ContainerInfo{
			DurationUs: 1000000,
			Streams: []ports.StreamInfo{
				{Index: 0, Kind: ports.StreamAudio, Codec: ports.CodecAAC, TimeBase: ports.Rational{Num: 1, Den: 48000}},
			},
		},
	}
	noStreams := &mocks.MediaSource{}
	noDuration := mocks.NewVideo(mocks.DefaultVideoOptions())
	noDuration.Container.DurationUs = 0
	noCodec := mocks.NewVideo(mocks.DefaultVideoOptions())
	noCodec.OpenDecoderFunc = func(int) (ports.VideoDecoder, error) {
		return nil, ports.ErrCodecNotFound
	}
	brokenCodec := mocks.NewVideo(mocks.DefaultVideoOptions())
	brokenCodec.OpenDecoderFunc = func(int) (ports.VideoDecoder, error) {
		return nil, errors.New("unsupported profile")
	}

	tests := []struct {
		name string
		src  *mocks.MediaSource
		want video.OpenResult
	}{
		{"missing file", nil, video.OpenFileNotOpened},
		{"no streams", noStreams, video.OpenStreamInfoNotFound},
		{"no video", audioOnly, video.OpenVideoStreamNotFound},
		{"no duration", noDuration, video.OpenStreamInfoNotFound},
		{"codec not found", noCodec, video.OpenCodecNotFound},
		{"codec not opened", brokenCodec, video.OpenCodecNotOpened},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := mocks.NewMediaOpener()
			if tt.src != nil {
				opener.Sources[testPath] = tt.src
			}
			r := New(opener, mocks.NewFileSystem(), logger.NewNoop(), DefaultOptions())

			if got := r.Open(testPath); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
			if r.Loaded() {
				t.Error("expected reader not to be loaded")
			}
			if !r.Info().Empty() {
				t.Error("expected no video information to be retained")
			}
			if last := opener.Last(); last != nil && !last.Closed {
				t.Error("expected the failed session to be closed")
			}
		})
	}
}

func TestReader_Open_ClosesPrevious(t *testing.T) {
	r, opener, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	first := opener.Last()
	if !r.MoveTo(200) {
		t.Fatal("MoveTo failed")
	}

	if res := r.Open(testPath); res != video.OpenSuccess {
		t.Fatalf("reopen failed: %s", res)
	}
	if !first.Closed {
		t.Error("expected the previous session to be closed")
	}
	if r.Cache().Len() != 0 {
		t.Errorf("expected an empty cache after reopen, got %d frames", r.Cache().Len())
	}
	if opener.Inits != 1 {
		t.Errorf("expected startup to run once, got %d", opener.Inits)
	}
}

func TestReader_Close_ReleasesFrames(t *testing.T) {
	r, opener, _ := newTestReader(t, mocks.DefaultVideoOptions())

	r.MoveTo(300)
	r.MoveNext()
	r.MoveNext()
	if r.Pool().Live() == 0 {
		t.Fatal("expected live frames while navigating")
	}

	r.Close()
	if live := r.Pool().Live(); live != 0 {
		t.Errorf("expected every frame released, %d live", live)
	}
	if r.Loaded() {
		t.Error("expected reader to be unloaded")
	}
	if !opener.Last().Closed {
		t.Error("expected source to be closed")
	}
	if r.MoveNext() {
		t.Error("expected MoveNext to fail on a closed reader")
	}
}

func TestReader_ReadMetadata(t *testing.T) {
	opts := mocks.DefaultVideoOptions()
	opts.Metadata = "<analysis/>"
	r, opener, _ := newTestReader(t, opts)
	defer r.Close()

	if !r.HasAnalysisMetadata() {
		t.Error("expected embedded metadata to be detected")
	}
	if got := r.ReadMetadata(); got != "<analysis/>" {
		t.Errorf("expected metadata text, got %q", got)
	}
	if pos := opener.Last().Position(); pos != 0 {
		t.Errorf("expected read position rewound to 0, got %d", pos)
	}

	if !r.MoveTo(0) {
		t.Fatal("MoveTo after metadata read failed")
	}
	if ts := r.Current().Timestamp; ts != 0 {
		t.Errorf("expected first frame, got %d", ts)
	}
}

func TestReader_ReadMetadata_None(t *testing.T) {
	r, _, fs := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	if got := r.ReadMetadata(); got != "" {
		t.Errorf("expected no metadata, got %q", got)
	}
	if r.HasAnalysisMetadata() {
		t.Error("expected no analysis metadata")
	}

	fs.WriteFile("/videos/jump.kva", []byte("<analysis/>"))
	if !r.HasAnalysisMetadata() {
		t.Error("expected sidecar file to be detected")
	}
}

func TestReader_ChangeAspectRatio(t *testing.T) {
	r, _, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	r.MoveTo(100)
	if r.Cache().Len() == 0 {
		t.Fatal("expected cached frames")
	}

	if !r.ChangeAspectRatio(video.AspectForce169) {
		t.Fatal("ChangeAspectRatio failed")
	}
	if r.Cache().Len() != 0 {
		t.Error("expected cache cleared")
	}
	if got := r.Info().DecodingSize; got != (video.Size{Width: 16, Height: 9}) {
		t.Errorf("expected 16x9 decoding size, got %s", got)
	}
	if r.Options().AspectRatio != video.AspectForce169 {
		t.Error("expected policy to be stored")
	}

	if !r.MoveTo(100) {
		t.Fatal("MoveTo after aspect change failed")
	}
	if got := r.Current().Size(); got != (video.Size{Width: 16, Height: 9}) {
		t.Errorf("expected frames decoded at 16x9, got %s", got)
	}
}

func TestReader_ChangeDeinterlace(t *testing.T) {
	r := New(mocks.NewMediaOpener(), mocks.NewFileSystem(), logger.NewNoop(), DefaultOptions())
	if r.ChangeDeinterlace(true) {
		t.Error("expected ChangeDeinterlace to report false without a file")
	}
	if r.ChangeAspectRatio(video.AspectForce43) {
		t.Error("expected ChangeAspectRatio to report false without a file")
	}

	r, _, _ = newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	r.MoveTo(100)
	if !r.ChangeDeinterlace(true) {
		t.Fatal("ChangeDeinterlace failed")
	}
	if r.Cache().Len() != 0 {
		t.Error("expected cache cleared")
	}
	if !r.Options().Deinterlace {
		t.Error("expected deinterlace enabled")
	}
}
