package reader

import (
	"context"
	"errors"
	"testing"

	"github.com/user/framereader/pkg/adapters/logger"
	"github.com/user/framereader/pkg/frame"
	"github.com/user/framereader/pkg/mocks"
	"github.com/user/framereader/pkg/video"
)

func expectWindow(t *testing.T, w *Window, start, end int64) {
	t.Helper()
	ts := w.Timestamps()
	want := int((end-start)/10) + 1
	if len(ts) != want {
		t.Fatalf("expected %d frames in [%d, %d], got %d: %v", want, start, end, len(ts), ts)
	}
	for i, got := range ts {
		if got != start+int64(i)*10 {
			t.Fatalf("frame %d: expected %d, got %d", i, start+int64(i)*10, got)
		}
	}
	if !w.Analyzable() {
		t.Error("expected window to be analyzable")
	}
}

func TestExtractToMemory_Complete(t *testing.T) {
	r, _, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	var calls int
	var lastDone, lastTotal int64
	progress := func(done, total int64) {
		calls++
		lastDone, lastTotal = done, total
	}

	s, err := r.ExtractToMemory(context.Background(), 100, 500, false, progress)
	if err != nil {
		t.Fatalf("ExtractToMemory failed: %v", err)
	}
	if s != StrategyComplete {
		t.Errorf("expected complete import, got %s", s)
	}
	expectWindow(t, r.Window(), 100, 500)

	if calls != 41 || lastDone != 41 {
		t.Errorf("expected 41 progress reports, got %d ending at %d", calls, lastDone)
	}
	if lastTotal != 40 {
		t.Errorf("expected estimate of 40 frames, got %d", lastTotal)
	}
	if live := r.Pool().Live(); live != 41 {
		t.Errorf("expected only window frames alive, %d live", live)
	}
}

func TestExtractToMemory_ToEndOfFile(t *testing.T) {
	opts := mocks.DefaultVideoOptions()
	opts.BFrames = false
	r, _, _ := newTestReader(t, opts)
	defer r.Close()

	if _, err := r.ExtractToMemory(context.Background(), 800, -1, false, nil); err != nil {
		t.Fatalf("ExtractToMemory failed: %v", err)
	}
	expectWindow(t, r.Window(), 800, 990)
}

func TestExtractToMemory_InsertionAfter(t *testing.T) {
	r, _, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	ctx := context.Background()
	if _, err := r.ExtractToMemory(ctx, 100, 500, false, nil); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	before := r.Window().Frames()

	s, err := r.ExtractToMemory(ctx, 100, 520, false, nil)
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if s != StrategyInsertionAfter {
		t.Errorf("expected insertion after, got %s", s)
	}
	expectWindow(t, r.Window(), 100, 520)

	after := r.Window().Frames()
	for i, f := range before {
		if after[i] != f {
			t.Fatalf("frame %d was re-decoded instead of kept", f.Timestamp)
		}
	}
	if live := r.Pool().Live(); live != 43 {
		t.Errorf("expected duplicate frame released, %d live", live)
	}
}

func TestExtractToMemory_InsertionBefore(t *testing.T) {
	r, _, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	ctx := context.Background()
	if _, err := r.ExtractToMemory(ctx, 300, 500, false, nil); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	kept := r.Window().At(0)

	s, err := r.ExtractToMemory(ctx, 200, 500, false, nil)
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if s != StrategyInsertionBefore {
		t.Errorf("expected insertion before, got %s", s)
	}
	expectWindow(t, r.Window(), 200, 500)
	if r.Window().At(10) != kept {
		t.Error("expected the old first frame to be kept in place")
	}
}

func TestExtractToMemory_Reduction(t *testing.T) {
	r, _, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	ctx := context.Background()
	if _, err := r.ExtractToMemory(ctx, 100, 500, false, nil); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	read := r.opener.(*mocks.MediaOpener).Last().PacketsRead

	s, err := r.ExtractToMemory(ctx, 150, 450, false, nil)
	if err != nil {
		t.Fatalf("reduction failed: %v", err)
	}
	if s != StrategyReduction {
		t.Errorf("expected reduction, got %s", s)
	}
	expectWindow(t, r.Window(), 150, 450)

	if live := r.Pool().Live(); live != 31 {
		t.Errorf("expected dropped frames released, %d live", live)
	}
	if got := r.opener.(*mocks.MediaOpener).Last().PacketsRead; got != read {
		t.Errorf("expected reduction without decoding, read %d packets", got-read)
	}
}

func TestExtractToMemory_ReduceThenExpand(t *testing.T) {
	r, _, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	ctx := context.Background()
	if _, err := r.ExtractToMemory(ctx, 100, 500, false, nil); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	// The start is trimmed and the end extended in the same request.
	s, err := r.ExtractToMemory(ctx, 200, 600, false, nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if s != StrategyInsertionAfter {
		t.Errorf("expected insertion after, got %s", s)
	}
	expectWindow(t, r.Window(), 200, 600)
}

func TestExtractToMemory_Disjoint(t *testing.T) {
	r, _, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	ctx := context.Background()
	if _, err := r.ExtractToMemory(ctx, 100, 300, false, nil); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	s, err := r.ExtractToMemory(ctx, 600, 700, false, nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if s != StrategyComplete {
		t.Errorf("expected complete reload, got %s", s)
	}
	expectWindow(t, r.Window(), 600, 700)
}

func TestExtractToMemory_ForceReload(t *testing.T) {
	r, _, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	ctx := context.Background()
	r.ExtractToMemory(ctx, 100, 300, false, nil)
	old := r.Window().At(0)

	s, err := r.ExtractToMemory(ctx, 100, 300, true, nil)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if s != StrategyComplete {
		t.Errorf("expected complete reload, got %s", s)
	}
	if !old.Released() {
		t.Error("expected previous frames released")
	}
	expectWindow(t, r.Window(), 100, 300)
}

func TestExtractToMemory_Cancel(t *testing.T) {
	r, _, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	if _, err := r.ExtractToMemory(context.Background(), 100, 300, false, nil); err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	progress := func(done, _ int64) {
		if done == 5 {
			cancel()
		}
	}

	_, err := r.ExtractToMemory(ctx, 100, 800, false, progress)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if n := r.Window().Len(); n != 0 {
		t.Errorf("expected window discarded, %d frames left", n)
	}
	if r.Window().Analyzable() {
		t.Error("expected window not analyzable after cancel")
	}
	if live := r.Pool().Live(); live != 0 {
		t.Errorf("expected every frame released, %d live", live)
	}
}

func TestExtractToMemory_NotLoaded(t *testing.T) {
	r := New(mocks.NewMediaOpener(), mocks.NewFileSystem(), logger.NewNoop(), DefaultOptions())
	if _, err := r.ExtractToMemory(context.Background(), 0, 100, false, nil); !errors.Is(err, video.ErrMovieNotLoaded) {
		t.Errorf("expected ErrMovieNotLoaded, got %v", err)
	}
}

func TestExtractToMemory_NothingDecoded(t *testing.T) {
	r, _, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	_, err := r.ExtractToMemory(context.Background(), 5000, 6000, false, nil)
	if !errors.Is(err, video.ErrImportFailed) {
		t.Errorf("expected ErrImportFailed, got %v", err)
	}
	if r.Window().Analyzable() {
		t.Error("expected window not analyzable")
	}
}

func TestStopAnalysis(t *testing.T) {
	r, _, _ := newTestReader(t, mocks.DefaultVideoOptions())
	defer r.Close()

	r.ExtractToMemory(context.Background(), 0, 200, false, nil)
	r.StopAnalysis()

	if r.Window().Len() != 0 || r.Window().Analyzable() {
		t.Error("expected window discarded")
	}
	if live := r.Pool().Live(); live != 0 {
		t.Errorf("expected frames released, %d live", live)
	}
}

func TestCanExtractToMemory(t *testing.T) {
	opts := mocks.DefaultVideoOptions()
	opts.Width, opts.Height = 1024, 1024 // 4 MiB per RGBA frame
	r, _, _ := newTestReader(t, opts)
	defer r.Close()

	tests := []struct {
		name       string
		start, end int64
		maxSeconds float64
		maxMiB     int
		want       bool
	}{
		{"fits", 0, 500, 10, 1024, true},
		{"too long", 0, 500, 4, 1024, false},
		{"exact duration", 0, 400, 4, 1024, true},
		{"too large", 0, 500, 10, 100, false},
		{"exact memory", 0, 250, 10, 100, true},
		{"empty range", 300, 300, 10, 1024, false},
		{"reversed range", 500, 100, 10, 1024, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.CanExtractToMemory(tt.start, tt.end, tt.maxSeconds, tt.maxMiB); got != tt.want {
				t.Errorf("CanExtractToMemory(%d, %d, %v, %d) = %v, want %v",
					tt.start, tt.end, tt.maxSeconds, tt.maxMiB, got, tt.want)
			}
		})
	}
}

func TestWindow_Prepare(t *testing.T) {
	pool := frame.NewPool()
	size := video.Size{Width: 4, Height: 4}
	fill := func(w *Window, from, to int64) {
		for ts := from; ts <= to; ts += 10 {
			w.place(StrategyComplete, frame.New(ts, size, video.PixelFormatRGBA32, pool), 0, 0, 0)
		}
		w.finish()
	}

	tests := []struct {
		name       string
		start, end int64
		force      bool
		want       Strategy
		from, to   int64
	}{
		{"forced", 100, 200, true, StrategyComplete, 100, 200},
		{"same range", 100, 200, false, StrategyReduction, 100, 200},
		{"shrink", 120, 180, false, StrategyReduction, 120, 180},
		{"extend end", 100, 300, false, StrategyInsertionAfter, 200, 300},
		{"extend start", 0, 200, false, StrategyInsertionBefore, 0, 100},
		{"below one frame", 100, 205, false, StrategyReduction, 100, 205},
		{"disjoint", 400, 500, false, StrategyComplete, 400, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWindow()
			fill(w, 100, 200)

			s, from, to := w.prepare(tt.start, tt.end, tt.force, 10)
			if s != tt.want || from != tt.from || to != tt.to {
				t.Errorf("prepare(%d, %d) = %s [%d, %d], want %s [%d, %d]",
					tt.start, tt.end, s, from, to, tt.want, tt.from, tt.to)
			}
		})
	}

	t.Run("not analyzable", func(t *testing.T) {
		w := NewWindow()
		if s, _, _ := w.prepare(0, 100, false, 10); s != StrategyComplete {
			t.Errorf("expected complete on an empty window, got %s", s)
		}
	})
}
