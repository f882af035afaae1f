package reader

import (
	"sync"

	"github.com/user/framereader/pkg/frame"
	"github.com/user/framereader/pkg/metrics"
)

// Strategy is how an import request is reconciled with the existing window.
type Strategy int

const (
	// StrategyComplete discards the window and decodes the full range.
	StrategyComplete Strategy = iota
	// StrategyReduction only drops frames outside the new range.
	StrategyReduction
	// StrategyInsertionAfter decodes and appends the range after the window.
	StrategyInsertionAfter
	// StrategyInsertionBefore decodes and prepends the range before the window.
	StrategyInsertionBefore
)

// String returns the string representation of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyComplete:
		return "complete"
	case StrategyReduction:
		return "reduction"
	case StrategyInsertionAfter:
		return "insertion_after"
	case StrategyInsertionBefore:
		return "insertion_before"
	default:
		return "unknown"
	}
}

// Window is the analysis window: frames of one contiguous imported range in
// timestamp order, with a cursor. The engine is the only writer.
type Window struct {
	mu         sync.RWMutex
	frames     []*frame.Frame
	cursor     int
	analyzable bool
}

// NewWindow creates an empty window.
func NewWindow() *Window {
	return &Window{cursor: -1}
}

// Len returns the number of frames.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.frames)
}

// Analyzable reports whether the last import completed.
func (w *Window) Analyzable() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.analyzable
}

// Frames returns a snapshot of the frames. The frames stay owned by the window.
func (w *Window) Frames() []*frame.Frame {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*frame.Frame, len(w.frames))
	copy(out, w.frames)
	return out
}

// Timestamps returns the frame timestamps in order.
func (w *Window) Timestamps() []int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]int64, len(w.frames))
	for i, f := range w.frames {
		out[i] = f.Timestamp
	}
	return out
}

// At returns the frame at index i, or nil.
func (w *Window) At(i int) *frame.Frame {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if i < 0 || i >= len(w.frames) {
		return nil
	}
	return w.frames[i]
}

// Current returns the frame under the cursor, or nil.
func (w *Window) Current() *frame.Frame {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.cursor < 0 || w.cursor >= len(w.frames) {
		return nil
	}
	return w.frames[w.cursor]
}

// CurrentIndex returns the cursor, -1 when the window is empty.
func (w *Window) CurrentIndex() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cursor
}

// SetCurrent moves the cursor. Returns false when i is out of range.
func (w *Window) SetCurrent(i int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if i < 0 || i >= len(w.frames) {
		return false
	}
	w.cursor = i
	return true
}

// Bounds returns the first and last timestamps held. ok is false when empty.
func (w *Window) Bounds() (start, end int64, ok bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.frames) == 0 {
		return 0, 0, false
	}
	return w.frames[0].Timestamp, w.frames[len(w.frames)-1].Timestamp, true
}

// FrameIndexAt returns the index of the first frame at or after ts, capped at
// the last index. Returns -1 when empty.
func (w *Window) FrameIndexAt(ts int64) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.indexAt(ts)
}

func (w *Window) indexAt(ts int64) int {
	if len(w.frames) == 0 {
		return -1
	}
	for i, f := range w.frames {
		if f.Timestamp >= ts {
			return i
		}
	}
	return len(w.frames) - 1
}

// prepare picks the strategy for [start, end] and applies any reduction.
// It returns the range left to decode. Reduction is evaluated before expansion
// and both may apply to the same request.
func (w *Window) prepare(start, end int64, force bool, perFrame int64) (Strategy, int64, int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.analyzable || force || len(w.frames) == 0 {
		w.discardLocked()
		return StrategyComplete, start, end
	}

	oldStart := w.frames[0].Timestamp
	oldEnd := w.frames[len(w.frames)-1].Timestamp
	strategy := StrategyReduction

	if end >= 0 && end < oldEnd {
		w.dropAfterLocked(end)
	}
	if start > oldStart {
		w.dropBeforeLocked(start)
	}
	if len(w.frames) == 0 {
		// Disjoint request: nothing left to extend.
		w.discardLocked()
		return StrategyComplete, start, end
	}

	switch {
	case end >= oldEnd+perFrame:
		start = oldEnd
		strategy = StrategyInsertionAfter
	case start <= oldStart-perFrame:
		end = oldStart
		strategy = StrategyInsertionBefore
	}
	return strategy, start, end
}

// dropAfterLocked releases frames after ts.
func (w *Window) dropAfterLocked(ts int64) {
	keep := len(w.frames)
	for i, f := range w.frames {
		if f.Timestamp > ts {
			keep = i
			break
		}
	}
	for _, f := range w.frames[keep:] {
		f.Release()
	}
	clear(w.frames[keep:])
	w.frames = w.frames[:keep]
}

// dropBeforeLocked releases frames before ts.
func (w *Window) dropBeforeLocked(ts int64) {
	first := w.indexAt(ts)
	if first < 0 {
		return
	}
	if w.frames[first].Timestamp < ts {
		first = len(w.frames)
	}
	for _, f := range w.frames[:first] {
		f.Release()
	}
	w.frames = append([]*frame.Frame(nil), w.frames[first:]...)
	w.cursor -= first
}

// place stores a decoded frame according to the strategy. It returns false
// when the frame is already held and was not stored.
func (w *Window) place(s Strategy, f *frame.Frame, decoded int, oldStart, oldEnd int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case s == StrategyComplete:
		w.frames = append(w.frames, f)
	case s == StrategyInsertionAfter && f.Timestamp > oldEnd:
		w.frames = append(w.frames, f)
	case s == StrategyInsertionBefore && f.Timestamp < oldStart:
		i := min(max(decoded-1, 0), len(w.frames))
		w.frames = append(w.frames, nil)
		copy(w.frames[i+1:], w.frames[i:])
		w.frames[i] = f
		if w.cursor >= i {
			w.cursor++
		}
	default:
		return false
	}
	metrics.ImportedFrames.Inc()
	return true
}

// finish marks the window analyzable and clamps the cursor.
func (w *Window) finish() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.analyzable = true
	w.cursor = min(max(w.cursor, 0), len(w.frames)-1)
	metrics.AnalysisWindowFrames.Set(float64(len(w.frames)))
}

func (w *Window) discard() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.discardLocked()
}

func (w *Window) discardLocked() {
	for _, f := range w.frames {
		f.Release()
	}
	w.frames = nil
	w.cursor = -1
	w.analyzable = false
	metrics.AnalysisWindowFrames.Set(0)
}
