// Package timestamp reconciles per-packet decode and presentation timestamps
// into one presentation time per completed picture.
//
// Decoders emit pictures in presentation order while packets arrive in decode
// order. A timestamp seen while the decoder is still buffering is held as the
// buffered PTS and handed to the next completed picture when it is older than
// that picture's own timestamp.
package timestamp

import (
	"math"

	"github.com/user/framereader/pkg/ports"
)

// Unset marks an empty buffered PTS.
const Unset int64 = math.MaxInt64

// State is the reconciler state between two observations.
type State struct {
	CurrentTimestamp int64
	LastDecodedPTS   int64
	BufferedPTS      int64
}

// Initial returns the state after open, seek or close.
func Initial() State {
	return State{
		CurrentTimestamp: -1,
		LastDecodedPTS:   -1,
		BufferedPTS:      Unset,
	}
}

// Observation is one (dts, pts, decoded) triple fed to the reconciler.
type Observation struct {
	DTS     int64
	PTS     int64
	Decoded bool
}

// Step is the pure transition function. perFrame is the average number of
// ticks per frame used to extrapolate when no timestamp is available.
func Step(s State, perFrame int64, o Observation) State {
	ptsUsable := o.PTS != ports.NoTimestamp && o.PTS >= 0

	switch {
	case !ptsUsable && o.Decoded:
		var ts int64
		switch {
		case o.DTS == ports.NoTimestamp || o.DTS < 0:
			switch {
			case s.BufferedPTS != Unset:
				ts = s.BufferedPTS
				s.BufferedPTS = Unset
			case s.LastDecodedPTS >= 0:
				ts = s.LastDecodedPTS + perFrame
			default:
				ts = 0
			}
		case s.BufferedPTS < o.DTS:
			ts = s.BufferedPTS
			s.BufferedPTS = o.DTS
		default:
			ts = o.DTS
		}
		s.CurrentTimestamp = ts
		s.LastDecodedPTS = ts

	case !ptsUsable:
		switch {
		case o.DTS == ports.NoTimestamp:
			s.BufferedPTS = 0
		case o.DTS < 0:
			s.BufferedPTS = Unset
		default:
			s.BufferedPTS = o.DTS
		}

	case o.Decoded:
		ts := o.PTS
		if s.BufferedPTS < o.PTS {
			ts = s.BufferedPTS
			s.BufferedPTS = o.PTS
		}
		s.CurrentTimestamp = ts
		s.LastDecodedPTS = ts

	default:
		s.BufferedPTS = o.PTS
	}

	return s
}

// Reconciler holds the state of one decode session.
type Reconciler struct {
	state    State
	perFrame int64
}

// New creates a reconciler in its initial state.
func New(perFrame int64) *Reconciler {
	return &Reconciler{state: Initial(), perFrame: perFrame}
}

// Observe applies one observation and returns the current timestamp.
func (r *Reconciler) Observe(dts, pts int64, decoded bool) int64 {
	r.state = Step(r.state, r.perFrame, Observation{DTS: dts, PTS: pts, Decoded: decoded})
	return r.state.CurrentTimestamp
}

// Reset discards buffered state. Required after every seek.
func (r *Reconciler) Reset() {
	r.state = Initial()
}

// SetCurrent overrides the current timestamp, used to resume from a cached frame.
func (r *Reconciler) SetCurrent(ts int64) {
	r.state.CurrentTimestamp = ts
}

// Current returns the last reconciled timestamp, -1 before the first picture.
func (r *Reconciler) Current() int64 {
	return r.state.CurrentTimestamp
}

// State returns a copy of the current state.
func (r *Reconciler) State() State {
	return r.state
}

// Replay runs a sequence from the initial state and returns the timestamp
// of every decoded observation.
func Replay(perFrame int64, seq []Observation) []int64 {
	s := Initial()
	var out []int64
	for _, o := range seq {
		s = Step(s, perFrame, o)
		if o.Decoded {
			out = append(out, s.CurrentTimestamp)
		}
	}
	return out
}
