// Package format derives per-file video metadata from raw container hints.
package format

import "github.com/user/framereader/pkg/ports"

// Method names the step of the frame rate chain that produced the estimate.
type Method int

const (
	MethodContainer Method = iota
	MethodDurations
	MethodStreamTimeBase
	MethodCodecTimeBase
	MethodQuirk
	MethodFallback
)

// String returns the string representation of the method.
func (m Method) String() string {
	switch m {
	case MethodContainer:
		return "container"
	case MethodDurations:
		return "durations"
	case MethodStreamTimeBase:
		return "stream time base"
	case MethodCodecTimeBase:
		return "codec time base"
	case MethodQuirk:
		return "quirk"
	default:
		return "fallback"
	}
}

// FallbackFrameRate is used when no hint yields a rate.
const FallbackFrameRate = 25.0

// maxTimeBaseRate bounds the time base inverse accepted as a frame rate.
const maxTimeBaseRate = 1000.0

// Quirk maps an exact raw codec rate to the drop-frame rate it stands for.
type Quirk struct {
	Raw  float64
	FPS  float64
	Note string
}

// Quirks is the table consulted when the codec time base is too fine to be a frame rate.
var Quirks = []Quirk{
	{Raw: 30000, FPS: 29.97, Note: "NTSC drop-frame"},
	{Raw: 25000, FPS: 24.975, Note: "PAL pull-down"},
}

// FrameRateHints are the raw inputs of the frame rate chain.
type FrameRateHints struct {
	AvgFrameRate   ports.Rational
	FrameCount     int64
	Duration       int64 // in units of TickRate
	TickRate       int64
	TicksPerFrame  int
	StreamTimeBase ports.Rational
	CodecTimeBase  ports.Rational
}

// HintsFromStream gathers the frame rate hints of a stream. Durations are
// taken from the container in microseconds.
func HintsFromStream(c ports.ContainerInfo, s ports.StreamInfo) FrameRateHints {
	return FrameRateHints{
		AvgFrameRate:   s.AvgFrameRate,
		FrameCount:     s.FrameCount,
		Duration:       c.DurationUs,
		TickRate:       1000000,
		TicksPerFrame:  s.TicksPerFrame,
		StreamTimeBase: s.TimeBase,
		CodecTimeBase:  s.CodecTimeBase,
	}
}

// EstimateFrameRate walks the fallback chain; the first available estimate wins.
func EstimateFrameRate(h FrameRateHints) (float64, Method) {
	if h.AvgFrameRate.Den != 0 && h.AvgFrameRate.Num != 0 {
		return h.AvgFrameRate.Float(), MethodContainer
	}

	if h.FrameCount > 0 && h.Duration > 0 && h.TickRate > 0 {
		fps := float64(h.FrameCount) * float64(h.TickRate) / float64(h.Duration)
		return perFrame(fps, h.TicksPerFrame), MethodDurations
	}

	if h.StreamTimeBase.Valid() {
		if raw := h.StreamTimeBase.Inverse(); raw < maxTimeBaseRate {
			return perFrame(raw, h.TicksPerFrame), MethodStreamTimeBase
		}
	}

	if h.CodecTimeBase.Valid() {
		raw := h.CodecTimeBase.Inverse()
		if raw < maxTimeBaseRate {
			return perFrame(raw, h.TicksPerFrame), MethodCodecTimeBase
		}
		if fps, ok := lookupQuirk(raw); ok {
			return fps, MethodQuirk
		}
	}

	return FallbackFrameRate, MethodFallback
}

func lookupQuirk(raw float64) (float64, bool) {
	for _, q := range Quirks {
		if raw == q.Raw {
			return q.FPS, true
		}
	}
	return 0, false
}

func perFrame(rate float64, ticksPerFrame int) float64 {
	if ticksPerFrame > 1 {
		return rate / float64(ticksPerFrame)
	}
	return rate
}
