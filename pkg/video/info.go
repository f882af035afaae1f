// Package video defines the per-session value types shared by the frame engine:
// video information, working zone, geometry, pixel formats and result codes.
package video

import "fmt"

// Size is a picture geometry in pixels.
type Size struct {
	Width  int
	Height int
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Fraction is an exact ratio such as a sample aspect ratio.
type Fraction struct {
	Num int
	Den int
}

// Value returns Num/Den, or 1 for degenerate fractions.
func (f Fraction) Value() float64 {
	if f.Num == 0 || f.Den == 0 {
		return 1
	}
	return float64(f.Num) / float64(f.Den)
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d:%d", f.Num, f.Den)
}

// Section is an inclusive [Start, End] range of timestamps in ticks.
type Section struct {
	Start int64
	End   int64
}

// Contains reports whether ts lies within the section.
func (s Section) Contains(ts int64) bool {
	return ts >= s.Start && ts <= s.End
}

// Clamp restricts ts to the section.
func (s Section) Clamp(ts int64) int64 {
	if ts < s.Start {
		return s.Start
	}
	if ts > s.End {
		return s.End
	}
	return ts
}

// Empty reports whether the section holds no timestamp.
func (s Section) Empty() bool {
	return s.End < s.Start
}

// Info is the immutable description of an opened video computed once at open.
type Info struct {
	FilePath string
	Codec    string

	AverageTimeStampsPerSeconds float64
	FramesPerSeconds            float64
	FrameRateMethod             string
	FrameIntervalMilliseconds   float64
	FirstTimeStamp              int64
	DurationTimeStamps          int64
	AverageTimeStampsPerFrame   int64

	OriginalSize      Size
	DecodingSize      Size
	PixelAspectRatio  float64
	SampleAspectRatio Fraction
	IsCodecMpeg2      bool
}

// Empty reports whether the info describes no video.
func (i Info) Empty() bool {
	return i.AverageTimeStampsPerFrame == 0
}

// WorkingZone returns the navigable range: from the first timestamp up to the
// start of the last frame.
func (i Info) WorkingZone() Section {
	end := i.FirstTimeStamp + i.DurationTimeStamps - i.AverageTimeStampsPerFrame
	if end < i.FirstTimeStamp {
		end = i.FirstTimeStamp
	}
	return Section{Start: i.FirstTimeStamp, End: end}
}

// DurationMilliseconds returns the duration in milliseconds.
func (i Info) DurationMilliseconds() int64 {
	if i.AverageTimeStampsPerSeconds <= 0 {
		return 0
	}
	return int64(float64(i.DurationTimeStamps) * 1000 / i.AverageTimeStampsPerSeconds)
}

// EstimateFrameCount returns the number of frames expected in [start, end].
func (i Info) EstimateFrameCount(start, end int64) int64 {
	if i.AverageTimeStampsPerFrame <= 0 || end < start {
		return 0
	}
	return (end - start) / i.AverageTimeStampsPerFrame
}

// TimestampToMilliseconds converts an absolute timestamp to milliseconds from the first frame.
func (i Info) TimestampToMilliseconds(ts int64) int64 {
	if i.AverageTimeStampsPerSeconds <= 0 {
		return 0
	}
	return int64(float64(ts-i.FirstTimeStamp) * 1000 / i.AverageTimeStampsPerSeconds)
}
