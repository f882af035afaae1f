package format

import (
	"errors"
	"math"
	"testing"

	"github.com/user/framereader/pkg/ports"
	"github.com/user/framereader/pkg/video"
)

func TestEstimateFrameRate(t *testing.T) {
	tests := []struct {
		name   string
		hints  FrameRateHints
		fps    float64
		method Method
	}{
		{
			name:   "container average rate",
			hints:  FrameRateHints{AvgFrameRate: ports.Rational{Num: 30000, Den: 1001}},
			fps:    30000.0 / 1001.0,
			method: MethodContainer,
		},
		{
			name: "durations",
			hints: FrameRateHints{
				FrameCount:    240,
				Duration:      8 * 1000000,
				TickRate:      1000000,
				TicksPerFrame: 1,
			},
			fps:    30.0,
			method: MethodDurations,
		},
		{
			name: "durations with ticks per frame",
			hints: FrameRateHints{
				FrameCount:    240,
				Duration:      4 * 90000,
				TickRate:      90000,
				TicksPerFrame: 2,
			},
			fps:    30.0,
			method: MethodDurations,
		},
		{
			name:   "stream time base",
			hints:  FrameRateHints{StreamTimeBase: ports.Rational{Num: 1, Den: 50}, TicksPerFrame: 2},
			fps:    25.0,
			method: MethodStreamTimeBase,
		},
		{
			name: "stream time base too fine falls through to codec",
			hints: FrameRateHints{
				StreamTimeBase: ports.Rational{Num: 1, Den: 90000},
				CodecTimeBase:  ports.Rational{Num: 1, Den: 48},
				TicksPerFrame:  2,
			},
			fps:    24.0,
			method: MethodCodecTimeBase,
		},
		{
			name:   "quirk 30000",
			hints:  FrameRateHints{CodecTimeBase: ports.Rational{Num: 1, Den: 30000}},
			fps:    29.97,
			method: MethodQuirk,
		},
		{
			name:   "quirk 25000",
			hints:  FrameRateHints{CodecTimeBase: ports.Rational{Num: 1, Den: 25000}},
			fps:    24.975,
			method: MethodQuirk,
		},
		{
			name:   "unknown codec rate",
			hints:  FrameRateHints{CodecTimeBase: ports.Rational{Num: 1, Den: 90000}},
			fps:    FallbackFrameRate,
			method: MethodFallback,
		},
		{
			name:   "no hints",
			hints:  FrameRateHints{},
			fps:    FallbackFrameRate,
			method: MethodFallback,
		},
		{
			name:   "zero denominator skips container rate",
			hints:  FrameRateHints{AvgFrameRate: ports.Rational{Num: 25, Den: 0}},
			fps:    FallbackFrameRate,
			method: MethodFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fps, method := EstimateFrameRate(tt.hints)
			if math.Abs(fps-tt.fps) > 1e-9 {
				t.Errorf("expected fps %v, got %v", tt.fps, fps)
			}
			if method != tt.method {
				t.Errorf("expected method %s, got %s", tt.method, method)
			}
		})
	}
}

func TestPixelAspect(t *testing.T) {
	tests := []struct {
		name     string
		hint     ports.Rational
		mpeg2    bool
		original video.Size
		expected float64
	}{
		{"absent", ports.Rational{}, false, video.Size{Width: 720, Height: 576}, 1.0},
		{"square", ports.Rational{Num: 1, Den: 1}, false, video.Size{Width: 720, Height: 576}, 1.0},
		{"anamorphic h264", ports.Rational{Num: 4, Den: 3}, false, video.Size{Width: 1440, Height: 1080}, 4.0 / 3.0},
		{"mpeg2 display aspect", ports.Rational{Num: 16, Den: 9}, true, video.Size{Width: 720, Height: 576}, 576.0 * 16.0 / 9.0 / 720.0},
		{"mpeg2 floored to display aspect", ports.Rational{Num: 4, Den: 3}, true, video.Size{Width: 1920, Height: 1080}, 4.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			par, _ := PixelAspect(tt.hint, tt.mpeg2, tt.original)
			if math.Abs(par-tt.expected) > 1e-9 {
				t.Errorf("expected pixel aspect %v, got %v", tt.expected, par)
			}
		})
	}
}

func TestDecodingSize(t *testing.T) {
	original := video.Size{Width: 718, Height: 576}

	tests := []struct {
		policy   video.AspectRatio
		par      float64
		expected video.Size
	}{
		{video.AspectAuto, 1.0, video.Size{Width: 720, Height: 576}},
		{video.AspectAuto, 1.2, video.Size{Width: 720, Height: 480}},
		{video.AspectForce43, 1.0, video.Size{Width: 720, Height: 538}},
		{video.AspectForce169, 1.0, video.Size{Width: 720, Height: 403}},
		{video.AspectForcedSquarePixels, 1.2, video.Size{Width: 720, Height: 576}},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			got := DecodingSize(original, tt.par, tt.policy)
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}

	if got := DecodingSize(video.Size{Width: 640, Height: 480}, 1, video.AspectAuto); got.Width != 640 {
		t.Errorf("expected width multiple of 4 to be kept, got %d", got.Width)
	}
}

func TestAnalyze(t *testing.T) {
	container := ports.ContainerInfo{
		StartTimeUs: 0,
		DurationUs:  10 * 1000000,
	}
	stream := ports.StreamInfo{
		Codec:        ports.CodecH264,
		TimeBase:     ports.Rational{Num: 1, Den: 90000},
		AvgFrameRate: ports.Rational{Num: 25, Den: 1},
		Width:        1280,
		Height:       720,
	}

	info, err := Analyze("clip.mp4", container, stream, video.AspectAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if info.AverageTimeStampsPerSeconds != 90000 {
		t.Errorf("expected 90000 ticks per second, got %v", info.AverageTimeStampsPerSeconds)
	}
	if info.AverageTimeStampsPerFrame != 3600 {
		t.Errorf("expected 3600 ticks per frame, got %d", info.AverageTimeStampsPerFrame)
	}
	if info.DurationTimeStamps != 900000 {
		t.Errorf("expected duration 900000, got %d", info.DurationTimeStamps)
	}
	if info.FrameIntervalMilliseconds != 40 {
		t.Errorf("expected 40ms interval, got %v", info.FrameIntervalMilliseconds)
	}

	zone := info.WorkingZone()
	if zone.Start != 0 || zone.End != 900000-3600 {
		t.Errorf("unexpected working zone %+v", zone)
	}
	if info.DecodingSize != (video.Size{Width: 1280, Height: 720}) {
		t.Errorf("unexpected decoding size %s", info.DecodingSize)
	}
}

func TestAnalyze_StartTime(t *testing.T) {
	container := ports.ContainerInfo{StartTimeUs: 1400000, DurationUs: 2000000}
	stream := ports.StreamInfo{
		TimeBase:     ports.Rational{Num: 1, Den: 90000},
		AvgFrameRate: ports.Rational{Num: 30, Den: 1},
	}

	info, err := Analyze("clip.ts", container, stream, video.AspectAuto)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.FirstTimeStamp != 126000 {
		t.Errorf("expected first timestamp 126000, got %d", info.FirstTimeStamp)
	}
	if info.WorkingZone().Start != 126000 {
		t.Errorf("expected working zone to start at first timestamp, got %d", info.WorkingZone().Start)
	}
}

func TestAnalyze_NoDuration(t *testing.T) {
	stream := ports.StreamInfo{
		TimeBase: ports.Rational{Num: 1, Den: 1000},
		Width:    320,
		Height:   240,
	}

	info, err := Analyze("still.png", ports.ContainerInfo{}, stream, video.AspectAuto)
	if !errors.Is(err, video.ErrStreamInfoNotFound) {
		t.Fatalf("expected ErrStreamInfoNotFound, got %v", err)
	}
	if info.OriginalSize.Width != 320 {
		t.Errorf("expected partial info to carry the size, got %s", info.OriginalSize)
	}
}

func TestAnalyze_InvalidTimeBase(t *testing.T) {
	_, err := Analyze("broken.mp4", ports.ContainerInfo{DurationUs: 1000000}, ports.StreamInfo{}, video.AspectAuto)
	if !errors.Is(err, video.ErrStreamInfoNotFound) {
		t.Fatalf("expected ErrStreamInfoNotFound, got %v", err)
	}
}
