package format

import (
	"fmt"
	"math"

	"github.com/user/framereader/pkg/ports"
	"github.com/user/framereader/pkg/video"
)

// Analyze builds the video information of a stream. When the duration is
// missing the returned info is still filled with every other field and the
// error wraps video.ErrStreamInfoNotFound.
func Analyze(path string, c ports.ContainerInfo, s ports.StreamInfo, policy video.AspectRatio) (video.Info, error) {
	info := video.Info{
		FilePath:     path,
		Codec:        s.Codec,
		IsCodecMpeg2: s.Codec == ports.CodecMPEG2,
		OriginalSize: video.Size{Width: s.Width, Height: s.Height},
	}

	if !s.TimeBase.Valid() {
		return info, fmt.Errorf("%w: invalid time base %d/%d", video.ErrStreamInfoNotFound, s.TimeBase.Num, s.TimeBase.Den)
	}
	info.AverageTimeStampsPerSeconds = s.TimeBase.Inverse()

	if c.StartTimeUs > 0 {
		info.FirstTimeStamp = int64(float64(c.StartTimeUs) * info.AverageTimeStampsPerSeconds / 1e6)
	}
	if c.DurationUs > 0 {
		info.DurationTimeStamps = int64(float64(c.DurationUs) * info.AverageTimeStampsPerSeconds / 1e6)
	}

	fps, method := EstimateFrameRate(HintsFromStream(c, s))
	info.FramesPerSeconds = fps
	info.FrameRateMethod = method.String()
	info.FrameIntervalMilliseconds = 1000 / fps
	info.AverageTimeStampsPerFrame = int64(math.Round(info.AverageTimeStampsPerSeconds / fps))
	if info.AverageTimeStampsPerFrame < 1 {
		info.AverageTimeStampsPerFrame = 1
	}

	info.PixelAspectRatio, info.SampleAspectRatio = PixelAspect(s.SampleAspect, info.IsCodecMpeg2, info.OriginalSize)
	info.DecodingSize = DecodingSize(info.OriginalSize, info.PixelAspectRatio, policy)

	if info.DurationTimeStamps <= 0 {
		return info, fmt.Errorf("%w: no duration", video.ErrStreamInfoNotFound)
	}
	return info, nil
}
