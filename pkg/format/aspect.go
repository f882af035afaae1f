package format

import (
	"github.com/user/framereader/pkg/ports"
	"github.com/user/framereader/pkg/video"
)

// PixelAspect derives the pixel aspect ratio from the container hint.
// MPEG-2 streams store the display aspect ratio in the hint, so the pixel
// aspect is back-derived from it and floored to the display ratio when below 1.
func PixelAspect(hint ports.Rational, mpeg2 bool, original video.Size) (float64, video.Fraction) {
	if hint.Num == 0 || hint.Den == 0 || hint.Num == hint.Den {
		return 1.0, video.Fraction{Num: 1, Den: 1}
	}

	sample := video.Fraction{Num: hint.Num, Den: hint.Den}
	ratio := hint.Float()
	if !mpeg2 {
		return ratio, sample
	}

	if original.Width <= 0 {
		return ratio, sample
	}
	par := float64(original.Height) * ratio / float64(original.Width)
	if par < 1.0 {
		par = ratio
	}
	return par, sample
}

// DecodingSize applies the aspect ratio policy to the original geometry.
// The width is rounded up to the next multiple of 4.
func DecodingSize(original video.Size, pixelAspect float64, policy video.AspectRatio) video.Size {
	width := original.Width
	var height int

	switch policy {
	case video.AspectForce43:
		height = width * 3 / 4
	case video.AspectForce169:
		height = width * 9 / 16
	case video.AspectForcedSquarePixels:
		height = original.Height
	default:
		if pixelAspect <= 0 {
			pixelAspect = 1
		}
		height = int(float64(original.Height) / pixelAspect)
	}

	if width%4 != 0 {
		width = 4 * (width/4 + 1)
	}
	return video.Size{Width: width, Height: height}
}
