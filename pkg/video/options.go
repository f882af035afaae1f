package video

// AspectRatio selects how the decoding height is derived.
type AspectRatio int

const (
	// AspectAuto derives the height from the pixel aspect ratio.
	AspectAuto AspectRatio = iota
	// AspectForce43 forces a 4:3 display.
	AspectForce43
	// AspectForce169 forces a 16:9 display.
	AspectForce169
	// AspectForcedSquarePixels keeps the stored height.
	AspectForcedSquarePixels
)

// String returns the string representation of the aspect ratio policy.
func (a AspectRatio) String() string {
	switch a {
	case AspectForce43:
		return "4:3"
	case AspectForce169:
		return "16:9"
	case AspectForcedSquarePixels:
		return "square"
	default:
		return "auto"
	}
}

// ParseAspectRatio parses a string into an AspectRatio. Unknown values map to AspectAuto.
func ParseAspectRatio(s string) AspectRatio {
	switch s {
	case "4:3", "force43":
		return AspectForce43
	case "16:9", "force169":
		return AspectForce169
	case "square", "forcedsquarepixels":
		return AspectForcedSquarePixels
	default:
		return AspectAuto
	}
}

// PixelFormat is the memory layout of delivered frames.
type PixelFormat int

const (
	PixelFormatRGBA32 PixelFormat = iota
	PixelFormatBGRA32
	PixelFormatGray8
)

// BytesPerPixel returns the pixel stride of the format.
func (p PixelFormat) BytesPerPixel() int {
	if p == PixelFormatGray8 {
		return 1
	}
	return 4
}

// String returns the string representation of the pixel format.
func (p PixelFormat) String() string {
	switch p {
	case PixelFormatBGRA32:
		return "bgra"
	case PixelFormatGray8:
		return "gray"
	default:
		return "rgba"
	}
}

// ParsePixelFormat parses a string into a PixelFormat. Unknown values map to RGBA.
func ParsePixelFormat(s string) PixelFormat {
	switch s {
	case "bgra":
		return PixelFormatBGRA32
	case "gray":
		return PixelFormatGray8
	default:
		return PixelFormatRGBA32
	}
}

// BytesPerFrame returns the size of one frame buffer.
func BytesPerFrame(size Size, format PixelFormat) int {
	if size.Empty() {
		return 0
	}
	return size.Width * size.Height * format.BytesPerPixel()
}
