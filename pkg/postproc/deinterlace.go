package postproc

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

// ErrDeinterlace is returned when a picture cannot be deinterlaced.
var ErrDeinterlace = errors.New("postproc: deinterlace failed")

// Deinterlacer removes interlacing artefacts from src into dst.
// dst has the size of src.
type Deinterlacer interface {
	Deinterlace(dst *image.RGBA, src image.Image) error
}

// LinearBlend averages each line with its neighbours (1-2-1 vertical filter).
type LinearBlend struct{}

// Deinterlace implements Deinterlacer.
func (LinearBlend) Deinterlace(dst *image.RGBA, src image.Image) error {
	b := src.Bounds()
	if b.Dx() < 1 || b.Dy() < 3 || dst.Bounds().Size() != b.Size() {
		return ErrDeinterlace
	}

	in := toRGBA(src)
	w, h := b.Dx(), b.Dy()
	rowBytes := w * 4
	row := func(y int) []byte {
		off := in.PixOffset(in.Rect.Min.X, in.Rect.Min.Y+y)
		return in.Pix[off : off+rowBytes]
	}

	for y := 0; y < h; y++ {
		above, cur, below := row(max(y-1, 0)), row(y), row(min(y+1, h-1))
		off := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		out := dst.Pix[off : off+rowBytes]
		for x := range out {
			out[x] = uint8((int(above[x]) + 2*int(cur[x]) + int(below[x]) + 2) / 4)
		}
	}
	return nil
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return rgba
}
