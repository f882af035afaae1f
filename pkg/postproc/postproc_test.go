package postproc

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/user/framereader/pkg/adapters/logger"
	"github.com/user/framereader/pkg/frame"
	"github.com/user/framereader/pkg/ports"
	"github.com/user/framereader/pkg/video"
)

func uniform(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// striped returns a picture whose even lines are white and odd lines black.
func striped(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		c := color.RGBA{A: 255}
		if y%2 == 0 {
			c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
		}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestPipeline_Execute(t *testing.T) {
	pool := frame.NewPool()
	p := New(pool, logger.NewNoop())

	in := Input{
		Picture:   ports.Picture{Image: uniform(32, 24, color.RGBA{R: 200, G: 100, B: 50, A: 255})},
		Timestamp: 3600,
		Size:      video.Size{Width: 16, Height: 12},
		Format:    video.PixelFormatRGBA32,
	}

	f, err := p.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer f.Release()

	if f.Timestamp != 3600 {
		t.Errorf("expected timestamp 3600, got %d", f.Timestamp)
	}
	if f.Size() != in.Size {
		t.Errorf("expected size %s, got %s", in.Size, f.Size())
	}
	if got := f.Bytes()[:4]; got[0] != 200 || got[1] != 100 || got[2] != 50 || got[3] != 255 {
		t.Errorf("unexpected first pixel %v", got)
	}
}

func TestPipeline_Formats(t *testing.T) {
	src := uniform(8, 8, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	tests := []struct {
		format video.PixelFormat
		want   []byte
	}{
		{video.PixelFormatRGBA32, []byte{10, 20, 30, 255}},
		{video.PixelFormatBGRA32, []byte{30, 20, 10, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			p := New(frame.NewPool(), logger.NewNoop())
			f, err := p.Execute(context.Background(), Input{
				Picture: ports.Picture{Image: src},
				Size:    video.Size{Width: 8, Height: 8},
				Format:  tt.format,
			})
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			defer f.Release()

			for i, b := range tt.want {
				if f.Bytes()[i] != b {
					t.Fatalf("expected %v, got %v", tt.want, f.Bytes()[:4])
				}
			}
		})
	}

	t.Run("gray", func(t *testing.T) {
		p := New(frame.NewPool(), logger.NewNoop())
		f, err := p.Execute(context.Background(), Input{
			Picture: ports.Picture{Image: uniform(8, 8, color.RGBA{R: 128, G: 128, B: 128, A: 255})},
			Size:    video.Size{Width: 8, Height: 8},
			Format:  video.PixelFormatGray8,
		})
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		defer f.Release()
		if len(f.Bytes()) != 64 || f.Bytes()[0] != 128 {
			t.Errorf("expected 64 gray bytes at 128, got %d bytes starting %d", len(f.Bytes()), f.Bytes()[0])
		}
	})
}

func TestPipeline_Deinterlace(t *testing.T) {
	p := New(frame.NewPool(), logger.NewNoop())
	in := Input{
		Picture:     ports.Picture{Image: striped(4, 8)},
		Size:        video.Size{Width: 4, Height: 8},
		Format:      video.PixelFormatRGBA32,
		Deinterlace: true,
	}

	f, err := p.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	defer f.Release()

	// Row 1 is black between two white rows: (255 + 0 + 255 + 2) / 4.
	row1 := f.Bytes()[f.Stride()]
	if row1 != 128 {
		t.Errorf("expected blended row at 128, got %d", row1)
	}
}

type failingDeinterlacer struct{ calls int }

func (d *failingDeinterlacer) Deinterlace(dst *image.RGBA, src image.Image) error {
	d.calls++
	return ErrDeinterlace
}

func TestPipeline_DeinterlaceFallback(t *testing.T) {
	d := &failingDeinterlacer{}
	p := New(frame.NewPool(), logger.NewNoop()).WithDeinterlacer(d)

	f, err := p.Execute(context.Background(), Input{
		Picture:     ports.Picture{Image: striped(4, 8)},
		Size:        video.Size{Width: 4, Height: 8},
		Format:      video.PixelFormatRGBA32,
		Deinterlace: true,
	})
	if err != nil {
		t.Fatalf("expected the original picture to be used, got %v", err)
	}
	defer f.Release()

	if d.calls != 1 {
		t.Errorf("expected one deinterlace attempt, got %d", d.calls)
	}
	if f.Bytes()[f.Stride()] != 0 {
		t.Errorf("expected original black row, got %d", f.Bytes()[f.Stride()])
	}
}

func TestPipeline_Errors(t *testing.T) {
	pool := frame.NewPool()
	p := New(pool, logger.NewNoop())

	tests := []struct {
		name string
		in   Input
	}{
		{"empty size", Input{Picture: ports.Picture{Image: uniform(4, 4, color.RGBA{})}, Format: video.PixelFormatRGBA32}},
		{"no picture", Input{Size: video.Size{Width: 4, Height: 4}, Format: video.PixelFormatRGBA32}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := p.Execute(context.Background(), tt.in)
			if !errors.Is(err, video.ErrImageNotConverted) {
				t.Errorf("expected ErrImageNotConverted, got %v", err)
			}
			if f != nil {
				t.Error("expected no frame")
			}
		})
	}

	if live := pool.Live(); live != 0 {
		t.Errorf("expected failed conversions to release their buffers, %d live", live)
	}
}

func TestConvertInto_Mismatch(t *testing.T) {
	p := New(frame.NewPool(), logger.NewNoop())
	dst := frame.New(0, video.Size{Width: 8, Height: 8}, video.PixelFormatRGBA32, nil)
	defer dst.Release()

	err := p.ConvertInto(Input{
		Picture: ports.Picture{Image: uniform(4, 4, color.RGBA{})},
		Size:    video.Size{Width: 4, Height: 4},
		Format:  video.PixelFormatRGBA32,
	}, dst)
	if !errors.Is(err, video.ErrImageNotConverted) {
		t.Errorf("expected ErrImageNotConverted, got %v", err)
	}
}

func TestLinearBlend_TooSmall(t *testing.T) {
	src := uniform(4, 2, color.RGBA{})
	dst := image.NewRGBA(src.Bounds())
	if err := (LinearBlend{}).Deinterlace(dst, src); !errors.Is(err, ErrDeinterlace) {
		t.Errorf("expected ErrDeinterlace, got %v", err)
	}
}

func TestParseQuality(t *testing.T) {
	if ParseQuality("nearest") != QualityNearest || ParseQuality("catmullrom") != QualityCatmullRom {
		t.Error("unexpected quality parse")
	}
	if ParseQuality("") != QualityBilinear {
		t.Error("expected bilinear default")
	}
}
