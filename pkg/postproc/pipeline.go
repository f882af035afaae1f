// Package postproc turns raw decoded pictures into delivered frames:
// optional deinterlacing, then scaling and pixel format conversion.
package postproc

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/user/framereader/pkg/frame"
	"github.com/user/framereader/pkg/metrics"
	"github.com/user/framereader/pkg/pipeline"
	"github.com/user/framereader/pkg/ports"
	"github.com/user/framereader/pkg/video"
)

// Quality selects the scaling kernel.
type Quality int

const (
	QualityBilinear Quality = iota
	QualityNearest
	QualityCatmullRom
)

// ParseQuality parses a string into a Quality. Unknown values map to bilinear.
func ParseQuality(s string) Quality {
	switch s {
	case "nearest":
		return QualityNearest
	case "catmullrom":
		return QualityCatmullRom
	default:
		return QualityBilinear
	}
}

func (q Quality) interpolator() draw.Interpolator {
	switch q {
	case QualityNearest:
		return draw.NearestNeighbor
	case QualityCatmullRom:
		return draw.CatmullRom
	default:
		return draw.ApproxBiLinear
	}
}

// Input is one picture to post-process.
type Input struct {
	Picture     ports.Picture
	Timestamp   int64
	Size        video.Size
	Format      video.PixelFormat
	Deinterlace bool
}

// Pipeline deinterlaces, scales and converts pictures.
type Pipeline struct {
	pool         *frame.Pool
	deinterlacer Deinterlacer
	scaler       draw.Interpolator
	logger       ports.Logger
}

// New creates a pipeline allocating frames from pool.
func New(pool *frame.Pool, logger ports.Logger) *Pipeline {
	return &Pipeline{
		pool:         pool,
		deinterlacer: LinearBlend{},
		scaler:       QualityBilinear.interpolator(),
		logger:       logger.WithComponent(ports.ComponentPostproc),
	}
}

// WithDeinterlacer replaces the deinterlace transform.
func (p *Pipeline) WithDeinterlacer(d Deinterlacer) *Pipeline {
	p.deinterlacer = d
	return p
}

// WithQuality sets the scaling kernel.
func (p *Pipeline) WithQuality(q Quality) *Pipeline {
	p.scaler = q.interpolator()
	return p
}

// Execute converts the picture into a newly allocated frame.
// On failure the frame buffer is released before returning.
func (p *Pipeline) Execute(ctx context.Context, in Input) (*frame.Frame, error) {
	if in.Size.Empty() {
		metrics.ConversionFailures.Inc()
		return nil, fmt.Errorf("%w: empty target size %s", video.ErrImageNotConverted, in.Size)
	}

	f := frame.New(in.Timestamp, in.Size, in.Format, p.pool)
	if err := p.ConvertInto(in, f); err != nil {
		f.Release()
		return nil, err
	}
	return f, nil
}

// ConvertInto writes the converted picture into dst, which must match the
// target geometry and format.
func (p *Pipeline) ConvertInto(in Input, dst *frame.Frame) error {
	src := in.Picture.Image
	if src == nil || src.Bounds().Empty() {
		metrics.ConversionFailures.Inc()
		return fmt.Errorf("%w: empty picture", video.ErrImageNotConverted)
	}
	if dst.Size() != in.Size || dst.Format() != in.Format {
		metrics.ConversionFailures.Inc()
		return fmt.Errorf("%w: target buffer mismatch", video.ErrImageNotConverted)
	}

	if in.Deinterlace {
		b := src.Bounds()
		scratch := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		if err := p.deinterlacer.Deinterlace(scratch, src); err != nil {
			metrics.DeinterlaceFallbacks.Inc()
			p.logger.Warn("Deinterlace failed, using original picture: %v", err)
		} else {
			src = scratch
		}
	}

	rect := image.Rect(0, 0, in.Size.Width, in.Size.Height)
	err := dst.Write(func(pix []byte) {
		var target draw.Image
		if in.Format == video.PixelFormatGray8 {
			target = &image.Gray{Pix: pix, Stride: dst.Stride(), Rect: rect}
		} else {
			target = &image.RGBA{Pix: pix, Stride: dst.Stride(), Rect: rect}
		}

		p.scaler.Scale(target, rect, src, src.Bounds(), draw.Src, nil)

		if in.Format == video.PixelFormatBGRA32 {
			frame.SwapRedBlue(pix)
		}
	})
	if err != nil {
		metrics.ConversionFailures.Inc()
		return fmt.Errorf("%w: target buffer mismatch: %v", video.ErrImageNotConverted, err)
	}
	dst.Timestamp = in.Timestamp
	return nil
}

var _ pipeline.Stage[Input, *frame.Frame] = (*Pipeline)(nil)
