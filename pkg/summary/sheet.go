package summary

import (
	"fmt"
	"image"
	"image/color"

	"github.com/user/framereader/pkg/ports"
)

// SheetOptions controls the contact sheet layout.
type SheetOptions struct {
	Title      string
	Columns    int
	Gap        int
	FontSize   float64
	FontPath   string
	Background color.Color
	TextColor  color.Color
}

// Sheet lays the thumbnails of a summary out in a grid, each captioned with
// its approximate position in the file.
func Sheet(r ports.Renderer, sum Summary, opts SheetOptions) (image.Image, error) {
	if len(sum.Thumbnails) == 0 {
		return nil, fmt.Errorf("no thumbnails")
	}
	if opts.Columns < 1 {
		opts.Columns = 1
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 12
	}

	var cellW, cellH int
	for _, t := range sum.Thumbnails {
		b := t.Bounds()
		cellW = max(cellW, b.Dx())
		cellH = max(cellH, b.Dy())
	}
	caption := int(opts.FontSize) + opts.Gap/2
	header := 0
	if opts.Title != "" {
		header = int(opts.FontSize) + opts.Gap
	}

	cols := min(opts.Columns, len(sum.Thumbnails))
	rows := (len(sum.Thumbnails) + cols - 1) / cols
	width := cols*cellW + (cols+1)*opts.Gap
	height := header + rows*(cellH+caption) + (rows+1)*opts.Gap

	canvas := r.CreateCanvas(width, height, opts.Background)
	style := ports.TextStyle{FontSize: opts.FontSize, FontPath: opts.FontPath, Color: opts.TextColor}

	if opts.Title != "" {
		canvas.DrawText(opts.Title, opts.Gap, opts.Gap, style)
	}

	for i, thumb := range sum.Thumbnails {
		col, row := i%cols, i/cols
		x := opts.Gap + col*(cellW+opts.Gap)
		y := header + opts.Gap + row*(cellH+caption+opts.Gap)

		b := thumb.Bounds()
		canvas.DrawImage(thumb, x+(cellW-b.Dx())/2, y+(cellH-b.Dy())/2)
		canvas.DrawText(formatPosition(sum.DurationMs*int64(i)/int64(len(sum.Thumbnails))), x, y+cellH+opts.Gap/4, style)
	}

	return canvas.ToImage(), nil
}

// formatPosition renders milliseconds as mm:ss.mmm.
func formatPosition(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}
