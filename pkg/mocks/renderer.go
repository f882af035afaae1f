package mocks

import (
	"image"
	"image/color"

	"github.com/user/framereader/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)

	// Canvases records every canvas created by the default CreateCanvas.
	Canvases []*Canvas
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	c := &Canvas{Width: width, Height: height}
	m.Canvases = append(m.Canvases, c)
	return c
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte("encoded"), nil
}

var _ ports.Renderer = (*Renderer)(nil)

// DrawCall records a DrawImage call.
type DrawCall struct {
	Image image.Image
	X, Y  int
}

// Canvas is a mock implementation of ports.Canvas.
type Canvas struct {
	Width  int
	Height int

	Draws []DrawCall
	Texts []string
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {
	m.Draws = append(m.Draws, DrawCall{Image: img, X: x, Y: y})
}

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) {}

func (m *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	m.Texts = append(m.Texts, text)
}

func (m *Canvas) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
}

var _ ports.Canvas = (*Canvas)(nil)
