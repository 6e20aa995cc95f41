package wheel

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette returns n colors with evenly spaced hues at full saturation and value.
// Index i is the color of segment i.
func Palette(n int) []color.RGBA {
	if n <= 0 {
		return nil
	}
	colors := make([]color.RGBA, n)
	for i := range colors {
		r, g, b := colorful.Hsv(360*float64(i)/float64(n), 1, 1).RGB255()
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// SelectedColor returns the palette color of the selected segment.
func (s State) SelectedColor() color.RGBA {
	p := Palette(s.Segments)
	if len(p) == 0 {
		return color.RGBA{A: 255}
	}
	return p[s.Selected%len(p)]
}
