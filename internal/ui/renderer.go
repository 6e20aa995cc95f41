package ui

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"gocv.io/x/gocv"

	"github.com/ayusman/pinchwheel/internal/gesture"
	"github.com/ayusman/pinchwheel/internal/wheel"
)

// arcStep is the angular resolution of wedge edges, in degrees.
const arcStep = 3

var (
	colorBlack    = color.RGBA{A: 255}
	colorWhite    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorGray     = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	colorLight    = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	colorGreen    = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	colorBright   = color.RGBA{R: 0, G: 255, B: 100, A: 255}
	colorDark     = color.RGBA{R: 0, G: 120, B: 0, A: 255}
	colorYellow   = color.RGBA{R: 255, G: 220, B: 0, A: 255}
	colorRed      = color.RGBA{R: 230, G: 40, B: 40, A: 255}
	colorGrab     = color.RGBA{R: 120, G: 230, B: 120, A: 255}
	colorShadow   = color.RGBA{R: 20, G: 20, B: 20, A: 160}
	colorBackdrop = color.RGBA{R: 0, G: 0, B: 0, A: 140}
)

// View is everything the renderer needs for one frame.
type View struct {
	State    wheel.State
	Palette  []color.RGBA
	Reading  gesture.Reading
	Button   ButtonState
	Tracking bool
	Hovering bool
}

// Renderer draws Views onto the ebiten screen. It holds the last camera frame.
type Renderer struct {
	layout Layout

	white *ebiten.Image
	frame *ebiten.Image
	rgba  gocv.Mat
}

// NewRenderer creates a renderer for the given layout.
func NewRenderer(layout Layout) *Renderer {
	white := ebiten.NewImage(3, 3)
	white.Fill(color.White)

	return &Renderer{
		layout: layout,
		white:  white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image),
		rgba:   gocv.NewMat(),
	}
}

// Layout returns the renderer's screen geometry.
func (r *Renderer) Layout() Layout {
	return r.layout
}

// SetFrame uploads a BGR camera frame as the background image.
func (r *Renderer) SetFrame(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}

	gocv.CvtColor(*frame, &r.rgba, gocv.ColorBGRToRGBA)
	w, h := r.rgba.Cols(), r.rgba.Rows()

	if r.frame == nil || r.frame.Bounds().Dx() != w || r.frame.Bounds().Dy() != h {
		if r.frame != nil {
			r.frame.Deallocate()
		}
		r.frame = ebiten.NewImage(w, h)
	}
	r.frame.WritePixels(r.rgba.ToBytes())
}

// Close releases the conversion buffer.
func (r *Renderer) Close() {
	r.rgba.Close()
}

// Draw renders the whole scene.
func (r *Renderer) Draw(screen *ebiten.Image, v View) {
	screen.Fill(colorBlack)
	r.drawFrame(screen)

	r.drawWheel(screen, v)
	r.drawPointer(screen)
	r.drawColorBox(screen, v)
	r.drawButton(screen, v.Button)
	if v.Tracking && v.Reading.HandPresent {
		r.drawHand(screen, v)
	}
	r.drawText(screen, v)
}

func (r *Renderer) drawFrame(screen *ebiten.Image) {
	if r.frame == nil {
		return
	}

	op := &ebiten.DrawImageOptions{}
	b := r.frame.Bounds()
	op.GeoM.Scale(float64(r.layout.Width)/float64(b.Dx()), float64(r.layout.Height)/float64(b.Dy()))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(r.frame, op)
}

func (r *Renderer) drawWheel(screen *ebiten.Image, v View) {
	l := r.layout
	n := v.State.Segments
	if n <= 0 || len(v.Palette) < n {
		return
	}

	for k := 0; k < n; k++ {
		start, end := WedgeSpan(k, n, v.State.Angle)
		r.fillWedge(screen, start, end, v.Palette[k])
	}

	for k := 0; k < n; k++ {
		start, _ := WedgeSpan(k, n, v.State.Angle)
		x, y := l.point(start, l.Radius)
		vector.StrokeLine(screen, float32(l.CenterX), float32(l.CenterY), float32(x), float32(y), 2, colorBlack, true)
	}
	vector.StrokeCircle(screen, float32(l.CenterX), float32(l.CenterY), float32(l.Radius), 2, colorBlack, true)

	// Highlight the selected wedge's rim.
	start, end := WedgeSpan(v.State.Selected, n, v.State.Angle)
	r.strokeArc(screen, start, end, l.Radius+4, 4, colorWhite)

	grab := colorLight
	if v.Reading.NearWheel && !v.Hovering {
		grab = colorGrab
	}
	gr := float32(l.GrabRadius())
	vector.DrawFilledCircle(screen, float32(l.CenterX), float32(l.CenterY), gr, grab, true)
	vector.StrokeCircle(screen, float32(l.CenterX), float32(l.CenterY), gr, 2, colorBlack, true)
	ebitenutil.DebugPrintAt(screen, "GRAB", int(l.CenterX)-12, int(l.CenterY)-8)
}

// fillWedge fills a pie slice with a triangle fan from the wheel center.
func (r *Renderer) fillWedge(screen *ebiten.Image, start, end float64, c color.RGBA) {
	l := r.layout
	steps := max(1, int(math.Ceil((end-start)/arcStep)))

	cr, cg, cb, ca := float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, float32(c.A)/255
	vertex := func(x, y float64) ebiten.Vertex {
		return ebiten.Vertex{
			DstX: float32(x), DstY: float32(y),
			SrcX: 1, SrcY: 1,
			ColorR: cr, ColorG: cg, ColorB: cb, ColorA: ca,
		}
	}

	vs := make([]ebiten.Vertex, 0, steps+2)
	is := make([]uint16, 0, steps*3)
	vs = append(vs, vertex(l.CenterX, l.CenterY))
	for i := 0; i <= steps; i++ {
		a := start + (end-start)*float64(i)/float64(steps)
		x, y := l.point(a, l.Radius)
		vs = append(vs, vertex(x, y))
		if i > 0 {
			is = append(is, 0, uint16(i), uint16(i+1))
		}
	}

	op := &ebiten.DrawTrianglesOptions{AntiAlias: true}
	screen.DrawTriangles(vs, is, r.white, op)
}

func (r *Renderer) strokeArc(screen *ebiten.Image, start, end, radius float64, width float32, c color.RGBA) {
	l := r.layout
	steps := max(1, int(math.Ceil((end-start)/arcStep)))
	px, py := l.point(start, radius)
	for i := 1; i <= steps; i++ {
		x, y := l.point(start+(end-start)*float64(i)/float64(steps), radius)
		vector.StrokeLine(screen, float32(px), float32(py), float32(x), float32(y), width, c, true)
		px, py = x, y
	}
}

func (r *Renderer) drawPointer(screen *ebiten.Image) {
	l := r.layout
	tipY := l.CenterY - l.Radius + 6
	baseY := tipY - pointerLength
	half := float64(pointerLength) / 2

	var p vector.Path
	p.MoveTo(float32(l.CenterX), float32(tipY))
	p.LineTo(float32(l.CenterX-half), float32(baseY))
	p.LineTo(float32(l.CenterX+half), float32(baseY))
	p.Close()

	vs, is := p.AppendVerticesAndIndicesForFilling(nil, nil)
	for i := range vs {
		vs[i].SrcX, vs[i].SrcY = 1, 1
		vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = 1, 1, 1, 1
	}
	screen.DrawTriangles(vs, is, r.white, &ebiten.DrawTrianglesOptions{AntiAlias: true})

	vector.StrokeLine(screen, float32(l.CenterX), float32(tipY), float32(l.CenterX-half), float32(baseY), 2, colorBlack, true)
	vector.StrokeLine(screen, float32(l.CenterX), float32(tipY), float32(l.CenterX+half), float32(baseY), 2, colorBlack, true)
	vector.StrokeLine(screen, float32(l.CenterX-half), float32(baseY), float32(l.CenterX+half), float32(baseY), 2, colorBlack, true)
}

func (r *Renderer) drawColorBox(screen *ebiten.Image, v View) {
	box := r.layout.ColorBox
	x, y := float32(box.Min.X), float32(box.Min.Y)
	w, h := float32(box.Dx()), float32(box.Dy())

	vector.DrawFilledRect(screen, x, y, w, h, colorWhite, false)
	if v.State.Selected < len(v.Palette) {
		vector.DrawFilledRect(screen, x+4, y+4, w-8, h-8, v.Palette[v.State.Selected], false)
	}
	vector.StrokeRect(screen, x, y, w, h, 2, colorBlack, false)
	ebitenutil.DebugPrintAt(screen, "SELECTED", box.Min.X, box.Max.Y+2)
}

func (r *Renderer) drawButton(screen *ebiten.Image, state ButtonState) {
	b := r.layout.Button
	x, y := float32(b.Min.X), float32(b.Min.Y)
	w, h := float32(b.Dx()), float32(b.Dy())

	var bg color.RGBA
	border := float32(3)
	switch state {
	case ButtonSpinning:
		bg = colorGray
	case ButtonPressed:
		bg = colorDark
	case ButtonHovered:
		bg = colorBright
		border = 5
	default:
		bg = colorGreen
	}

	vector.DrawFilledRect(screen, x+4, y+4, w, h, colorShadow, false)
	vector.DrawFilledRect(screen, x, y, w, h, bg, false)
	vector.StrokeRect(screen, x, y, w, h, border, colorWhite, false)

	label := state.label()
	textWidth := len(label) * 6
	ebitenutil.DebugPrintAt(screen, label, b.Min.X+(b.Dx()-textWidth)/2, b.Min.Y+(b.Dy()-16)/2)
}

func (r *Renderer) drawHand(screen *ebiten.Image, v View) {
	rd := v.Reading

	tip := colorYellow
	width := float32(2)
	if rd.IsPinching {
		tip = colorGreen
		width = 3
	}
	vector.StrokeLine(screen, float32(rd.ThumbX), float32(rd.ThumbY), float32(rd.IndexX), float32(rd.IndexY), width, tip, true)
	vector.DrawFilledCircle(screen, float32(rd.ThumbX), float32(rd.ThumbY), 6, tip, true)
	vector.DrawFilledCircle(screen, float32(rd.IndexX), float32(rd.IndexY), 6, tip, true)

	switch {
	case v.Hovering:
	case rd.NearWheel:
		vector.DrawFilledCircle(screen, float32(rd.X), float32(rd.Y), 12, colorGreen, true)
		vector.StrokeCircle(screen, float32(rd.X), float32(rd.Y), 12, 2, colorWhite, true)
	default:
		vector.DrawFilledCircle(screen, float32(rd.X), float32(rd.Y), 8, colorRed, true)
	}
}

func (r *Renderer) drawText(screen *ebiten.Image, v View) {
	vector.DrawFilledRect(screen, 0, 0, float32(r.layout.Width), 40, colorBackdrop, false)
	ebitenutil.DebugPrintAt(screen, "Hand-Controlled Color Wheel", 10, 4)
	ebitenutil.DebugPrintAt(screen, StatusLine(v.State, v.Tracking, v.Reading.NearWheel, v.Hovering), 10, 20)

	help := []string{
		"Pinch thumb + index on the wheel to turn it",
		"Pinch over SPIN or press Space to spin",
		"+/- colors | t tracking | q quit",
	}
	y := r.layout.Height - 16*len(help) - 4
	for _, line := range help {
		ebitenutil.DebugPrintAt(screen, line, 10, y)
		y += 16
	}
}

// point returns the screen position at a screen angle and distance from the wheel center.
func (l Layout) point(angle, radius float64) (float64, float64) {
	rad := angle * math.Pi / 180
	return l.CenterX + radius*math.Cos(rad), l.CenterY + radius*math.Sin(rad)
}
