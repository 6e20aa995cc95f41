// Package ui draws the camera frame, the color wheel and its controls with ebiten.
package ui

import (
	"fmt"
	"image"
	"math"

	"github.com/ayusman/pinchwheel/internal/wheel"
)

// PointerAngle is the screen angle of the top pointer, in degrees with y down.
const PointerAngle = 270

const (
	buttonWidth   = 160
	buttonHeight  = 44
	buttonGap     = 16
	colorBoxSize  = 56
	grabRatio     = 0.3
	pointerLength = 24
)

// Layout is the screen geometry shared by the renderer and the application loop.
type Layout struct {
	Width, Height int

	CenterX, CenterY float64
	Radius           float64

	Button   image.Rectangle
	ColorBox image.Rectangle
}

// NewLayout places the spin button under the wheel, kept inside the screen,
// and the selected color box in the top left corner under the status text.
func NewLayout(width, height int, cx, cy, radius float64) Layout {
	bx := int(math.Round(cx)) - buttonWidth/2
	by := int(math.Round(cy+radius)) + buttonGap
	if by+buttonHeight > height-4 {
		by = height - 4 - buttonHeight
	}
	bx = max(4, min(bx, width-4-buttonWidth))

	return Layout{
		Width:    width,
		Height:   height,
		CenterX:  cx,
		CenterY:  cy,
		Radius:   radius,
		Button:   image.Rect(bx, by, bx+buttonWidth, by+buttonHeight),
		ColorBox: image.Rect(10, 50, 10+colorBoxSize, 50+colorBoxSize),
	}
}

// InButton reports whether the screen point lies on the spin button.
func (l Layout) InButton(x, y float64) bool {
	return image.Pt(int(math.Floor(x)), int(math.Floor(y))).In(l.Button)
}

// GrabRadius is the radius of the center grab disc.
func (l Layout) GrabRadius() float64 {
	return l.Radius * grabRatio
}

// WedgeSpan returns the screen angles, in degrees, covered by segment k of n at
// the given wheel angle. Segments are laid out against the direction of
// rotation so the segment under the pointer is wheel.SegmentIndex(angle, n).
func WedgeSpan(k, n int, angle float64) (start, end float64) {
	span := 360 / float64(n)
	end = PointerAngle + angle - float64(k)*span
	start = end - span
	return start, end
}

// SegmentAt returns the segment drawn at the given screen angle.
func SegmentAt(screenAngle, angle float64, n int) int {
	return wheel.SegmentIndex(PointerAngle+angle-screenAngle, n)
}

// ButtonState is how the spin button is drawn.
type ButtonState int

const (
	ButtonNormal ButtonState = iota
	ButtonHovered
	ButtonPressed
	ButtonSpinning
)

// ButtonStateFor picks the button look. Spinning wins over pressed, pressed
// over hovered.
func ButtonStateFor(spinning, hovered, pressed bool) ButtonState {
	switch {
	case spinning:
		return ButtonSpinning
	case pressed:
		return ButtonPressed
	case hovered:
		return ButtonHovered
	default:
		return ButtonNormal
	}
}

func (b ButtonState) label() string {
	if b == ButtonSpinning {
		return "SPINNING..."
	}
	return "SPIN!"
}

// StatusLine summarizes the wheel for the top of the screen.
func StatusLine(s wheel.State, tracking, nearWheel, hoverButton bool) string {
	line := fmt.Sprintf("Colors: %d | Angle: %d", s.Segments, int(s.Angle))
	switch {
	case !tracking:
		line += " | tracking paused"
	case s.IsSpinning():
		line += " | spinning"
	case s.Phase == wheel.ManualDrag:
		line += " | grabbing"
	case hoverButton:
		line += " | pinch to spin"
	case nearWheel:
		line += " | pinch to grab"
	}
	return line
}
