package detector

import (
	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands ...HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PinchLandmarks returns a right hand whose thumb and index tips meet around
// (x, y), in normalized frame coordinates, with the given tip separation.
func PinchLandmarks(x, y, separation float64) HandLandmarks {
	h := handAt(x, y)

	half := separation / 2
	h.Points[ThumbIP] = Point3D{X: x - half - 0.03, Y: y + 0.04, Z: -0.01}
	h.Points[ThumbTip] = Point3D{X: x - half, Y: y, Z: -0.02}
	h.Points[IndexDIP] = Point3D{X: x + half + 0.02, Y: y - 0.04, Z: -0.02}
	h.Points[IndexTip] = Point3D{X: x + half, Y: y, Z: -0.02}

	return h
}

// OpenHandLandmarks returns a right hand with fingers spread, index tip at (x, y).
func OpenHandLandmarks(x, y float64) HandLandmarks {
	h := handAt(x, y)

	h.Points[ThumbIP] = Point3D{X: x - 0.12, Y: y + 0.19, Z: 0.03}
	h.Points[ThumbTip] = Point3D{X: x - 0.15, Y: y + 0.17, Z: 0.03}

	return h
}

// handAt lays out a plausible palm below and to the right of (x, y).
func handAt(x, y float64) HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: x - 0.02, Y: y + 0.30, Z: 0}
	h.Points[ThumbCMC] = Point3D{X: x - 0.08, Y: y + 0.26, Z: 0.01}
	h.Points[ThumbMCP] = Point3D{X: x - 0.10, Y: y + 0.20, Z: 0.02}
	h.Points[ThumbIP] = Point3D{X: x - 0.08, Y: y + 0.12, Z: 0.02}
	h.Points[ThumbTip] = Point3D{X: x - 0.06, Y: y + 0.06, Z: 0.02}
	h.Points[IndexMCP] = Point3D{X: x - 0.01, Y: y + 0.16, Z: 0}
	h.Points[IndexPIP] = Point3D{X: x, Y: y + 0.10, Z: 0}
	h.Points[IndexDIP] = Point3D{X: x, Y: y + 0.05, Z: 0}
	h.Points[IndexTip] = Point3D{X: x, Y: y, Z: 0}

	for finger, mcp := range []int{MiddleMCP, RingMCP, PinkyMCP} {
		dx := 0.03 * float64(finger+1)
		h.Points[mcp] = Point3D{X: x + dx, Y: y + 0.17, Z: 0}
		h.Points[mcp+1] = Point3D{X: x + dx, Y: y + 0.11, Z: 0}
		h.Points[mcp+2] = Point3D{X: x + dx, Y: y + 0.07, Z: 0}
		h.Points[mcp+3] = Point3D{X: x + dx, Y: y + 0.03, Z: 0}
	}

	return h
}
