package detector

import (
	"gocv.io/x/gocv"
)

// DefaultMaxReuse is how many consecutive still frames may reuse a cached result
// before the wrapped detector is consulted anyway.
const DefaultMaxReuse = 10

// MotionSensor reports whether a frame differs from the previous one.
type MotionSensor interface {
	Detect(frame *gocv.Mat) (bool, float64)
}

// MotionGated wraps a Detector and skips inference while the scene is still,
// returning the last detected hands instead. A pinch held perfectly still stays
// a pinch.
type MotionGated struct {
	inner    Detector
	sensor   MotionSensor
	maxReuse int

	last   []HandLandmarks
	primed bool
	reused int
}

// NewMotionGated creates a gated detector. maxReuse <= 0 uses DefaultMaxReuse.
func NewMotionGated(inner Detector, sensor MotionSensor, maxReuse int) *MotionGated {
	if maxReuse <= 0 {
		maxReuse = DefaultMaxReuse
	}
	return &MotionGated{
		inner:    inner,
		sensor:   sensor,
		maxReuse: maxReuse,
	}
}

// Detect returns cached hands for still frames and fresh results otherwise.
// The sensor always sees the frame so its baseline stays current.
func (g *MotionGated) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	moved, _ := g.sensor.Detect(frame)

	if g.primed && !moved && g.reused < g.maxReuse {
		g.reused++
		return g.last, nil
	}

	hands, err := g.inner.Detect(frame)
	if err != nil {
		g.primed = false
		return nil, err
	}

	g.last = hands
	g.primed = true
	g.reused = 0
	return hands, nil
}

// Close closes the wrapped detector and the sensor if it holds resources.
func (g *MotionGated) Close() error {
	if c, ok := g.sensor.(interface{ Close() }); ok {
		c.Close()
	}
	return g.inner.Close()
}
