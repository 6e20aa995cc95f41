package gesture

import (
	"math"
	"testing"

	"github.com/ayusman/pinchwheel/internal/detector"
)

const epsilon = 1e-9

func testConfig() Config {
	return Config{
		Enter:       0.05,
		Exit:        0.07,
		CenterX:     320,
		CenterY:     240,
		NearRadius:  240,
		FrameWidth:  640,
		FrameHeight: 480,
	}
}

func TestPinchDetector_Hysteresis(t *testing.T) {
	steps := []struct {
		name       string
		separation float64
		want       bool
		started    bool
	}{
		{"open hand", 0.20, false, false},
		{"between thresholds from open", 0.06, false, false},
		{"below enter", 0.04, true, true},
		{"held below enter", 0.03, true, false},
		{"between thresholds while pinching", 0.06, true, false},
		{"just below exit", 0.065, true, false},
		{"above exit", 0.08, false, false},
		{"between thresholds after release", 0.06, false, false},
		{"just above enter", 0.055, false, false},
		{"re-engage", 0.01, true, true},
	}

	p := NewPinchDetector(testConfig())
	for i, s := range steps {
		hand := detector.PinchLandmarks(0.5, 0.5, s.separation)
		r := p.Detect([]detector.HandLandmarks{hand}, int64(i*33))

		if r.IsPinching != s.want {
			t.Errorf("%s: IsPinching = %v, want %v (distance %f)", s.name, r.IsPinching, s.want, r.Distance)
		}
		if r.PinchStarted != s.started {
			t.Errorf("%s: PinchStarted = %v, want %v", s.name, r.PinchStarted, s.started)
		}
		if !r.HandPresent {
			t.Errorf("%s: HandPresent = false", s.name)
		}
		if r.TimestampMs != int64(i*33) {
			t.Errorf("%s: TimestampMs = %d, want %d", s.name, r.TimestampMs, i*33)
		}
	}
}

func TestPinchDetector_NoChatterAtMidpoint(t *testing.T) {
	p := NewPinchDetector(testConfig())
	p.Detect([]detector.HandLandmarks{detector.PinchLandmarks(0.5, 0.5, 0.01)}, 0)

	mid := detector.PinchLandmarks(0.5, 0.5, 0.06)
	for i := 0; i < 20; i++ {
		r := p.Detect([]detector.HandLandmarks{mid}, int64(i))
		if !r.IsPinching {
			t.Fatalf("frame %d: pinch dropped at the hysteresis midpoint", i)
		}
	}
}

func TestPinchDetector_NoHand(t *testing.T) {
	p := NewPinchDetector(testConfig())
	p.Detect([]detector.HandLandmarks{detector.PinchLandmarks(0.5, 0.5, 0.01)}, 0)

	r := p.Detect(nil, 33)

	if r.IsPinching || r.HandPresent {
		t.Errorf("no hand: IsPinching=%v HandPresent=%v, want false false", r.IsPinching, r.HandPresent)
	}
	if p.Pinching() {
		t.Error("hysteresis should reset when the hand is lost")
	}

	// Returning between thresholds must not resume the old pinch.
	r = p.Detect([]detector.HandLandmarks{detector.PinchLandmarks(0.5, 0.5, 0.06)}, 66)
	if r.IsPinching {
		t.Error("pinch resumed after the hand was lost")
	}
}

func TestPinchDetector_MalformedHand(t *testing.T) {
	p := NewPinchDetector(testConfig())
	p.Detect([]detector.HandLandmarks{detector.PinchLandmarks(0.5, 0.5, 0.01)}, 0)

	bad := detector.PinchLandmarks(0.5, 0.5, 0.01)
	bad.Points[detector.IndexTip].X = math.NaN()

	r := p.Detect([]detector.HandLandmarks{bad}, 33)
	if r.IsPinching || r.HandPresent {
		t.Error("malformed landmarks should read as no pinch and no hand")
	}
	if p.Pinching() {
		t.Error("malformed landmarks should reset the hysteresis")
	}
}

func TestPinchDetector_FirstValidHandWins(t *testing.T) {
	p := NewPinchDetector(testConfig())

	bad := detector.PinchLandmarks(0.1, 0.1, 0.01)
	bad.Points[detector.ThumbTip] = detector.Point3D{}
	open := detector.OpenHandLandmarks(0.5, 0.5)
	pinch := detector.PinchLandmarks(0.8, 0.5, 0.01)

	r := p.Detect([]detector.HandLandmarks{bad, open, pinch}, 0)

	if r.IsPinching {
		t.Error("second hand's pinch should be ignored when the first valid hand is open")
	}
	if !r.HandPresent {
		t.Error("open hand should count as present")
	}
}

func TestPinchDetector_Anchor(t *testing.T) {
	p := NewPinchDetector(testConfig())

	// Tips meet at (0.75, 0.5) -> (480, 240) px, directly right of center.
	r := p.Detect([]detector.HandLandmarks{detector.PinchLandmarks(0.75, 0.5, 0.02)}, 0)

	if math.Abs(r.X-480) > 1e-6 || math.Abs(r.Y-240) > 1e-6 {
		t.Errorf("anchor = (%f, %f), want (480, 240)", r.X, r.Y)
	}
	if math.Abs(r.AnchorAngle) > 1e-6 {
		t.Errorf("AnchorAngle = %f, want 0", r.AnchorAngle)
	}
	if !r.NearWheel {
		t.Error("anchor 160px from center should be near the wheel")
	}
	if math.Abs(r.ThumbX-(0.74*640)) > 1e-6 || math.Abs(r.IndexX-(0.76*640)) > 1e-6 {
		t.Errorf("tip x = %f/%f", r.ThumbX, r.IndexX)
	}
}

func TestPinchDetector_NearWheel(t *testing.T) {
	cfg := testConfig()
	cfg.NearRadius = 100
	p := NewPinchDetector(cfg)

	near := p.Detect([]detector.HandLandmarks{detector.PinchLandmarks(0.55, 0.5, 0.02)}, 0)
	far := p.Detect([]detector.HandLandmarks{detector.PinchLandmarks(0.95, 0.5, 0.02)}, 0)

	if !near.NearWheel {
		t.Error("anchor 32px from center should be near")
	}
	if far.NearWheel {
		t.Error("anchor 288px from center should not be near")
	}
}

func TestAnchorAngle(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want float64
	}{
		{"right", 10, 0, 0},
		{"below (screen)", 0, 10, 90},
		{"left", -10, 0, 180},
		{"above (screen)", 0, -10, 270},
		{"lower left", -10, 10, 135},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnchorAngle(tt.x, tt.y, 0, 0)
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("AnchorAngle = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestPinchDetector_Reset(t *testing.T) {
	p := NewPinchDetector(testConfig())
	p.Detect([]detector.HandLandmarks{detector.PinchLandmarks(0.5, 0.5, 0.01)}, 0)

	p.Reset()

	if p.Pinching() {
		t.Error("Reset should release the pinch")
	}
}
