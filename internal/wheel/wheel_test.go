package wheel

import (
	"math"
	"math/rand/v2"
	"testing"
)

const epsilon = 1e-9

func testConfig() Config {
	return Config{
		Segments:        8,
		MinSegments:     3,
		MaxSegments:     20,
		Deceleration:    0.01,
		MaxVelocity:     2.0,
		VelocityEpsilon: 0.001,
		SpinMin:         0.4,
		SpinMax:         0.9,
	}
}

func newTestWheel() *Wheel {
	return New(testConfig(), rand.New(rand.NewPCG(1, 2)))
}

func pinch(angle float64) PinchEvent {
	return PinchEvent{IsPinching: true, AnchorAngle: angle}
}

var released = PinchEvent{}

// drag grabs at from, moves to to over elapsedMs.
func drag(w *Wheel, s State, from, to, elapsedMs float64) State {
	s = w.Update(s, 16, pinch(from))
	return w.Update(s, elapsedMs, pinch(to))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{45, 45},
		{360, 0},
		{725, 5},
		{-90, 270},
		{-360, 0},
		{-1e-15, 0},
	}

	for _, tt := range tests {
		got := Normalize(tt.in)
		if math.Abs(got-tt.want) > epsilon {
			t.Errorf("Normalize(%g) = %g, want %g", tt.in, got, tt.want)
		}
		if got < 0 || got >= 360 {
			t.Errorf("Normalize(%g) = %g, outside [0, 360)", tt.in, got)
		}
	}
}

func TestAngleDelta(t *testing.T) {
	tests := []struct {
		name     string
		from, to float64
		want     float64
	}{
		{"forward", 10, 55, 45},
		{"backward", 55, 10, -45},
		{"wraps forward across zero", 350, 10, 20},
		{"wraps backward across zero", 10, 350, -20},
		{"half turn is positive", 0, 180, 180},
		{"negative inputs", -170, 170, -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AngleDelta(tt.from, tt.to); math.Abs(got-tt.want) > epsilon {
				t.Errorf("AngleDelta(%g, %g) = %g, want %g", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSegmentIndex(t *testing.T) {
	tests := []struct {
		angle float64
		n     int
		want  int
	}{
		{0, 8, 0},
		{44.9, 8, 0},
		{45, 8, 1},
		{359.9, 8, 7},
		{360, 8, 0},
		{-1, 8, 7},
		{100, 3, 0},
		{130, 3, 1},
		{10, 0, 0},
	}

	for _, tt := range tests {
		if got := SegmentIndex(tt.angle, tt.n); got != tt.want {
			t.Errorf("SegmentIndex(%g, %d) = %d, want %d", tt.angle, tt.n, got, tt.want)
		}
	}
}

func TestWheel_Initial(t *testing.T) {
	w := newTestWheel()
	s := w.Initial()

	if s.Phase != Idle {
		t.Errorf("Phase = %v, want idle", s.Phase)
	}
	if s.Segments != 8 {
		t.Errorf("Segments = %d, want 8", s.Segments)
	}
	if s.Angle != 0 || s.Velocity != 0 || s.Selected != 0 {
		t.Errorf("initial state should be at rest at 0, got %+v", s)
	}
}

func TestWheel_DragScenario(t *testing.T) {
	w := newTestWheel()
	s := w.Initial()

	s = w.Update(s, 16, pinch(0))
	if s.Phase != ManualDrag {
		t.Fatalf("pinch start: Phase = %v, want dragging", s.Phase)
	}
	if s.Angle != 0 {
		t.Errorf("pinch start should not rotate, Angle = %g", s.Angle)
	}

	s = w.Update(s, 100, pinch(45))

	if math.Abs(s.Velocity-0.45) > epsilon {
		t.Errorf("Velocity = %g, want 0.45", s.Velocity)
	}
	if math.Abs(s.Angle-45) > epsilon {
		t.Errorf("Angle = %g, want 45", s.Angle)
	}
	if s.Selected != 1 {
		t.Errorf("Selected = %d, want 1", s.Selected)
	}
	if s.IsSpinning() {
		t.Error("manual drag must not count as spinning")
	}
}

func TestWheel_DragAcrossWrap(t *testing.T) {
	w := newTestWheel()
	s := w.Initial()
	s.Angle = 5

	s = drag(w, s, 350, 10, 50)

	if math.Abs(s.Angle-25) > epsilon {
		t.Errorf("Angle = %g, want 25", s.Angle)
	}
	if math.Abs(s.Velocity-0.4) > epsilon {
		t.Errorf("Velocity = %g, want 0.4", s.Velocity)
	}
}

func TestWheel_DragVelocityClamped(t *testing.T) {
	w := newTestWheel()
	s := drag(w, w.Initial(), 0, 90, 10)

	if s.Velocity != 2.0 {
		t.Errorf("Velocity = %g, want clamp at 2.0", s.Velocity)
	}
	if math.Abs(s.Angle-90) > epsilon {
		t.Errorf("Angle should follow the hand even when velocity clamps, got %g", s.Angle)
	}
}

func TestWheel_ReleaseEntersMomentum(t *testing.T) {
	w := newTestWheel()
	s := drag(w, w.Initial(), 0, 50, 100)

	s = w.Update(s, 16, released)

	if s.Phase != Momentum {
		t.Fatalf("Phase = %v, want spinning", s.Phase)
	}
	if !s.IsSpinning() {
		t.Error("IsSpinning should be true after release")
	}
	if math.Abs(s.Velocity-0.5) > epsilon {
		t.Errorf("launch velocity = %g, want 0.5", s.Velocity)
	}
	if math.Abs(s.Angle-50) > epsilon {
		t.Errorf("release frame should not integrate, Angle = %g", s.Angle)
	}
}

func TestWheel_ReleaseWithoutVelocityGoesIdle(t *testing.T) {
	w := newTestWheel()
	s := drag(w, w.Initial(), 30, 30, 100)

	s = w.Update(s, 16, released)

	if s.Phase != Idle {
		t.Errorf("Phase = %v, want idle", s.Phase)
	}
	if s.Velocity != 0 {
		t.Errorf("Velocity = %g, want 0", s.Velocity)
	}
}

func TestWheel_MomentumDecaysToIdle(t *testing.T) {
	w := newTestWheel()
	s := drag(w, w.Initial(), 0, 50, 100)
	s = w.Update(s, 16, released)

	// 0.5 deg/ms at 0.01 deg/ms^2 stops after 50ms
	for i := 0; i < 4; i++ {
		s = w.Update(s, 10, released)
		if s.Phase != Momentum {
			t.Fatalf("after %dms Phase = %v, want spinning", (i+1)*10, s.Phase)
		}
	}

	s = w.Update(s, 10, released)
	if s.Phase != Idle {
		t.Errorf("after 50ms Phase = %v, want idle", s.Phase)
	}
	if s.Velocity != 0 {
		t.Errorf("after 50ms Velocity = %g, want 0", s.Velocity)
	}

	// 50 + (0.5+0.4+0.3+0.2+0.1)*10
	if math.Abs(s.Angle-65) > 1e-6 {
		t.Errorf("Angle = %g, want 65", s.Angle)
	}
	if s.Selected != 1 {
		t.Errorf("Selected = %d, want 1", s.Selected)
	}
}

func TestWheel_MomentumSingleLongStep(t *testing.T) {
	w := newTestWheel()
	s := drag(w, w.Initial(), 0, 50, 100)
	s = w.Update(s, 16, released)

	s = w.Update(s, 50, released)

	if s.Phase != Idle {
		t.Errorf("Phase = %v, want idle", s.Phase)
	}
}

func TestWheel_MomentumNegativeVelocity(t *testing.T) {
	w := newTestWheel()
	s := drag(w, w.Initial(), 50, 0, 100)
	s = w.Update(s, 16, released)

	s = w.Update(s, 10, released)

	if s.Velocity >= 0 {
		t.Fatalf("Velocity = %g, should stay negative while decaying", s.Velocity)
	}
	if math.Abs(s.Velocity+0.4) > epsilon {
		t.Errorf("Velocity = %g, want -0.4", s.Velocity)
	}
	// 360 - 50 - 5
	if math.Abs(s.Angle-305) > epsilon {
		t.Errorf("Angle = %g, want 305", s.Angle)
	}
}

func TestWheel_MomentumMonotonicDecay(t *testing.T) {
	w := newTestWheel()
	s := drag(w, w.Initial(), 0, 150, 100)
	s = w.Update(s, 16, released)

	rng := rand.New(rand.NewPCG(7, 7))
	prev := math.Abs(s.Velocity)
	for i := 0; i < 1000 && s.Phase == Momentum; i++ {
		s = w.Update(s, rng.Float64()*20, released)
		speed := math.Abs(s.Velocity)
		if speed > prev {
			t.Fatalf("step %d: speed rose from %g to %g", i, prev, speed)
		}
		prev = speed
	}

	if s.Phase != Idle || s.Velocity != 0 {
		t.Errorf("wheel should come to rest, got %+v", s)
	}
}

func TestWheel_ZeroElapsedIsIdempotent(t *testing.T) {
	w := newTestWheel()
	events := []PinchEvent{pinch(0), pinch(90), released, pinch(200)}

	states := []State{
		w.Initial(),
		drag(w, w.Initial(), 0, 30, 100),
		w.Update(drag(w, w.Initial(), 0, 50, 100), 16, released),
	}

	for _, s := range states {
		for _, ev := range events {
			got := w.Update(s, 0, ev)
			if got.Angle != s.Angle {
				t.Errorf("elapsed 0 changed Angle from %g to %g (event %+v)", s.Angle, got.Angle, ev)
			}
			if got.Selected != s.Selected {
				t.Errorf("elapsed 0 changed Selected from %d to %d (event %+v)", s.Selected, got.Selected, ev)
			}
		}
	}
}

func TestWheel_AngleAlwaysInRange(t *testing.T) {
	w := newTestWheel()
	s := w.Initial()
	rng := rand.New(rand.NewPCG(42, 99))

	for i := 0; i < 5000; i++ {
		ev := PinchEvent{
			IsPinching:  rng.IntN(3) > 0,
			AnchorAngle: rng.Float64()*1440 - 720,
		}
		if rng.IntN(50) == 0 {
			s = w.Spin(s)
		}
		s = w.Update(s, rng.Float64()*200, ev)

		if s.Angle < 0 || s.Angle >= 360 {
			t.Fatalf("step %d: Angle %g outside [0, 360)", i, s.Angle)
		}
		if s.Selected < 0 || s.Selected >= s.Segments {
			t.Fatalf("step %d: Selected %d outside [0, %d)", i, s.Selected, s.Segments)
		}
		if math.Abs(s.Velocity) > 2.0 {
			t.Fatalf("step %d: |Velocity| %g above max", i, s.Velocity)
		}
	}
}

func TestWheel_HandLostDuringDrag(t *testing.T) {
	t.Run("with velocity enters momentum on first empty frame", func(t *testing.T) {
		w := newTestWheel()
		s := drag(w, w.Initial(), 0, 30, 100)

		s = w.Update(s, 33, released)
		if s.Phase != Momentum {
			t.Fatalf("first frame without hand: Phase = %v, want spinning", s.Phase)
		}

		for i := 0; i < 9; i++ {
			s = w.Update(s, 33, released)
			if s.Phase == ManualDrag {
				t.Fatalf("frame %d: wheel returned to dragging without a pinch", i+2)
			}
		}
	})

	t.Run("without velocity goes idle on first empty frame", func(t *testing.T) {
		w := newTestWheel()
		s := drag(w, w.Initial(), 0, 0, 100)

		s = w.Update(s, 33, released)
		if s.Phase != Idle {
			t.Fatalf("Phase = %v, want idle", s.Phase)
		}
	})
}

func TestWheel_PinchStopsMomentum(t *testing.T) {
	w := newTestWheel()
	s := drag(w, w.Initial(), 0, 50, 100)
	s = w.Update(s, 16, released)
	before := s.Angle

	s = w.Update(s, 16, pinch(120))

	if s.Phase != ManualDrag {
		t.Errorf("Phase = %v, want dragging", s.Phase)
	}
	if s.Velocity != 0 {
		t.Errorf("Velocity = %g, grabbing should stop the wheel", s.Velocity)
	}
	if s.Angle != before {
		t.Errorf("grab frame moved the wheel from %g to %g", before, s.Angle)
	}
}

func TestWheel_Spin(t *testing.T) {
	w := newTestWheel()
	cfg := testConfig()

	sawPositive, sawNegative := false, false
	for i := 0; i < 50; i++ {
		s := w.Spin(w.Initial())

		if s.Phase != Momentum {
			t.Fatalf("Phase = %v, want spinning", s.Phase)
		}
		speed := math.Abs(s.Velocity)
		if speed < cfg.SpinMin || speed > cfg.SpinMax {
			t.Fatalf("spin speed %g outside [%g, %g]", speed, cfg.SpinMin, cfg.SpinMax)
		}
		if s.Velocity > 0 {
			sawPositive = true
		} else {
			sawNegative = true
		}
	}

	if !sawPositive || !sawNegative {
		t.Error("spin direction should vary")
	}
}

func TestWheel_SpinWhileSpinningIsNoop(t *testing.T) {
	w := newTestWheel()
	s := w.Spin(w.Initial())
	v := s.Velocity

	s = w.Spin(s)

	if s.Velocity != v {
		t.Errorf("Velocity changed from %g to %g", v, s.Velocity)
	}
}

func TestWheel_SetSegments(t *testing.T) {
	w := newTestWheel()
	s := w.Initial()
	s.Angle = 100

	tests := []struct {
		name         string
		n            int
		wantSegments int
		wantSelected int
	}{
		{"within bounds", 4, 4, 1},
		{"below minimum clamps", 1, 3, 0},
		{"above maximum clamps", 50, 20, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := w.SetSegments(s, tt.n)
			if got.Segments != tt.wantSegments {
				t.Errorf("Segments = %d, want %d", got.Segments, tt.wantSegments)
			}
			if got.Selected != tt.wantSelected {
				t.Errorf("Selected = %d, want %d", got.Selected, tt.wantSelected)
			}
		})
	}
}

func TestPhase_String(t *testing.T) {
	tests := map[Phase]string{
		Idle:       "idle",
		ManualDrag: "dragging",
		Momentum:   "spinning",
		Phase(9):   "unknown",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(p), got, want)
		}
	}
}

func TestPalette(t *testing.T) {
	t.Run("one distinct opaque color per segment", func(t *testing.T) {
		p := Palette(8)
		if len(p) != 8 {
			t.Fatalf("len = %d, want 8", len(p))
		}
		seen := map[[3]uint8]bool{}
		for i, c := range p {
			if c.A != 255 {
				t.Errorf("color %d alpha = %d, want 255", i, c.A)
			}
			key := [3]uint8{c.R, c.G, c.B}
			if seen[key] {
				t.Errorf("color %d duplicates an earlier color: %v", i, c)
			}
			seen[key] = true
		}
	})

	t.Run("first color is red", func(t *testing.T) {
		c := Palette(6)[0]
		if c.R != 255 || c.G != 0 || c.B != 0 {
			t.Errorf("Palette(6)[0] = %v, want pure red", c)
		}
	})

	t.Run("empty for non-positive count", func(t *testing.T) {
		if p := Palette(0); p != nil {
			t.Errorf("Palette(0) = %v, want nil", p)
		}
	})
}

func TestState_SelectedColor(t *testing.T) {
	w := newTestWheel()
	s := drag(w, w.Initial(), 0, 45, 100)

	if got, want := s.SelectedColor(), Palette(8)[1]; got != want {
		t.Errorf("SelectedColor() = %v, want %v", got, want)
	}
}
