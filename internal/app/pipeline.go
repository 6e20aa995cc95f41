package app

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ayusman/pinchwheel/internal/detector"
	"github.com/ayusman/pinchwheel/internal/wheel"
)

// Tick runs one frame: pending commands, capture, detection, gesture and wheel
// update. It returns ebiten.Termination once a quit command arrives.
//
// A pinch that starts over the spin button spins the wheel and is hidden from
// the wheel until it is released, so pressing the button never grabs it. A
// pinch that starts away from the wheel is hidden the same way.
func (a *App) Tick(now time.Time) error {
	if err := a.drainCommands(); err != nil {
		return err
	}

	hands := a.readHands()

	elapsed := 0.0
	if !a.lastTick.IsZero() {
		elapsed = float64(now.Sub(a.lastTick)) / float64(time.Millisecond)
	}
	a.lastTick = now

	a.step(hands, elapsed, now.UnixMilli())
	return nil
}

func (a *App) step(hands []detector.HandLandmarks, elapsedMs float64, timestampMs int64) {
	r := a.pinch.Detect(hands, timestampMs)
	a.reading = r
	a.hovering = r.HandPresent && a.layout.InButton(r.X, r.Y)

	if r.PinchStarted {
		switch {
		case a.hovering:
			a.buttonPinch = true
			a.spin("button")
		case !r.NearWheel:
			a.strayPinch = true
		}
	}
	if !r.IsPinching {
		a.buttonPinch = false
		a.strayPinch = false
	}

	ev := r.PinchEvent
	if a.buttonPinch || a.strayPinch {
		ev.IsPinching = false
	}

	prev := a.state
	a.state = a.wheel.Update(a.state, elapsedMs, ev)
	a.logTransition(prev, a.state)
}

func (a *App) drainCommands() error {
	for {
		select {
		case cmd := <-a.commands:
			if err := a.apply(cmd); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (a *App) apply(cmd Command) error {
	switch cmd {
	case CommandSpin:
		a.spin("command")
	case CommandMoreSegments:
		a.setSegments(a.state.Segments + 1)
	case CommandFewerSegments:
		a.setSegments(a.state.Segments - 1)
	case CommandToggleTracking:
		a.tracking = !a.tracking
		if !a.tracking {
			a.pinch.Reset()
		}
		a.log.Info().Bool("tracking", a.tracking).Msg("Hand tracking toggled")
		if a.onTracking != nil {
			a.onTracking(a.tracking)
		}
	case CommandQuit:
		a.log.Info().Msg("Quit requested")
		return ebiten.Termination
	default:
		return fmt.Errorf("unknown command %d", cmd)
	}
	return nil
}

func (a *App) spin(source string) {
	if a.state.IsSpinning() {
		return
	}
	a.state = a.wheel.Spin(a.state)
	a.spinID = uuid.NewString()
	a.log.Info().
		Str("spin", a.spinID).
		Str("source", source).
		Float64("velocity", a.state.Velocity).
		Msg("Wheel spun")
}

func (a *App) setSegments(n int) {
	before := a.state.Segments
	a.state = a.wheel.SetSegments(a.state, n)
	if a.state.Segments == before {
		return
	}
	a.palette = wheel.Palette(a.state.Segments)
	a.log.Info().Int("segments", a.state.Segments).Msg("Segment count changed")
}

// readHands captures one frame, hands it to the renderer and runs detection.
// Read and detection failures read as no hand; only the first of a streak is
// logged.
func (a *App) readHands() []detector.HandLandmarks {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		if !a.readFailing {
			a.log.Warn().Err(err).Msg("Error reading frame")
		}
		a.readFailing = true
		return nil
	}
	defer frame.Close()

	if a.readFailing {
		a.log.Info().Msg("Camera frames resumed")
		a.readFailing = false
	}

	if a.renderer != nil {
		a.renderer.SetFrame(frame)
	}
	if !a.tracking {
		return nil
	}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		if !a.detectFailing {
			a.log.Warn().Err(err).Msg("Error detecting hands")
		}
		a.detectFailing = true
		return nil
	}
	if a.detectFailing {
		a.log.Info().Msg("Hand detection resumed")
		a.detectFailing = false
	}
	return hands
}

func (a *App) logTransition(prev, next wheel.State) {
	if prev.Phase == next.Phase {
		return
	}

	switch next.Phase {
	case wheel.ManualDrag:
		a.log.Debug().Float64("angle", next.Angle).Msg("Wheel grabbed")
	case wheel.Momentum:
		a.spinID = uuid.NewString()
		a.log.Debug().
			Str("spin", a.spinID).
			Float64("velocity", next.Velocity).
			Msg("Wheel released")
	case wheel.Idle:
		if prev.Phase == wheel.ManualDrag {
			a.log.Debug().Int("selected", next.Selected).Msg("Wheel released at rest")
			return
		}
		c, _ := colorful.MakeColor(a.palette[next.Selected])
		hex := c.Hex()
		a.log.Info().
			Str("spin", a.spinID).
			Int("selected", next.Selected).
			Str("color", hex).
			Msg("Wheel stopped")
		if a.onSelect != nil {
			a.onSelect(next.Selected, hex)
		}
	}
}
