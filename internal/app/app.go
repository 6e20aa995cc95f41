// Package app runs the pinch-controlled color wheel: it owns the camera, the
// hand detector and the wheel state and drives them from the ebiten game loop.
package app

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/pinchwheel/internal/capture"
	"github.com/ayusman/pinchwheel/internal/config"
	"github.com/ayusman/pinchwheel/internal/detector"
	"github.com/ayusman/pinchwheel/internal/gesture"
	"github.com/ayusman/pinchwheel/internal/ui"
	"github.com/ayusman/pinchwheel/internal/wheel"
)

// CommandBuffer is how many pending commands Send accepts before dropping.
const CommandBuffer = 8

// Command is a user request delivered from outside the game loop.
type Command int

const (
	// CommandSpin launches the wheel at a random speed unless it is coasting.
	CommandSpin Command = iota
	// CommandMoreSegments adds one color, up to the configured maximum.
	CommandMoreSegments
	// CommandFewerSegments removes one color, down to the configured minimum.
	CommandFewerSegments
	// CommandToggleTracking pauses or resumes hand detection.
	CommandToggleTracking
	// CommandQuit ends the game loop.
	CommandQuit
)

// String returns the command name used in logs.
func (c Command) String() string {
	switch c {
	case CommandSpin:
		return "spin"
	case CommandMoreSegments:
		return "more-segments"
	case CommandFewerSegments:
		return "fewer-segments"
	case CommandToggleTracking:
		return "toggle-tracking"
	case CommandQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Config holds the per-component settings.
type Config struct {
	Camera          capture.Config
	Wheel           wheel.Config
	Pinch           gesture.Config
	Detector        detector.Config
	WheelRadius     float64
	MotionThreshold float64
}

// ConfigFrom splits the startup configuration into component settings.
func ConfigFrom(c *config.Config) Config {
	return Config{
		Camera: capture.Config{
			DeviceID: c.CameraID,
			Width:    c.FrameWidth,
			Height:   c.FrameHeight,
			FPS:      c.CameraFPS,
			Mirror:   c.Mirror,
		},
		Wheel: wheel.Config{
			Segments:        c.Segments,
			MinSegments:     c.MinSegments,
			MaxSegments:     c.MaxSegments,
			Deceleration:    c.Deceleration,
			MaxVelocity:     c.MaxVelocity,
			VelocityEpsilon: c.VelocityEpsilon,
			SpinMin:         c.SpinMin,
			SpinMax:         c.SpinMax,
		},
		Pinch: gesture.Config{
			Enter:       c.PinchEnter,
			Exit:        c.PinchExit,
			CenterX:     c.WheelCenterX,
			CenterY:     c.WheelCenterY,
			NearRadius:  c.WheelRadius * c.NearWheelMultiplier,
			FrameWidth:  c.FrameWidth,
			FrameHeight: c.FrameHeight,
		},
		Detector: detector.Config{
			MaxHands:        c.MaxHands,
			MinConfidence:   c.MinDetectionConf,
			MinTrackingConf: c.MinTrackingConf,
			ScriptPath:      c.MediaPipeScript,
			IdleTimeout:     time.Duration(c.MediaPipeIdleTimeoutS) * time.Second,
		},
		WheelRadius:     c.WheelRadius,
		MotionThreshold: c.MotionThreshold,
	}
}

// NewDetector returns the MediaPipe detector, or a mock that never sees a hand
// when the MediaPipe service is unavailable. A positive motion threshold wraps
// the detector so still frames reuse the last result.
func NewDetector(cfg Config) detector.Detector {
	var d detector.Detector
	if mp, err := detector.NewMediaPipeDetector(cfg.Detector); err == nil {
		log.Info().Msg("Using MediaPipe hand detection")
		d = mp
	} else {
		log.Warn().Err(err).Msg("MediaPipe not available, hand tracking disabled")
		d = detector.NewMockDetector()
	}

	if cfg.MotionThreshold > 0 {
		d = detector.NewMotionGated(d, capture.NewMotionDetector(cfg.MotionThreshold), detector.DefaultMaxReuse)
	}
	return d
}

// App is the ebiten game for the color wheel. All state is touched only from
// the game loop; other goroutines talk to it through Send.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	pinch      *gesture.PinchDetector
	wheel      *wheel.Wheel
	layout     ui.Layout
	renderer   *ui.Renderer
	commands   chan Command
	log        zerolog.Logger
	now        func() time.Time
	onSelect   func(index int, hex string)
	onTracking func(tracking bool)

	state         wheel.State
	palette       []color.RGBA
	reading       gesture.Reading
	tracking      bool
	hovering      bool
	buttonPinch   bool
	strayPinch    bool
	spinID        string
	lastTick      time.Time
	readFailing   bool
	detectFailing bool
	started       bool
	closed        bool
}

// New creates an App over the given camera and detector. The App owns both
// and closes them in Close.
func New(config Config, camera capture.Camera, det detector.Detector) *App {
	w := wheel.New(config.Wheel, nil)
	state := w.Initial()

	return &App{
		config:   config,
		camera:   camera,
		detector: det,
		pinch:    gesture.NewPinchDetector(config.Pinch),
		wheel:    w,
		layout: ui.NewLayout(config.Camera.Width, config.Camera.Height,
			config.Pinch.CenterX, config.Pinch.CenterY, config.WheelRadius),
		commands: make(chan Command, CommandBuffer),
		log:      log.With().Str("component", "app").Logger(),
		now:      time.Now,
		state:    state,
		palette:  wheel.Palette(state.Segments),
		tracking: true,
	}
}

// Start opens the camera.
func (a *App) Start() error {
	if a.started {
		return nil
	}
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	a.camera.SetFPS(a.config.Camera.FPS)
	a.started = true

	a.log.Info().
		Int("camera", a.config.Camera.DeviceID).
		Int("fps", a.camera.FPS()).
		Int("segments", a.state.Segments).
		Msg("Color wheel started")
	return nil
}

// Close releases the camera, the detector and the renderer. It is safe to call
// more than once and on an App that never started.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	if err := a.camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}
	if err := a.detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}
	if a.renderer != nil {
		a.renderer.Close()
	}

	a.log.Info().Msg("Color wheel stopped")
	return errors.Join(errs...)
}

// Send queues a command for the next tick. It never blocks; when the queue is
// full the command is dropped.
func (a *App) Send(cmd Command) {
	select {
	case a.commands <- cmd:
	default:
		a.log.Warn().Stringer("command", cmd).Msg("Command queue full, dropping")
	}
}

// OnSelect registers fn to be called from the game loop each time the wheel
// comes to rest after a spin.
func (a *App) OnSelect(fn func(index int, hex string)) {
	a.onSelect = fn
}

// OnTrackingChanged registers fn to be called from the game loop whenever hand
// tracking is paused or resumed, whichever surface asked for it.
func (a *App) OnTrackingChanged(fn func(tracking bool)) {
	a.onTracking = fn
}

// State returns the current wheel state.
func (a *App) State() wheel.State {
	return a.state
}

// Tracking reports whether hand tracking is active.
func (a *App) Tracking() bool {
	return a.tracking
}

// Update implements ebiten.Game.
func (a *App) Update() error {
	if a.renderer == nil {
		a.renderer = ui.NewRenderer(a.layout)
	}
	for _, cmd := range pressedCommands() {
		a.Send(cmd)
	}
	return a.Tick(a.now())
}

// Draw implements ebiten.Game.
func (a *App) Draw(screen *ebiten.Image) {
	if a.renderer == nil {
		return
	}
	a.renderer.Draw(screen, a.view())
}

// Layout implements ebiten.Game; the screen matches the camera frame.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.layout.Width, a.layout.Height
}

func (a *App) view() ui.View {
	return ui.View{
		State:    a.state,
		Palette:  a.palette,
		Reading:  a.reading,
		Button:   ui.ButtonStateFor(a.state.IsSpinning(), a.hovering, a.buttonPinch),
		Tracking: a.tracking,
		Hovering: a.hovering,
	}
}
