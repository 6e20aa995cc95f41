// Package tray provides an optional system tray menu that drives the color wheel.
package tray

import (
	"runtime"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/pinchwheel/internal/app"
)

// Sink receives the commands chosen from the menu.
type Sink interface {
	Send(cmd app.Command)
}

// Tray is the system tray menu.
type Tray struct {
	sink     Sink
	tracking bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuTracking *systray.MenuItem
	menuSelected *systray.MenuItem
}

// New creates a Tray that forwards menu clicks to sink.
func New(sink Sink) *Tray {
	return &Tray{
		sink:     sink,
		tracking: true,
	}
}

// Start runs the tray event loop on its own locked OS thread and returns
// immediately. The game window keeps the main thread.
func (t *Tray) Start() {
	go func() {
		runtime.LockOSThread()
		systray.Run(t.onReady, t.onExit)
	}()
}

// Stop removes the tray icon.
func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Pinchwheel")
	systray.SetTooltip("Pinch-controlled color wheel")

	menuSpin := systray.AddMenuItem("Spin", "Spin the wheel")
	menuMore := systray.AddMenuItem("More colors", "Add a segment")
	menuFewer := systray.AddMenuItem("Fewer colors", "Remove a segment")
	systray.AddSeparator()

	t.mu.Lock()
	t.menuTracking = systray.AddMenuItem(trackingTitle(t.tracking), "Pause or resume hand tracking")
	t.menuSelected = systray.AddMenuItem("Selected: none", "Last color the wheel stopped on")
	t.menuSelected.Disable()
	menuTracking := t.menuTracking
	t.mu.Unlock()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Pinchwheel")

	go func() {
		for {
			select {
			case <-menuSpin.ClickedCh:
				t.dispatch(app.CommandSpin)
			case <-menuMore.ClickedCh:
				t.dispatch(app.CommandMoreSegments)
			case <-menuFewer.ClickedCh:
				t.dispatch(app.CommandFewerSegments)
			case <-menuTracking.ClickedCh:
				t.dispatch(app.CommandToggleTracking)
			case <-menuQuit.ClickedCh:
				t.dispatch(app.CommandQuit)
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// dispatch forwards cmd. The tracking title follows the app through
// SetTracking, so a toggle from the keyboard shows up here too.
func (t *Tray) dispatch(cmd app.Command) {
	t.sink.Send(cmd)
}

// SetTracking shows whether hand tracking is active.
func (t *Tray) SetTracking(tracking bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tracking = tracking
	if t.menuTracking != nil {
		t.menuTracking.SetTitle(trackingTitle(tracking))
	}
}

// SetSelected shows the last color the wheel stopped on.
func (t *Tray) SetSelected(hex string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuSelected != nil {
		t.menuSelected.SetTitle("Selected: " + hex)
	}
}

// Tracking returns whether the menu shows tracking as active.
func (t *Tray) Tracking() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tracking
}

func trackingTitle(tracking bool) string {
	if tracking {
		return "● Tracking"
	}
	return "○ Tracking paused"
}
