// Package tray provides a system tray readout and session toggle for handvol.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handvol/internal/dashboard"
)

// Tray represents the system tray application. It is also a dashboard
// renderer showing the current gesture and volume.
type Tray struct {
	onToggle    func(start bool)
	onDashboard func()
	onQuit      func()
	running     bool
	mu          sync.RWMutex

	gesture string
	volume  string

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuGesture *systray.MenuItem
	menuVolume  *systray.MenuItem
}

// New creates a new Tray in the idle state.
func New() *Tray {
	return &Tray{
		gesture: gestureTitle(nil),
		volume:  volumeTitle(nil),
	}
}

// OnToggle sets the callback invoked with true to start a session and
// false to stop it. The tray itself changes state only via SetRunning.
func (t *Tray) OnToggle(fn func(start bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback for the "Open Dashboard" menu item.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("handvol")
	systray.SetTooltip("Gesture volume control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.running), "Start or stop detection")
	systray.AddSeparator()

	t.menuGesture = systray.AddMenuItem(t.gesture, "Current gesture")
	t.menuGesture.Disable()
	t.menuVolume = systray.AddMenuItem(t.volume, "Current volume")
	t.menuVolume.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit handvol")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle asks for the opposite of the current state.
func (t *Tray) handleToggle() {
	t.mu.RLock()
	start := !t.running
	callback := t.onToggle
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(start)
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetRunning updates the toggle after a session started or stopped.
func (t *Tray) SetRunning(running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = running
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(running))
	}
}

// IsRunning returns the last state passed to SetRunning.
func (t *Tray) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.running
}

// Render shows the gesture and volume of p. Menu titles are only touched
// when the text changes.
func (t *Tray) Render(p *dashboard.Panel) error {
	gesture, volume := gestureTitle(p), volumeTitle(p)

	t.mu.Lock()
	defer t.mu.Unlock()

	if gesture != t.gesture {
		t.gesture = gesture
		if t.menuGesture != nil {
			t.menuGesture.SetTitle(gesture)
		}
	}
	if volume != t.volume {
		t.volume = volume
		if t.menuVolume != nil {
			t.menuVolume.SetTitle(volume)
		}
	}
	return nil
}

// Readout returns the current menu texts.
func (t *Tray) Readout() (gesture, volume string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gesture, t.volume
}

func toggleTitle(running bool) string {
	if running {
		return "● Running (click to stop)"
	}
	return "○ Stopped (click to start)"
}

func gestureTitle(p *dashboard.Panel) string {
	if p == nil {
		return "Gesture: No Hand"
	}
	return "Gesture: " + p.LabelName
}

func volumeTitle(p *dashboard.Panel) string {
	if p == nil {
		return "Volume: 0%"
	}
	return fmt.Sprintf("Volume: %d%%", p.Metrics.VolumePercent)
}
