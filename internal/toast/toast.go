// Package toast implements timed notifications that fade out before closing.
package toast

import (
	"sync"
	"time"
)

const (
	// DefaultDuration is how long a toast stays fully visible.
	DefaultDuration = 4 * time.Second
	// FadeDuration is the grace period between fading and hidden.
	FadeDuration = 300 * time.Millisecond
)

// Severity selects the toast's styling.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
	Warning Severity = "warning"
)

// ParseSeverity maps s onto a Severity, defaulting to Info.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case Success, Error, Info, Warning:
		return Severity(s)
	default:
		return Info
	}
}

// State is the visibility of a toast.
type State string

const (
	Hidden  State = "hidden"
	Visible State = "visible"
	Fading  State = "fading"
)

// Timer is a cancellable scheduled call.
type Timer interface {
	Stop() bool
}

// Clock schedules calls. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock is backed by the time package.
var RealClock Clock = realClock{}

// Options configure a Notifier.
type Options struct {
	Message  string
	Severity Severity
	// Duration defaults to DefaultDuration when zero.
	Duration time.Duration
	// OnClose fires once per show cycle, after the fade completes.
	OnClose func()
}

// Notifier is one toast.
type Notifier struct {
	clock Clock

	mu    sync.Mutex
	opts  Options
	state State
	gen   uint64
	timer Timer
}

// New returns a hidden Notifier. A nil clock means RealClock.
func New(opts Options, clock Clock) *Notifier {
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if opts.Severity == "" {
		opts.Severity = Info
	}
	if clock == nil {
		clock = RealClock
	}
	return &Notifier{clock: clock, opts: opts, state: Hidden}
}

// Show makes the toast visible and (re)starts its timer.
func (n *Notifier) Show() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.showLocked()
}

// Notify replaces the content and shows the toast.
func (n *Notifier) Notify(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opts.Message = message
	n.opts.Severity = severity
	n.showLocked()
}

func (n *Notifier) showLocked() {
	n.stopTimerLocked()
	n.gen++
	n.state = Visible
	gen := n.gen
	n.timer = n.clock.AfterFunc(n.opts.Duration, func() { n.fade(gen) })
}

// Close starts the fade of a visible toast.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != Visible {
		return
	}
	n.stopTimerLocked()
	n.gen++
	n.fadeLocked(n.gen)
}

// Stop cancels pending timers and hides the toast without invoking OnClose.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopTimerLocked()
	n.gen++
	n.state = Hidden
}

// State returns the current visibility.
func (n *Notifier) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *Notifier) fade(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if gen != n.gen || n.state != Visible {
		return
	}
	n.fadeLocked(gen)
}

func (n *Notifier) fadeLocked(gen uint64) {
	n.state = Fading
	n.timer = n.clock.AfterFunc(FadeDuration, func() { n.hide(gen) })
}

func (n *Notifier) hide(gen uint64) {
	n.mu.Lock()
	if gen != n.gen || n.state != Fading {
		n.mu.Unlock()
		return
	}
	n.state = Hidden
	n.timer = nil
	onClose := n.opts.OnClose
	n.mu.Unlock()

	if onClose != nil {
		onClose()
	}
}

func (n *Notifier) stopTimerLocked() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

// View is the render model of a toast.
type View struct {
	Message  string
	Severity Severity
	State    State
	Duration time.Duration
}

// Shown reports whether the toast should be rendered.
func (v View) Shown() bool { return v.State != Hidden && v.State != "" }

// Fading reports whether the toast is in its grace period.
func (v View) Fading() bool { return v.State == Fading }

// DurationMS is the visible duration in milliseconds.
func (v View) DurationMS() int64 { return v.Duration.Milliseconds() }

// View returns the render model of the toast.
func (n *Notifier) View() View {
	n.mu.Lock()
	defer n.mu.Unlock()
	return View{
		Message:  n.opts.Message,
		Severity: n.opts.Severity,
		State:    n.state,
		Duration: n.opts.Duration,
	}
}
