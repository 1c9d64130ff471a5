package toast

import (
	"sync"
	"time"
)

// Board keeps the current toast of every client.
type Board struct {
	clock    Clock
	duration time.Duration

	mu     sync.Mutex
	toasts map[string]*Notifier
}

// NewBoard returns an empty Board. A nil clock means RealClock.
func NewBoard(duration time.Duration, clock Clock) *Board {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if clock == nil {
		clock = RealClock
	}
	return &Board{clock: clock, duration: duration, toasts: make(map[string]*Notifier)}
}

// Show displays message to client, restarting the timer of a toast that is
// already on screen.
func (b *Board) Show(client, message string, severity Severity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n, ok := b.toasts[client]; ok {
		n.Notify(message, severity)
		return
	}

	var n *Notifier
	n = New(Options{
		Message:  message,
		Severity: severity,
		Duration: b.duration,
		OnClose:  func() { b.forget(client, n) },
	}, b.clock)
	b.toasts[client] = n
	n.Show()
}

// Dismiss starts the fade of the client's toast.
func (b *Board) Dismiss(client string) {
	b.mu.Lock()
	n, ok := b.toasts[client]
	b.mu.Unlock()
	if ok {
		n.Close()
	}
}

// View returns the client's toast, if one is on screen.
func (b *Board) View(client string) (View, bool) {
	b.mu.Lock()
	n, ok := b.toasts[client]
	b.mu.Unlock()
	if !ok {
		return View{}, false
	}
	v := n.View()
	return v, v.Shown()
}

// Len returns the number of toasts on screen.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.toasts)
}

// Stop cancels every pending toast without invoking callbacks.
func (b *Board) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for client, n := range b.toasts {
		n.Stop()
		delete(b.toasts, client)
	}
}

func (b *Board) forget(client string, n *Notifier) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.toasts[client] == n && n.State() == Hidden {
		delete(b.toasts, client)
	}
}
