// Package notify holds the transient status message shown after an action.
package notify

import (
	"sync"
	"time"
)

// DefaultTTL is how long a message stays visible.
const DefaultTTL = 5 * time.Second

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Message is the text currently on display.
type Message struct {
	Text    string
	Kind    Kind
	Visible bool
}

// Timer is the part of *time.Timer the notifier needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Notifier displays one message at a time and hides it after the TTL.
// Showing a new message stops the hide timer of the previous one.
type Notifier struct {
	mu         sync.Mutex
	ttl        time.Duration
	current    Message
	timer      Timer
	generation uint64
	afterFunc  AfterFunc
	onChange   func(Message)
}

// New creates a Notifier. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{ttl: ttl, afterFunc: realAfterFunc}
}

// WithAfterFunc replaces the scheduler, mainly for tests.
func (n *Notifier) WithAfterFunc(f AfterFunc) *Notifier {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.afterFunc = f
	return n
}

// OnChange registers a callback run whenever the message is shown or
// hidden. The callback runs without the notifier lock held.
func (n *Notifier) OnChange(f func(Message)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = f
}

func (n *Notifier) Success(text string) { n.Show(text, KindSuccess) }

func (n *Notifier) Error(text string) { n.Show(text, KindError) }

// Show displays text and schedules it to hide after the TTL.
func (n *Notifier) Show(text string, kind Kind) {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.generation++
	gen := n.generation
	n.current = Message{Text: text, Kind: kind, Visible: true}
	n.timer = n.afterFunc(n.ttl, func() { n.expire(gen) })
	msg, cb := n.current, n.onChange
	n.mu.Unlock()

	if cb != nil {
		cb(msg)
	}
}

// Current returns the message on display, if any.
func (n *Notifier) Current() Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Hide hides the current message immediately.
func (n *Notifier) Hide() {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.generation++
	n.current.Visible = false
	msg, cb := n.current, n.onChange
	n.mu.Unlock()

	if cb != nil {
		cb(msg)
	}
}

// expire hides the message shown as generation gen. A timer that fires
// after a newer message was shown does nothing.
func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	if gen != n.generation {
		n.mu.Unlock()
		return
	}
	n.timer = nil
	n.current.Visible = false
	msg, cb := n.current, n.onChange
	n.mu.Unlock()

	if cb != nil {
		cb(msg)
	}
}
