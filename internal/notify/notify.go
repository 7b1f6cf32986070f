// Package notify defines the progress and event callbacks that long
// running operations report through. Observers are passed in by the
// caller for each run; nothing here is global.
package notify

import "sync"

// Severity of a logged event
type Severity int

const (
	Normal Severity = iota
	Error
	Warning
	Health // periodic "still alive" messages
)

func (s Severity) String() string {
	switch s {
	case Normal:
		return "normal"
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Health:
		return "health"
	}
	return "unknown"
}

// Logger receives event messages
type Logger interface {
	Log(message string, severity Severity)
}

// Observer receives progress updates (percent in 0..100) and events.
// description may be empty.
type Observer interface {
	Logger
	Progress(description string, percent float64)
}

// Nop is an Observer that ignores everything
type Nop struct{}

func (Nop) Log(string, Severity)     {}
func (Nop) Progress(string, float64) {}

// Funcs adapts plain functions to an Observer. Nil functions are skipped.
type Funcs struct {
	LogFunc      func(message string, severity Severity)
	ProgressFunc func(description string, percent float64)
}

func (f Funcs) Log(message string, severity Severity) {
	if f.LogFunc != nil {
		f.LogFunc(message, severity)
	}
}

func (f Funcs) Progress(description string, percent float64) {
	if f.ProgressFunc != nil {
		f.ProgressFunc(description, percent)
	}
}

// Multi forwards to all observers in order
type Multi []Observer

func (m Multi) Log(message string, severity Severity) {
	for _, o := range m {
		o.Log(message, severity)
	}
}

func (m Multi) Progress(description string, percent float64) {
	for _, o := range m {
		o.Progress(description, percent)
	}
}

// Monotonic wraps an Observer so that reported percentages never go down
// and calls are serialized. Used when progress comes from several workers.
type Monotonic struct {
	Observer
	mu   sync.Mutex
	last float64
}

func NewMonotonic(o Observer) *Monotonic {
	return &Monotonic{Observer: o, last: -1}
}

func (m *Monotonic) Progress(description string, percent float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if percent < m.last {
		return
	}
	m.last = percent
	m.Observer.Progress(description, percent)
}

func (m *Monotonic) Log(message string, severity Severity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Observer.Log(message, severity)
}
