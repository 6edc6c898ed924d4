// Package notify delivers transient user-facing notifications (toasts).
package notify

import (
	"fmt"
	"io"
	"sync"
)

// Kind is the visual variant of a toast.
type Kind int

const (
	Info Kind = iota
	Success
	Error
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "ok"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Toast is a single notification.
type Toast struct {
	Kind    Kind
	Title   string
	Message string
}

// Notifier shows toasts to the user.
type Notifier interface {
	Notify(t Toast)
}

// Errorf is shorthand for an Error toast with a formatted message.
func Errorf(n Notifier, title, format string, args ...any) {
	n.Notify(Toast{Kind: Error, Title: title, Message: fmt.Sprintf(format, args...)})
}

// WriterNotifier prints toasts as single lines. It is safe for concurrent
// use, so background tasks may notify while the REPL is printing.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(t Toast) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t.Message == "" {
		fmt.Fprintf(n.w, "[%s] %s\n", t.Kind, t.Title)
		return
	}
	fmt.Fprintf(n.w, "[%s] %s: %s\n", t.Kind, t.Title, t.Message)
}

// Recorder keeps every toast it receives. Useful for tests and for replaying
// the last message.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

// Toasts returns a copy of everything recorded so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Last returns the most recent toast.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}

// Reset forgets all recorded toasts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = nil
}
