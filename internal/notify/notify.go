// Package notify delivers transient user-facing messages: success, failure
// and informational toasts, printed lines or flashes carried to the next page.
package notify

import (
	"fmt"
	"io"
	"sync"

	"atsresume/internal/errors"
)

// Kind is the visual variant of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Notification is one message for the user.
type Notification struct {
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// Success builds a success notification.
func Success(title, message string) Notification {
	return Notification{Kind: KindSuccess, Title: title, Message: message}
}

// Error builds a destructive notification.
func Error(title, message string) Notification {
	return Notification{Kind: KindError, Title: title, Message: message}
}

// Info builds an informational notification.
func Info(title, message string) Notification {
	return Notification{Kind: KindInfo, Title: title, Message: message}
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(Notification) {}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	Logger *errors.Logger
}

func (l LogNotifier) Notify(n Notification) {
	if l.Logger == nil {
		return
	}
	args := []any{"kind", n.Kind, "title", n.Title, "message", n.Message}
	if n.Kind == KindError {
		l.Logger.Warn("notification", args...)
		return
	}
	l.Logger.Info("notification", args...)
}

// WriterNotifier prints one line per notification, for terminals.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier prints to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (wn *WriterNotifier) Notify(n Notification) {
	wn.mu.Lock()
	defer wn.mu.Unlock()

	prefix := "✓"
	switch n.Kind {
	case KindError:
		prefix = "✗"
	case KindInfo:
		prefix = "•"
	}
	_, _ = fmt.Fprintf(wn.w, "%s %s %s\n", prefix, n.Title, n.Message)
}

// Recorder keeps notifications in memory until they are drained.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Drain returns the recorded notifications and forgets them.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(n)
		}
	}
}
