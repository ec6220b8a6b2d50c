package internal

import (
	"fmt"
	"io"
	"sync"
)

// Variant is the severity of a notification.
type Variant string

const (
	VariantInfo        Variant = "info"
	VariantSuccess     Variant = "success"
	VariantWarning     Variant = "warning"
	VariantDestructive Variant = "destructive"
)

// Notification is a transient, user-facing message shown next to the conversation.
type Notification struct {
	Title       string
	Description string
	Variant     Variant
}

// Notifier is the side channel for notifications. It must not block on the caller.
type Notifier interface {
	Notify(n Notification)
}

// TerminalNotifier renders notifications as single styled lines.
type TerminalNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalNotifier writes notifications to out (usually stderr).
func NewTerminalNotifier(out io.Writer) *TerminalNotifier {
	return &TerminalNotifier{out: out}
}

func (t *TerminalNotifier) Notify(n Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()

	text := n.Title
	if n.Description != "" {
		text = fmt.Sprintf("%s: %s", n.Title, n.Description)
	}

	if !isTerminal(t.out) {
		if n.Variant == VariantDestructive || n.Variant == VariantWarning {
			fmt.Fprintf(t.out, "%s: %s\n", n.Variant, text)
			return
		}
		fmt.Fprintln(t.out, text)
		return
	}

	switch n.Variant {
	case VariantSuccess:
		fmt.Fprintf(t.out, "%s %s\n", successStyle.Render("✓"), text)
	case VariantWarning:
		fmt.Fprintf(t.out, "%s %s\n", warningStyle.Render("⚠"), text)
	case VariantDestructive:
		fmt.Fprintf(t.out, "%s %s\n", errorStyle.Render("✗"), text)
	default:
		fmt.Fprintf(t.out, "%s %s\n", progressStyle.Render("ℹ"), text)
	}
}

// RecordingNotifier keeps every notification in memory.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *RecordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	r.sent = append(r.sent, n)
	r.mu.Unlock()
}

// Notifications returns what has been sent so far.
func (r *RecordingNotifier) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}
