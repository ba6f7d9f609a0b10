package client

import (
	"log/slog"
	"sync"
)

// Notifier surfaces mutation outcomes to the user.
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
}

// LogNotifier writes notifications to slog.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

func (n LogNotifier) Success(title, message string) {
	n.logger().Info(title, "message", message)
}

func (n LogNotifier) Error(title, message string) {
	n.logger().Warn(title, "message", message)
}

// Notification is one recorded call on a RecordingNotifier.
type Notification struct {
	Kind    string // "success" or "error"
	Title   string
	Message string
}

// RecordingNotifier keeps every notification in order.
type RecordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (n *RecordingNotifier) Success(title, message string) {
	n.record("success", title, message)
}

func (n *RecordingNotifier) Error(title, message string) {
	n.record("error", title, message)
}

func (n *RecordingNotifier) record(kind, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, Notification{Kind: kind, Title: title, Message: message})
}

func (n *RecordingNotifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.items...)
}
