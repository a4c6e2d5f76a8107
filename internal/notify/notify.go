package notify

import (
	"log/slog"
	"sync"

	"github.com/gen2brain/beeep"
)

// Notifier surfaces user-facing messages. Every failure in the recording and
// upload paths is recovered locally by notifying the user; nothing is fatal.
type Notifier interface {
	Info(title, message string)
	Error(title, message string)
}

// Desktop sends desktop notifications and mirrors them to the log. Delivery
// failures are logged and swallowed.
type Desktop struct{}

func NewDesktop() *Desktop {
	return &Desktop{}
}

func (d *Desktop) Info(title, message string) {
	slog.Info("notify", "title", title, "message", message)
	if err := beeep.Notify(title, message, ""); err != nil {
		slog.Warn("Desktop notification failed", "error", err)
	}
}

func (d *Desktop) Error(title, message string) {
	slog.Error("notify", "title", title, "message", message)
	if err := beeep.Alert(title, message, ""); err != nil {
		slog.Warn("Desktop notification failed", "error", err)
	}
}

// Log writes notifications to the structured log only. Used when desktop
// notifications are disabled or unavailable (headless hosts).
type Log struct{}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Info(title, message string) {
	slog.Info("notify", "title", title, "message", message)
}

func (l *Log) Error(title, message string) {
	slog.Error("notify", "title", title, "message", message)
}

// Message is one recorded notification.
type Message struct {
	Level string // "info" or "error"
	Title string
	Body  string
}

// Memory records notifications for inspection in tests.
type Memory struct {
	mu       sync.Mutex
	messages []Message
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Info(title, message string) {
	m.append(Message{Level: "info", Title: title, Body: message})
}

func (m *Memory) Error(title, message string) {
	m.append(Message{Level: "error", Title: title, Body: message})
}

func (m *Memory) append(msg Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// Messages returns a copy of everything notified so far.
func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}
