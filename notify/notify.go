// notify/notify.go

package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level tells the UI how to present a notification.
type Level string

const (
	LevelError Level = "error"
	LevelInfo  Level = "info"
)

// Notification is a user-facing message about the outcome of a cart operation.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	Level     Level     `json:"level"`
	Operation string    `json:"operation,omitempty"`
	ProductID int       `json:"product_id,omitempty"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// New stamps a notification with a fresh ID and the current time.
func New(level Level, operation string, productID int, message string) Notification {
	return Notification{
		ID:        uuid.New(),
		Level:     level,
		Operation: operation,
		ProductID: productID,
		Message:   message,
		Time:      time.Now().UTC(),
	}
}

// Sink displays notifications. Notify must not block on delivery and has no
// result the caller acts on.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(n Notification)

func (f SinkFunc) Notify(n Notification) { f(n) }

type multiSink []Sink

// Multi fans a notification out to every sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Notify(n Notification) {
	for _, s := range m {
		s.Notify(n)
	}
}

// Recorder keeps the most recent notifications in memory.
type Recorder struct {
	mu    sync.RWMutex
	limit int
	items []Notification
}

// NewRecorder keeps at most limit notifications, evicting the oldest first.
// A limit of zero or less keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	if r.limit > 0 && len(r.items) > r.limit {
		r.items = r.items[len(r.items)-r.limit:]
	}
}

// All returns a copy of the recorded notifications, oldest first.
func (r *Recorder) All() []Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
