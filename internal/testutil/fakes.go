package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// MemoryStore is an in-memory ports.StateStore.
type MemoryStore struct {
	Data    []byte
	LoadErr error
	SaveErr error
	Loads   int
	Saves   int
}

// Load implements ports.StateStore.
func (s *MemoryStore) Load(context.Context) ([]byte, error) {
	s.Loads++
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return s.Data, nil
}

// Save implements ports.StateStore.
func (s *MemoryStore) Save(_ context.Context, data []byte) error {
	s.Saves++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Data = append([]byte(nil), data...)
	return nil
}

// Message is a payload captured by RecordingTransport.
type Message struct {
	Channel   string
	UserID    string
	Payload   []byte
	Broadcast bool
}

// RecordingTransport is a ports.ChannelTransport that records every message.
type RecordingTransport struct {
	Messages []Message
	Err      error
}

// Send implements ports.ChannelTransport.
func (r *RecordingTransport) Send(_ context.Context, channel, userID string, payload []byte) error {
	if r.Err != nil {
		return r.Err
	}
	r.Messages = append(r.Messages, Message{Channel: channel, UserID: userID, Payload: payload})
	return nil
}

// Broadcast implements ports.ChannelTransport.
func (r *RecordingTransport) Broadcast(_ context.Context, channel string, payload []byte) error {
	if r.Err != nil {
		return r.Err
	}
	r.Messages = append(r.Messages, Message{Channel: channel, Payload: payload, Broadcast: true})
	return nil
}

// LogRecord is a record captured by LogRecorder.
type LogRecord struct {
	Attrs   map[string]any
	Message string
	Level   slog.Level
}

// LogRecorder is a slog.Handler that keeps every record in memory.
type LogRecorder struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewLogger returns a logger writing to a new LogRecorder.
func NewLogger() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{}
	return slog.New(rec), rec
}

// Enabled implements slog.Handler.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *LogRecorder) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]any, record.NumAttrs())
	record.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, LogRecord{Level: record.Level, Message: record.Message, Attrs: attrs})
	return nil
}

// WithAttrs implements slog.Handler. Logger-level attrs are not tracked.
func (r *LogRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }

// WithGroup implements slog.Handler.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Records returns a copy of the captured records.
func (r *LogRecorder) Records() []LogRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogRecord(nil), r.records...)
}

// Messages returns the captured record messages in order.
func (r *LogRecorder) Messages() []string {
	var out []string
	for _, rec := range r.Records() {
		out = append(out, rec.Message)
	}
	return out
}
