package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// logEntry is a captured log record.
type logEntry struct {
	level slog.Level
	msg   string
	attrs map[string]string
}

// testLogHandler captures log records for assertions.
type testLogHandler struct {
	mu      sync.Mutex
	entries []logEntry
}

func (h *testLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *testLogHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := logEntry{
		level: r.Level,
		msg:   r.Message,
		attrs: map[string]string{},
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.attrs[a.Key] = a.Value.String()
		return true
	})

	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()
	return nil
}

func (h *testLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *testLogHandler) WithGroup(name string) slog.Handler {
	return h
}

// find returns the entries with the given message.
func (h *testLogHandler) find(msg string) []logEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []logEntry
	for _, e := range h.entries {
		if e.msg == msg {
			out = append(out, e)
		}
	}
	return out
}

// fastPolicy retries without meaningful delay.
func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		BaseDelay:   time.Microsecond,
		MaxDelay:    time.Millisecond,
	}
}
