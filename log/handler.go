// Package log provides structured logging (slog) for guest programs. Records
// are encoded as JSON and handed to the host through the turbo.log import.
package log

import (
	"context"
	"log/slog"
	"strings"
)

// WasmLogHandler implements slog.Handler to route logs through a host function.
type WasmLogHandler struct {
	attrs  []slog.Attr
	groups []string
	opts   handlerConfig
}

// HandlerOption configures the WasmLogHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     slog.Leveler
	addSource bool
}

func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
// Records below this level are filtered on the guest side.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// NewHandler creates a new WasmLogHandler with the given options.
func NewHandler(opts ...HandlerOption) *WasmLogHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &WasmLogHandler{opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *WasmLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *WasmLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := h.clone()
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, h.qualify(a))
	}
	return clone
}

// WithGroup returns a handler that prefixes later attribute keys with name.
func (h *WasmLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *WasmLogHandler) clone() *WasmLogHandler {
	return &WasmLogHandler{
		opts:   h.opts,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

// qualify prefixes a's key with the open groups, dotted.
func (h *WasmLogHandler) qualify(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 {
		return a
	}
	a.Key = strings.Join(h.groups, ".") + "." + a.Key
	return a
}

// message builds the wire form of record, including handler attrs.
func (h *WasmLogHandler) message(record slog.Record) LogMessageWire {
	msg := LogMessageWire{
		Level:     record.Level.String(),
		Message:   record.Message,
		Timestamp: record.Time,
	}
	if h.opts.addSource && record.PC != 0 {
		msg.Source = sourceOf(record.PC)
	}
	for _, a := range h.attrs {
		msg.Attrs = appendAttr(msg.Attrs, "", a)
	}
	record.Attrs(func(a slog.Attr) bool {
		msg.Attrs = appendAttr(msg.Attrs, "", h.qualify(a))
		return true
	})
	return msg
}
