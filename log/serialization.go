package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"
)

// LogMessageWire is the JSON wire format for a log message from guest to host.
type LogMessageWire struct {
	Timestamp time.Time     `json:"timestamp"`
	Attrs     []LogAttrWire `json:"attrs,omitempty"`
	Level     string        `json:"level"`
	Message   string        `json:"message"`
	Source    string        `json:"source,omitempty"`
}

// LogAttrWire represents a single slog attribute for wire transfer.
type LogAttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "uint64", "bool", "float64", "time", "duration", "error", "json", "any"
	Value string `json:"value"` // String representation of the value
}

// Encode marshals msg for the host.
func Encode(msg LogMessageWire) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode log message: %w", err)
	}
	return data, nil
}

// Decode parses a message produced by Encode.
func Decode(data []byte) (LogMessageWire, error) {
	var msg LogMessageWire
	if err := json.Unmarshal(data, &msg); err != nil {
		return LogMessageWire{}, fmt.Errorf("failed to decode log message: %w", err)
	}
	return msg, nil
}

// SlogLevel parses Level, defaulting to Info.
func (m LogMessageWire) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(m.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Args flattens Attrs into slog key/value arguments for re-logging on the
// host. Values stay in their string form.
func (m LogMessageWire) Args() []any {
	args := make([]any, 0, len(m.Attrs)+1)
	if m.Source != "" {
		args = append(args, slog.String("source", m.Source))
	}
	for _, a := range m.Attrs {
		args = append(args, slog.String(a.Key, a.Value))
	}
	return args
}

// appendAttr flattens a into out, expanding groups with dotted keys.
func appendAttr(out []LogAttrWire, prefix string, a slog.Attr) []LogAttrWire {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if a.Key != "" {
			prefix = joinKey(prefix, a.Key)
		}
		for _, ga := range group {
			out = appendAttr(out, prefix, ga)
		}
		return out
	}
	if a.Equal(slog.Attr{}) {
		return out
	}
	a.Key = joinKey(prefix, a.Key)
	return append(out, toLogAttrWire(a))
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// toLogAttrWire converts a slog.Attr to LogAttrWire.
func toLogAttrWire(attr slog.Attr) LogAttrWire {
	wire := LogAttrWire{
		Key: attr.Key,
	}
	attr.Value = attr.Value.Resolve()

	switch attr.Value.Kind() {
	case slog.KindString:
		wire.Type = "string"
		wire.Value = attr.Value.String()
	case slog.KindInt64:
		wire.Type = "int64"
		wire.Value = fmt.Sprintf("%d", attr.Value.Int64())
	case slog.KindUint64:
		wire.Type = "uint64"
		wire.Value = fmt.Sprintf("%d", attr.Value.Uint64())
	case slog.KindBool:
		wire.Type = "bool"
		wire.Value = fmt.Sprintf("%t", attr.Value.Bool())
	case slog.KindFloat64:
		wire.Type = "float64"
		wire.Value = fmt.Sprintf("%f", attr.Value.Float64())
	case slog.KindTime:
		wire.Type = "time"
		wire.Value = attr.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		wire.Type = "duration"
		wire.Value = attr.Value.Duration().String()
	case slog.KindAny:
		if v := attr.Value.Any(); v != nil {
			if err, isErr := v.(error); isErr {
				wire.Type = "error"
				wire.Value = err.Error()
			} else if data, marshalErr := json.Marshal(v); marshalErr == nil {
				wire.Type = "json"
				wire.Value = string(data)
			} else {
				wire.Type = "any"
				wire.Value = fmt.Sprintf("%v", v)
			}
		} else {
			wire.Type = "any"
			wire.Value = "<nil>"
		}
	default:
		wire.Type = "any"
		wire.Value = fmt.Sprintf("%v", attr.Value.Any())
	}
	return wire
}

func sourceOf(pc uintptr) string {
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	if f.File == "" {
		return ""
	}
	file := f.File
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	return fmt.Sprintf("%s:%d", file, f.Line)
}
