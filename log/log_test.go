package log

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToLogAttrWire(t *testing.T) {
	tests := []struct {
		name     string
		attr     slog.Attr
		wantType string
		wantVal  string
	}{
		{
			name:     "string",
			attr:     slog.String("key", "value"),
			wantType: "string",
			wantVal:  "value",
		},
		{
			name:     "int64",
			attr:     slog.Int64("key", 123),
			wantType: "int64",
			wantVal:  "123",
		},
		{
			name:     "bool",
			attr:     slog.Bool("key", true),
			wantType: "bool",
			wantVal:  "true",
		},
		{
			name:     "float64",
			attr:     slog.Float64("key", 1.23),
			wantType: "float64",
			wantVal:  "1.230000",
		},
		{
			name:     "time",
			attr:     slog.Time("key", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			wantType: "time",
			wantVal:  "2024-01-01T00:00:00Z",
		},
		{
			name:     "duration",
			attr:     slog.Duration("key", 1*time.Hour),
			wantType: "duration",
			wantVal:  "1h0m0s",
		},
		{
			name:     "error",
			attr:     slog.Any("key", errors.New("test error")),
			wantType: "error",
			wantVal:  "test error",
		},
		{
			name:     "nil",
			attr:     slog.Any("key", nil),
			wantType: "any",
			wantVal:  "<nil>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := toLogAttrWire(tt.attr)
			assert.Equal(t, tt.attr.Key, wire.Key)
			assert.Equal(t, tt.wantType, wire.Type)
			assert.Equal(t, tt.wantVal, wire.Value)
		})
	}
}

func TestToLogAttrWire_JSON(t *testing.T) {
	// Test structured object that should be serialized as JSON
	type MyStruct struct {
		Field string `json:"field"`
	}
	obj := MyStruct{Field: "data"}
	attr := slog.Any("key", obj)

	wire := toLogAttrWire(attr)
	assert.Equal(t, "key", wire.Key)
	assert.Equal(t, "json", wire.Type)

	var decoded MyStruct
	err := json.Unmarshal([]byte(wire.Value), &decoded)
	require.NoError(t, err)
	assert.Equal(t, obj, decoded)
}

func TestToLogAttrWire_LogValuer(t *testing.T) {
	// Test types that implement LogValuer
	attr := slog.Any("key", logValuer{val: "resolved"})
	wire := toLogAttrWire(attr)

	assert.Equal(t, "key", wire.Key)
	assert.Equal(t, "string", wire.Type)
	assert.Equal(t, "resolved", wire.Value)
}

type logValuer struct {
	val string
}

func (l logValuer) LogValue() slog.Value {
	return slog.StringValue(l.val)
}

func TestNewHandler_Defaults(t *testing.T) {
	h := NewHandler()
	assert.True(t, h.Enabled(context.TODO(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.TODO(), slog.LevelDebug))
}

func TestNewHandler_Options(t *testing.T) {
	h := NewHandler(
		WithLevel(slog.LevelDebug),
		WithSource(true),
	)
	assert.True(t, h.Enabled(context.TODO(), slog.LevelDebug))

	var pcs [1]uintptr
	runtime.Callers(1, pcs[:])
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "with source", pcs[0])
	msg := h.message(record)
	assert.Contains(t, msg.Source, "log_test.go:")
}

func TestHandler_AttrsAndGroups(t *testing.T) {
	var h slog.Handler = NewHandler()
	h = h.WithAttrs([]slog.Attr{slog.String("program", "counter")})
	h = h.WithGroup("cmd")
	h = h.WithAttrs([]slog.Attr{slog.String("name", "add")})

	record := slog.NewRecord(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), slog.LevelWarn, "command failed", 0)
	record.AddAttrs(
		slog.Int("amount", 3),
		slog.Group("user", slog.String("id", "u1")),
	)

	msg := h.(*WasmLogHandler).message(record)
	assert.Equal(t, "WARN", msg.Level)
	assert.Equal(t, "command failed", msg.Message)

	keys := make([]string, 0, len(msg.Attrs))
	for _, a := range msg.Attrs {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{"program", "cmd.name", "cmd.amount", "cmd.user.id"}, keys)
}

func TestHandler_DoesNotShareState(t *testing.T) {
	base := NewHandler()
	a := base.WithAttrs([]slog.Attr{slog.String("a", "1")}).(*WasmLogHandler)
	b := base.WithAttrs([]slog.Attr{slog.String("b", "2")}).(*WasmLogHandler)

	assert.Empty(t, base.attrs)
	require.Len(t, a.attrs, 1)
	require.Len(t, b.attrs, 1)
	assert.Equal(t, "a", a.attrs[0].Key)
	assert.Equal(t, "b", b.attrs[0].Key)
	assert.Same(t, base, base.WithGroup(""))
}

func TestEncodeDecode(t *testing.T) {
	in := LogMessageWire{
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Level:     "DEBUG",
		Message:   "tick",
		Source:    "main.go:12",
		Attrs:     []LogAttrWire{{Key: "frame", Type: "int64", Value: "7"}},
	}

	data, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, slog.LevelDebug, out.SlogLevel())
	assert.Equal(t, []any{slog.String("source", "main.go:12"), slog.String("frame", "7")}, out.Args())

	_, err = Decode([]byte("{"))
	assert.Error(t, err)

	assert.Equal(t, slog.LevelInfo, LogMessageWire{Level: "LOUD"}.SlogLevel())
}
