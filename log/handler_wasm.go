//go:build wasip1

package log

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/turbo-genesis/turbo-go/internal/abi"
)

// host_log hands an encoded LogMessageWire to the host. It has no result.
//
//go:wasmimport turbo log
//nolint:revive // intentional snake_case to match WASM import convention
func host_log(messagePacked uint64)

// Handle serializes a slog.Record and sends it to the host.
func (h *WasmLogHandler) Handle(_ context.Context, record slog.Record) error {
	data, err := Encode(h.message(record))
	if err != nil {
		fmt.Printf("turbo: failed to marshal log message for host: %v, original: %s\n", err, record.Message)
		return nil
	}

	host_log(abi.Hold(data))
	runtime.KeepAlive(data)
	return nil
}

func init() {
	slog.SetDefault(slog.New(NewHandler()))
}
