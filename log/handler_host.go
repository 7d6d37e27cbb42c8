//go:build !wasip1

package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Handle writes the encoded record to stderr. Used when guest code runs
// natively, e.g. in unit tests.
func (h *WasmLogHandler) Handle(_ context.Context, record slog.Record) error {
	data, err := Encode(h.message(record))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(os.Stderr, "%s\n", data)
	return err
}
