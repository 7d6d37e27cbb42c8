package hostfuncs

import (
	"context"
	"log/slog"

	"github.com/turbo-genesis/turbo-go/log"
)

// NewLogSink returns the handler for the guest's log import. Records are
// re-logged on logger with their original level; malformed records are
// logged as raw text. It always returns a nil reply.
func NewLogSink(logger *slog.Logger) ByteHandler {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		msg, err := log.Decode(payload)
		if err != nil {
			logger.WarnContext(ctx, "malformed guest log record", slog.String("raw", string(payload)))
			return nil, nil
		}
		args := msg.Args()
		if hc, ok := ctx.(HostContext); ok && hc.ProgramID() != "" {
			args = append(args, slog.String("program_id", hc.ProgramID()))
		}
		logger.Log(ctx, msg.SlogLevel(), msg.Message, args...)
		return nil, nil
	}
}
