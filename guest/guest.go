// Package guest binds a registered program to the wasip1 exports the host
// calls and the turbo host imports the program calls back into.
//
// A guest program builds its Program in an init function and hands it to
// Register:
//
//	func init() {
//		rt, _ := guest.Setup()
//		hp := guest.HostPorts()
//		game, _ := lifecycle.New(newState, update,
//			lifecycle.WithStrategy(rt.Strategy()), lifecycle.WithStore(hp.Store))
//		p, _ := program.New(Identity, program.WithGame(game))
//		guest.Register(p)
//	}
package guest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/turbo-genesis/turbo-go/application/program"
	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/infrastructure/config"
	"github.com/turbo-genesis/turbo-go/log"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

var registered atomic.Pointer[program.Program]

// Register makes p the program served by the exports. A later call
// replaces the earlier program.
func Register(p *program.Program) {
	registered.Store(p)
}

// Registered returns the current program, if any.
func Registered() (*program.Program, bool) {
	p := registered.Load()
	return p, p != nil
}

// Setup loads the runtime config from the environment the host provided
// and installs the host log handler at the configured level.
func Setup() (config.Runtime, error) {
	rt, err := config.LoadRuntime()
	if err != nil {
		return config.Runtime{}, err
	}
	slog.SetDefault(slog.New(log.NewHandler(log.WithLevel(rt.Level()))))
	return rt, nil
}

var errNotRegistered = wireformat.Err(entities.ErrorKindNotFound, "no program registered")

// recoverInto turns a panic in an export into an encoded HandlerError so
// the host never sees a trap.
func recoverInto(out *[]byte, export string) {
	r := recover()
	if r == nil {
		return
	}
	slog.Error("guest export panicked", slog.String("export", export), slog.Any("panic", r))
	if out != nil {
		*out = wireformat.EncodeResult(wireformat.Err(entities.ErrorKindHandler, fmt.Sprintf("panic in %s: %v", export, r)))
	}
}

// pinResult hands out to the host through pin. If pin panics (the
// allocation limit was reached), reset drops every tracked buffer and a
// short Err result is pinned instead. Zero means nothing could be pinned.
func pinResult(export string, out []byte, pin func([]byte) uint64, reset func()) uint64 {
	packed, err := tryPin(pin, out)
	if err == nil {
		return packed
	}
	slog.Error("guest export could not return its result",
		slog.String("export", export),
		slog.Int("bytes", len(out)),
		slog.Any("error", err))

	reset()
	fallback := wireformat.EncodeResult(wireformat.Err(entities.ErrorKindHandler, fmt.Sprintf("%s: result not returned: %v", export, err)))
	packed, err = tryPin(pin, fallback)
	if err != nil {
		return 0
	}
	return packed
}

func tryPin(pin func([]byte) uint64, data []byte) (packed uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return pin(data), nil
}

func handleRun(ctx context.Context) {
	defer recoverInto(nil, "run")
	p, ok := Registered()
	if !ok {
		slog.WarnContext(ctx, "run called before a program was registered")
		return
	}
	p.Run(ctx)
}

func handleCommand(ctx context.Context, raw []byte) (out []byte) {
	defer recoverInto(&out, "dispatch_command")
	p, ok := Registered()
	if !ok {
		return wireformat.EncodeResult(errNotRegistered)
	}
	return p.DispatchCommand(ctx, raw)
}

func handleChannelEvent(ctx context.Context, raw []byte) (out []byte) {
	defer recoverInto(&out, "dispatch_channel_event")
	p, ok := Registered()
	if !ok {
		return wireformat.EncodeResult(errNotRegistered)
	}
	return p.DispatchChannelEvent(ctx, raw)
}

// handleManifest returns the program manifest as JSON inside an Ok result.
func handleManifest() (out []byte) {
	defer recoverInto(&out, "manifest")
	p, ok := Registered()
	if !ok {
		return wireformat.EncodeResult(errNotRegistered)
	}
	m, err := p.Manifest()
	if err != nil {
		return wireformat.EncodeResult(wireformat.ErrFrom(err))
	}
	data, err := json.Marshal(m)
	if err != nil {
		return wireformat.EncodeResult(wireformat.ErrFrom(err))
	}
	return wireformat.EncodeResult(wireformat.Ok(data))
}
