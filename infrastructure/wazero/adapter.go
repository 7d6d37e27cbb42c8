package wazero

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/hostfuncs"
	"github.com/turbo-genesis/turbo-go/internal/abi"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

// DefaultModuleName is the import module guests link against.
const DefaultModuleName = "turbo"

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// VoidFunctions are exported as (i64) -> () and their reply is dropped.
	VoidFunctions map[string]bool

	// Logger receives adapter-level failures.
	Logger *slog.Logger

	// ModuleName is the host module name (default: "turbo").
	ModuleName string

	// MaxRequestSize limits the size of incoming requests from guest memory.
	MaxRequestSize uint32
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxRequestSize sets the maximum request size from guest memory.
func WithMaxRequestSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxRequestSize = size
	}
}

// WithVoidFunction exports name without a result.
func WithVoidFunction(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.VoidFunctions[name] = true
	}
}

// WithLogger sets the adapter logger.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(c *AdapterConfig) {
		c.Logger = logger
	}
}

func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:     DefaultModuleName,
		MaxRequestSize: hostfuncs.DefaultMaxRequestSize,
		VoidFunctions:  map[string]bool{hostfuncs.FuncLog: true},
		Logger:         slog.Default(),
	}
}

// RegisterWithRuntime exports every handler in registry from a host module
// named "turbo" (by default).
//
// Each handler is wrapped to:
//   - Read request bytes from guest memory using the packed i64 ptr+len format
//   - Invoke the ByteHandler with the request payload
//   - Allocate reply memory in the guest using the "allocate" export
//   - Return packed i64 ptr+len of the reply
//
// Example:
//
//	registry, _ := hostfuncs.NewRegistry(
//	    hostfuncs.WithBundle(hostfuncs.AllBundles(hostfuncs.Collaborators{Store: store})),
//	)
//	err := wazero.RegisterWithRuntime(ctx, runtime, registry)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.HandlerRegistry, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)
	for _, name := range registry.Names() {
		funcName := name
		results := []api.ValueType{api.ValueTypeI64}
		if cfg.VoidFunctions[funcName] {
			results = nil
		}
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				mem, err := NewGuestMemory(mod)
				if err != nil {
					cfg.Logger.ErrorContext(ctx, "wazero: cannot serve host call", slog.String("function", funcName), slog.Any("error", err))
					if results != nil {
						stack[0] = 0
					}
					return
				}
				reply := cfg.call(ctx, mem, registry, funcName, stack[0])
				if results != nil {
					stack[0] = reply
				}
			}), []api.ValueType{api.ValueTypeI64}, results).
			Export(funcName)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("instantiate host module %s: %w", cfg.ModuleName, err)
	}
	return nil
}

// call reads the request, invokes the handler and writes the reply back
// into guest memory. Failures are answered with an encoded Err result.
func (cfg AdapterConfig) call(ctx context.Context, mem *GuestMemory, registry *hostfuncs.HandlerRegistry, name string, packed uint64) uint64 {
	ptr, length, err := abi.UnpackPtrLen(packed)
	if err != nil {
		return cfg.reply(ctx, mem, name, hostfuncs.NewDecodeError(name+" request", err))
	}

	if length > cfg.MaxRequestSize {
		return cfg.reply(ctx, mem, name, hostfuncs.NewDecodeError(name+" request",
			fmt.Errorf("request size %d exceeds maximum %d bytes", length, cfg.MaxRequestSize)))
	}

	request, err := mem.Read(ptr, length)
	if err != nil {
		cfg.Logger.ErrorContext(ctx, "wazero: failed to read request from guest memory", slog.String("function", name), slog.Any("error", err))
		return cfg.reply(ctx, mem, name, wireformat.EncodeResult(wireformat.Err(entities.ErrorKindUnknown, err.Error())))
	}

	response, err := registry.Invoke(ctx, name, request)
	if err != nil {
		cfg.Logger.ErrorContext(ctx, "wazero: handler invocation failed", slog.String("function", name), slog.Any("error", err))
		response = wireformat.EncodeResult(wireformat.Err(entities.ErrorKindUnknown, err.Error()))
	}
	return cfg.reply(ctx, mem, name, response)
}

func (cfg AdapterConfig) reply(ctx context.Context, mem *GuestMemory, name string, data []byte) uint64 {
	if cfg.VoidFunctions[name] || len(data) == 0 {
		return 0
	}
	packed, err := mem.WritePacked(ctx, data)
	if err != nil {
		cfg.Logger.ErrorContext(ctx, "wazero: failed to write reply to guest memory", slog.String("function", name), slog.Any("error", err))
		return 0
	}
	return packed
}
