package host

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/turbo-genesis/turbo-go/domain/ports"
	"github.com/turbo-genesis/turbo-go/hostfuncs"
	wazeroadapter "github.com/turbo-genesis/turbo-go/infrastructure/wazero"
)

// Executor manages the wazero runtime that turbo programs run in.
type Executor struct {
	runtime  wazero.Runtime
	registry *hostfuncs.HandlerRegistry
	store    ports.StateStore
	config   executorConfig
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.collab.Store == nil {
		cfg.collab.Store = defaultStore(cfg)
	}
	if cfg.collab.Logger == nil {
		cfg.collab.Logger = cfg.logger
	}

	e := &Executor{config: cfg, registry: cfg.registry, store: cfg.collab.Store}
	if e.registry == nil {
		reg, err := hostfuncs.NewRegistry(
			hostfuncs.WithMiddleware(
				hostfuncs.PanicRecoveryMiddleware(),
				hostfuncs.LoggingMiddleware(cfg.logger),
			),
			hostfuncs.WithBundle(hostfuncs.AllBundles(cfg.collab)),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create default registry: %w", err)
		}
		e.registry = reg
	}

	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate wasi: %w", err)
	}

	adapterOpts := append([]wazeroadapter.AdapterOption{wazeroadapter.WithLogger(cfg.logger)}, cfg.adapterOpts...)
	if err := wazeroadapter.RegisterWithRuntime(ctx, rt, e.registry, adapterOpts...); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	e.runtime = rt
	return e, nil
}

func defaultStore(cfg executorConfig) ports.StateStore {
	capacity := hostfuncs.WithCapacity(cfg.runtime.StateCapacity)
	if cfg.runtime.StateFile != "" {
		return hostfuncs.NewFileStore(cfg.runtime.StateFile, capacity)
	}
	return hostfuncs.NewHotStore(capacity)
}

// Store returns the state store shared by every program this executor
// loads.
func (e *Executor) Store() ports.StateStore { return e.store }

// Close releases resources held by the executor, including every loaded
// program.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Load instantiates a program from wasm bytes and calls its reactor
// initializer. The program's manifest is read once to learn its id.
func (e *Executor) Load(ctx context.Context, wasm []byte) (*ProgramInstance, error) {
	g, err := e.instantiate(ctx, wasm)
	if err != nil {
		return nil, err
	}

	p := &ProgramInstance{
		guest:  g,
		load:   e.instantiate,
		logger: e.config.logger,
	}
	p.identify(ctx)
	return p, nil
}

func (e *Executor) instantiate(ctx context.Context, wasm []byte) (guest, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	// Reactors have no _start; _initialize is called explicitly below. An
	// empty name lets the same program be instantiated more than once.
	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions().
		WithSysWalltime().
		WithSysNanotime()
	if e.config.stdout != nil {
		modCfg = modCfg.WithStdout(e.config.stdout)
	}
	if e.config.stderr != nil {
		modCfg = modCfg.WithStderr(e.config.stderr)
	}
	environ := e.config.runtime.Environ()
	for _, k := range slices.Sorted(maps.Keys(environ)) {
		modCfg = modCfg.WithEnv(k, environ[k])
	}

	mod, err := e.runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	g := &wasmGuest{module: mod, compiled: compiled}
	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = g.close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	g.mem, err = wazeroadapter.NewGuestMemory(mod)
	if err != nil {
		_ = g.close(ctx)
		return nil, err
	}
	return g, nil
}

// wasmGuest is a guest backed by a wazero module.
type wasmGuest struct {
	module   api.Module
	compiled wazero.CompiledModule
	mem      *wazeroadapter.GuestMemory
}

func (g *wasmGuest) call(ctx context.Context, export string, params ...uint64) ([]uint64, error) {
	fn := g.module.ExportedFunction(export)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingExport, export)
	}
	return fn.Call(ctx, params...)
}

func (g *wasmGuest) memory() *wazeroadapter.GuestMemory { return g.mem }

func (g *wasmGuest) close(ctx context.Context) error {
	err := g.module.Close(ctx)
	if cerr := g.compiled.Close(ctx); err == nil {
		err = cerr
	}
	return err
}
