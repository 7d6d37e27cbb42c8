package host

import (
	"io"
	"log/slog"

	"github.com/turbo-genesis/turbo-go/domain/ports"
	"github.com/turbo-genesis/turbo-go/hostfuncs"
	"github.com/turbo-genesis/turbo-go/infrastructure/config"
	wazeroadapter "github.com/turbo-genesis/turbo-go/infrastructure/wazero"
)

type executorConfig struct {
	registry    *hostfuncs.HandlerRegistry
	collab      hostfuncs.Collaborators
	logger      *slog.Logger
	stdout      io.Writer
	stderr      io.Writer
	adapterOpts []wazeroadapter.AdapterOption
	runtime     config.Runtime
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		logger: slog.Default(),
		runtime: config.Runtime{
			LogLevel:      "info",
			StateCapacity: config.DefaultStateCapacity,
		},
	}
}

// Option defines a functional option for configuring the Executor.
type Option func(*executorConfig)

// WithHostFunctions replaces the default host function registry. The
// collaborator options are ignored when a registry is supplied.
func WithHostFunctions(registry *hostfuncs.HandlerRegistry) Option {
	return func(c *executorConfig) {
		c.registry = registry
	}
}

// WithRuntimeConfig sets the environment passed to guests and selects the
// default state store.
func WithRuntimeConfig(rt config.Runtime) Option {
	return func(c *executorConfig) {
		c.runtime = rt
	}
}

// WithStore sets the store behind hot_load and hot_save.
func WithStore(store ports.StateStore) Option {
	return func(c *executorConfig) {
		c.collab.Store = store
	}
}

// WithTransport sets the transport behind channel_send.
func WithTransport(t ports.ChannelTransport) Option {
	return func(c *executorConfig) {
		c.collab.Transport = t
	}
}

// WithWatchSink sets the sink behind watch.
func WithWatchSink(sink ports.WatchSink) Option {
	return func(c *executorConfig) {
		c.collab.Watch = sink
	}
}

// WithLogger sets the logger used by the executor and the guest log sink.
func WithLogger(logger *slog.Logger) Option {
	return func(c *executorConfig) {
		c.logger = logger
	}
}

// WithOutput connects the guest's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *executorConfig) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithAdapterOptions passes options through to the host module adapter.
func WithAdapterOptions(opts ...wazeroadapter.AdapterOption) Option {
	return func(c *executorConfig) {
		c.adapterOpts = append(c.adapterOpts, opts...)
	}
}
