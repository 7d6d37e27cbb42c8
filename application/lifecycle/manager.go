// Package lifecycle sequences loading, updating and persisting game state
// around each run call.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
	"github.com/turbo-genesis/turbo-go/domain/ports"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

// Runner is a frame update entry point.
type Runner interface {
	Run(ctx context.Context)
}

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	store    ports.StateStore
	logger   *slog.Logger
	strategy Strategy
}

// WithStrategy selects the state strategy. The default is StrategyStatic.
func WithStrategy(s Strategy) Option {
	return func(c *managerConfig) {
		c.strategy = s
	}
}

// WithStore sets the host store used by StrategyHotReload.
func WithStore(store ports.StateStore) Option {
	return func(c *managerConfig) {
		c.store = store
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *managerConfig) {
		c.logger = logger
	}
}

// Manager owns the game state of type S. Run is not safe for concurrent use;
// the host never calls entry points simultaneously.
type Manager[S any] struct {
	init   func() S
	update func(*S)
	store  ports.StateStore
	logger *slog.Logger

	state       S
	strategy    Strategy
	initialized bool
}

// New creates a Manager. init builds fresh state and update advances it by
// one frame.
func New[S any](init func() S, update func(*S), opts ...Option) (*Manager[S], error) {
	cfg := managerConfig{strategy: StrategyStatic}
	for _, opt := range opts {
		opt(&cfg)
	}

	if init == nil {
		return nil, &domainerrors.RegistrationError{Resource: "state", Reason: "init function is nil"}
	}
	if update == nil {
		return nil, &domainerrors.RegistrationError{Resource: "state", Reason: "update function is nil"}
	}
	if cfg.strategy != StrategyStatic && cfg.strategy != StrategyHotReload {
		return nil, &domainerrors.RegistrationError{Resource: "state", Reason: fmt.Sprintf("unknown strategy %s", cfg.strategy)}
	}
	if cfg.strategy == StrategyHotReload && cfg.store == nil {
		return nil, &domainerrors.RegistrationError{Resource: "state", Reason: "hot reload requires a state store"}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return &Manager[S]{
		init:     init,
		update:   update,
		store:    cfg.store,
		logger:   cfg.logger,
		strategy: cfg.strategy,
	}, nil
}

// Strategy returns the strategy chosen at construction.
func (m *Manager[S]) Strategy() Strategy {
	return m.strategy
}

// Run performs one frame: obtain state, update it, and persist it when
// hot reloading. Failures to load or save are logged, never returned.
func (m *Manager[S]) Run(ctx context.Context) {
	if m.strategy == StrategyHotReload {
		m.runHotReload(ctx)
		return
	}
	m.runStatic()
}

func (m *Manager[S]) runStatic() {
	if !m.initialized {
		m.state = m.init()
		m.initialized = true
	}
	m.update(&m.state)
}

func (m *Manager[S]) runHotReload(ctx context.Context) {
	state, err := m.load(ctx)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, errNoState) {
			level = slog.LevelInfo
		}
		m.logger.Log(ctx, level, "initializing game state",
			slog.String("strategy", m.strategy.String()),
			slog.Any("error", err))
		state = m.init()
	}

	m.update(&state)

	data, err := wireformat.Marshal(state)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to encode game state", slog.Any("error", err))
		return
	}
	if err := m.store.Save(ctx, data); err != nil {
		m.logger.ErrorContext(ctx, "failed to save game state",
			slog.Int("bytes", len(data)),
			slog.Any("error", err))
	}
}

// errNoState marks a store with nothing saved yet.
var errNoState = errors.New("no saved state")

func (m *Manager[S]) load(ctx context.Context) (S, error) {
	var state S

	data, err := m.store.Load(ctx)
	if err != nil {
		return state, &domainerrors.InitializationError{Err: fmt.Errorf("load: %w", err)}
	}
	if len(data) == 0 {
		return state, &domainerrors.InitializationError{Err: errNoState}
	}
	if err := wireformat.Unmarshal(data, &state); err != nil {
		return state, &domainerrors.InitializationError{Err: err}
	}
	return state, nil
}

// State returns the in-memory state and whether it has been initialized.
// It is only meaningful for StrategyStatic.
func (m *Manager[S]) State() (S, bool) {
	return m.state, m.initialized
}
