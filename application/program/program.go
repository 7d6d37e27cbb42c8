// Package program ties an identity, a game loop, commands and channels into
// the unit the host drives through the three entry points.
package program

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/turbo-genesis/turbo-go/application/channel"
	"github.com/turbo-genesis/turbo-go/application/command"
	"github.com/turbo-genesis/turbo-go/application/lifecycle"
	"github.com/turbo-genesis/turbo-go/application/schema"
	"github.com/turbo-genesis/turbo-go/domain/entities"
	domainerrors "github.com/turbo-genesis/turbo-go/domain/errors"
)

// SDKVersion is recorded in every manifest.
const SDKVersion = "0.1.0"

// Program is a registered guest program. It holds no locks; the host never
// calls into one instance concurrently.
type Program struct {
	game     lifecycle.Runner
	commands *command.Dispatcher
	channels *channel.Manager
	logger   *slog.Logger
	identity entities.ProgramIdentity
}

// Option configures a Program.
type Option func(*Program)

// WithGame sets the frame loop run by Run.
func WithGame(r lifecycle.Runner) Option {
	return func(p *Program) {
		p.game = r
	}
}

// WithCommands sets the command dispatcher.
func WithCommands(d *command.Dispatcher) Option {
	return func(p *Program) {
		p.commands = d
	}
}

// WithChannels sets the channel manager.
func WithChannels(m *channel.Manager) Option {
	return func(p *Program) {
		p.channels = m
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Program) {
		p.logger = logger
	}
}

// New creates a Program. Missing commands or channels behave as empty
// registries.
func New(identity entities.ProgramIdentity, opts ...Option) (*Program, error) {
	if identity.IsZero() {
		return nil, &domainerrors.RegistrationError{Resource: "program", Name: identity.Name, Reason: "identity has not been derived"}
	}

	p := &Program{identity: identity}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With(slog.String("program", identity.Name))

	if p.commands == nil {
		d, err := command.NewDispatcher(command.WithLogger(p.logger))
		if err != nil {
			return nil, err
		}
		p.commands = d
	}
	if p.channels == nil {
		m, err := channel.NewManager(channel.WithLogger(p.logger))
		if err != nil {
			return nil, err
		}
		p.channels = m
	}
	return p, nil
}

// Identity returns the program identity.
func (p *Program) Identity() entities.ProgramIdentity { return p.identity }

// Commands returns the command dispatcher.
func (p *Program) Commands() *command.Dispatcher { return p.commands }

// Channels returns the channel manager.
func (p *Program) Channels() *channel.Manager { return p.channels }

// Run advances the game by one frame. Without a game it only logs.
func (p *Program) Run(ctx context.Context) {
	if p.game == nil {
		p.logger.DebugContext(ctx, "run called without a game loop")
		return
	}
	p.game.Run(ctx)
}

// DispatchCommand handles an encoded CommandRequest and returns the encoded
// Result.
func (p *Program) DispatchCommand(ctx context.Context, raw []byte) []byte {
	return p.commands.DispatchBytes(ctx, raw)
}

// DispatchChannelEvent handles an encoded ChannelEvent and returns the
// encoded acknowledgment.
func (p *Program) DispatchChannelEvent(ctx context.Context, raw []byte) []byte {
	return p.channels.DispatchBytes(ctx, raw)
}

type strategist interface {
	Strategy() lifecycle.Strategy
}

// Manifest describes the program and every registered command and channel.
func (p *Program) Manifest() (*entities.Manifest, error) {
	m := &entities.Manifest{
		Name:       p.identity.Name,
		ProgramID:  p.identity.ID,
		OwnerID:    p.identity.OwnerID.String(),
		SDKVersion: SDKVersion,
	}
	if s, ok := p.game.(strategist); ok {
		m.Strategy = s.Strategy().String()
	}

	for _, name := range p.commands.Names() {
		cm := entities.CommandManifest{Name: name}
		h, _ := p.commands.Handler(name)
		if typer, ok := h.(command.PayloadTyper); ok {
			s, err := schema.GenerateSchemaForType(typer.PayloadType())
			if err != nil {
				return nil, fmt.Errorf("command %s: %w", name, err)
			}
			cm.PayloadSchema = s
		}
		m.Commands = append(m.Commands, cm)
	}

	for _, name := range p.channels.Names() {
		h, _ := p.channels.Handler(name)
		send, err := schema.GenerateSchemaForType(h.SendType())
		if err != nil {
			return nil, fmt.Errorf("channel %s send: %w", name, err)
		}
		recv, err := schema.GenerateSchemaForType(h.RecvType())
		if err != nil {
			return nil, fmt.Errorf("channel %s recv: %w", name, err)
		}
		m.Channels = append(m.Channels, entities.ChannelManifest{
			Name:       name,
			IntervalMs: h.Settings().Interval.Milliseconds(),
			SendSchema: send,
			RecvSchema: recv,
		})
	}
	return m, nil
}

// Interval returns the interval configured for channel, or zero.
func (p *Program) Interval(channelName string) time.Duration {
	h, ok := p.channels.Handler(channelName)
	if !ok {
		return 0
	}
	return h.Settings().Interval
}
