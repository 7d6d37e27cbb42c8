package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turbo-genesis/turbo-go/host"
	"github.com/turbo-genesis/turbo-go/hostfuncs"
	"github.com/turbo-genesis/turbo-go/infrastructure/config"
	"github.com/turbo-genesis/turbo-go/wireformat"
)

var rootCmd = &cobra.Command{
	Use:   "turbo",
	Short: "Build and run turbo programs",
	Long: `turbo - Tooling for turbo programs compiled to WebAssembly.

Derive a program id from turbo.toml, generate the identity constants a
program embeds, print a compiled program's manifest, and drive a program's
game loop, commands and channels from the command line.

Runtime settings are read from TURBO_* environment variables.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("project", "p", config.ProjectFile, "Path to the project file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default: $TURBO_LOG_LEVEL)")
}

// cancelError reports a command or event the program rejected. The CLI
// exits with the cancel code for it.
type cancelError struct {
	msg string
}

func (e *cancelError) Error() string { return e.msg }

func exitCode(err error) int {
	var cancel *cancelError
	if errors.As(err, &cancel) {
		return wireformat.ExitCancel
	}
	return 2
}

func loadRuntime(cmd *cobra.Command) (config.Runtime, error) {
	rt, err := config.LoadRuntime()
	if err != nil {
		return config.Runtime{}, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		rt.LogLevel = level
	}
	return rt, nil
}

func newLogger(cmd *cobra.Command, rt config.Runtime) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: rt.Level()}))
}

// session is a loaded program with the host collaborators the CLI reads
// back after each call.
type session struct {
	executor *host.Executor
	program  *host.ProgramInstance
	outbox   *hostfuncs.Outbox
	watches  *hostfuncs.WatchList
	logger   *slog.Logger
}

func openSession(ctx context.Context, cmd *cobra.Command, wasmPath string, opts ...host.Option) (*session, error) {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return nil, err
	}
	wasm, err := os.ReadFile(wasmPath)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}

	s := &session{
		outbox:  hostfuncs.NewOutbox(),
		watches: hostfuncs.NewWatchList(nil),
		logger:  newLogger(cmd, rt),
	}
	opts = append([]host.Option{
		host.WithRuntimeConfig(rt),
		host.WithLogger(s.logger),
		host.WithTransport(s.outbox),
		host.WithWatchSink(s.watches),
		host.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}, opts...)

	s.executor, err = host.NewExecutor(ctx, opts...)
	if err != nil {
		return nil, err
	}
	s.program, err = s.executor.Load(ctx, wasm)
	if err != nil {
		_ = s.executor.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *session) Close(ctx context.Context) {
	if err := s.executor.Close(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to close executor", slog.Any("error", err))
	}
}

// flushOutbox prints every message the program queued for clients.
func (s *session) flushOutbox(cmd *cobra.Command) {
	for _, msg := range s.outbox.Drain() {
		target := msg.UserID
		if msg.Broadcast {
			target = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "channel %s -> %s: %x\n", msg.Channel, target, msg.Payload)
	}
}
