package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <program.wasm>",
	Short: "Drive a program's game loop",
	Long: `Load a compiled program and call its run export once per tick.

Channel messages the program sends are printed as they are queued. With
--reload the program file, and every path the program asked to watch, are
watched for changes; a change seen by the next tick reloads the module. Hot-reload programs keep
their state across reloads (set TURBO_HOT_RELOAD=true).`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int("frames", 1, "Number of frames to run (0: until interrupted)")
	runCmd.Flags().Duration("tick", 16*time.Millisecond, "Delay between frames")
	runCmd.Flags().Bool("reload", false, "Reload the program when it or a watched file changes")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	frames, _ := cmd.Flags().GetInt("frames")
	tick, _ := cmd.Flags().GetDuration("tick")
	reload, _ := cmd.Flags().GetBool("reload")
	if frames < 0 {
		return fmt.Errorf("--frames must not be negative")
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	var watcher *fileWatcher
	if reload {
		watcher, err = newFileWatcher(s.logger, args[0])
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for frame := 0; frames == 0 || frame < frames; frame++ {
		if frame > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}

		if watcher != nil {
			if err := s.reloadIfChanged(ctx, watcher, args[0]); err != nil {
				s.logger.ErrorContext(ctx, "reload failed", slog.Any("error", err))
			}
		}

		if err := s.program.Run(ctx); err != nil {
			return err
		}
		s.flushOutbox(cmd)
	}
	return nil
}

func (s *session) reloadIfChanged(ctx context.Context, w *fileWatcher, wasmPath string) error {
	for _, path := range s.watches.Paths() {
		if err := w.add(path); err != nil {
			s.logger.WarnContext(ctx, "cannot watch path", slog.String("path", path), slog.Any("error", err))
		}
	}
	changed := w.changed()
	if len(changed) == 0 {
		return nil
	}
	s.logger.InfoContext(ctx, "change detected", slog.Any("paths", changed))

	wasm, err := os.ReadFile(wasmPath)
	if err != nil {
		return err
	}
	return s.program.Reload(ctx, wasm)
}
