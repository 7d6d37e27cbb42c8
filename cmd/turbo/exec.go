package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turbo-genesis/turbo-go/wireformat"
)

var execCmd = &cobra.Command{
	Use:   "exec <program.wasm> <command>",
	Short: "Dispatch a command to a program",
	Long: `Load a compiled program and dispatch one command on behalf of a user.

The payload is given as hex with --payload or read raw from --payload-file.
On success the response payload is printed as hex. A rejected command exits
with status 1.`,
	Args: cobra.ExactArgs(2),
	RunE: runExec,
}

var channelCmd = &cobra.Command{
	Use:   "channel <program.wasm> <channel> <connect|data|interval|close>",
	Short: "Deliver a channel event to a program",
	Long: `Load a compiled program and deliver channel events to it.

A data or close event for a user is preceded by a connect for the same
user, since each invocation starts a fresh module. Messages the program
sends in response are printed.`,
	Args: cobra.ExactArgs(3),
	RunE: runChannel,
}

func init() {
	for _, c := range []*cobra.Command{execCmd, channelCmd} {
		c.Flags().StringP("user", "u", "", "User id")
		c.Flags().String("payload", "", "Payload as hex")
		c.Flags().String("payload-file", "", "Read the payload from a file")
		rootCmd.AddCommand(c)
	}
}

func readPayload(cmd *cobra.Command) ([]byte, error) {
	hexPayload, _ := cmd.Flags().GetString("payload")
	file, _ := cmd.Flags().GetString("payload-file")
	switch {
	case hexPayload != "" && file != "":
		return nil, fmt.Errorf("--payload and --payload-file are mutually exclusive")
	case file != "":
		return os.ReadFile(file)
	case hexPayload != "":
		data, err := hex.DecodeString(hexPayload)
		if err != nil {
			return nil, fmt.Errorf("invalid --payload: %w", err)
		}
		return data, nil
	}
	return nil, nil
}

func runExec(cmd *cobra.Command, args []string) error {
	payload, err := readPayload(cmd)
	if err != nil {
		return err
	}
	user, _ := cmd.Flags().GetString("user")

	ctx := cmd.Context()
	s, err := openSession(ctx, cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	res, err := s.program.DispatchCommand(ctx, wireformat.CommandRequest{Name: args[1], UserID: user, Payload: payload})
	if err != nil {
		return err
	}
	s.flushOutbox(cmd)
	return printResult(cmd, res)
}

func runChannel(cmd *cobra.Command, args []string) error {
	code, err := wireformat.ParseEventCode(args[2])
	if err != nil {
		return err
	}
	payload, err := readPayload(cmd)
	if err != nil {
		return err
	}
	user, _ := cmd.Flags().GetString("user")

	ctx := cmd.Context()
	s, err := openSession(ctx, cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	events := []wireformat.ChannelEvent{{Code: code, Channel: args[1], UserID: user, Payload: payload}}
	if code == wireformat.EventData || code == wireformat.EventClose {
		events = append([]wireformat.ChannelEvent{{Code: wireformat.EventConnect, Channel: args[1], UserID: user}}, events...)
	}

	for _, ev := range events {
		res, err := s.program.DispatchChannelEvent(ctx, ev)
		if err != nil {
			return err
		}
		s.flushOutbox(cmd)
		if err := printResult(cmd, res); err != nil {
			return err
		}
	}
	return nil
}

func printResult(cmd *cobra.Command, res wireformat.Result) error {
	if !res.OK {
		return &cancelError{msg: fmt.Sprintf("%s: %s", res.Kind, res.Message)}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok %x\n", res.Payload)
	return nil
}
