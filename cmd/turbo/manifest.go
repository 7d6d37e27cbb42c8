package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/host"
	"github.com/turbo-genesis/turbo-go/infrastructure/parser"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest <program.wasm>",
	Short: "Print a compiled program's manifest",
	Long: `Load a compiled program and print the manifest it reports: its identity,
state strategy, commands and channels with their payload schemas.

The manifest is validated before it is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runManifest,
}

var checkCmd = &cobra.Command{
	Use:   "check <manifest.yaml>",
	Short: "Validate a manifest file",
	Long: `Validate a manifest file. The file is rendered as a Go template first;
pass values with --set key=value.

With --wasm the compiled program is loaded and checked against the file.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	manifestCmd.Flags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.AddCommand(manifestCmd)

	checkCmd.Flags().String("wasm", "", "Compiled program to verify against the manifest")
	checkCmd.Flags().StringArray("set", nil, "Template value key=value (repeatable)")
	rootCmd.AddCommand(checkCmd)
}

func runManifest(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cmd, args[0])
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	m, err := s.program.Manifest(ctx)
	if err != nil {
		return err
	}
	if err := host.NewLoader().Validate(m); err != nil {
		return err
	}
	return printManifest(cmd, m, format)
}

func printManifest(cmd *cobra.Command, m *entities.Manifest, format string) error {
	var (
		out []byte
		err error
	)
	if format == "json" {
		out, err = json.MarshalIndent(m, "", "  ")
		out = append(out, '\n')
	} else {
		out, err = parser.NewYamlManifestParser().Encode(m)
	}
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runCheck(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	sets, _ := cmd.Flags().GetStringArray("set")
	vars, err := parseSets(sets)
	if err != nil {
		return err
	}

	loader := host.NewLoader()
	declared, err := loader.LoadManifest(raw, vars)
	if err != nil {
		return err
	}

	wasmPath, _ := cmd.Flags().GetString("wasm")
	if wasmPath != "" {
		ctx := cmd.Context()
		s, err := openSession(ctx, cmd, wasmPath)
		if err != nil {
			return err
		}
		defer s.Close(ctx)

		actual, err := s.program.Manifest(ctx)
		if err != nil {
			return err
		}
		if err := loader.Verify(declared, actual); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d commands, %d channels)\n", declared.Name, len(declared.Commands), len(declared.Channels))
	return nil
}

func parseSets(sets []string) (map[string]any, error) {
	vars := make(map[string]any, len(sets))
	for _, kv := range sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q (expected key=value)", kv)
		}
		vars[k] = v
	}
	return vars, nil
}
