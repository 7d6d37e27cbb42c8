package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/turbo-genesis/turbo-go/application/identity"
	apptemplate "github.com/turbo-genesis/turbo-go/application/template"
	"github.com/turbo-genesis/turbo-go/domain/entities"
	"github.com/turbo-genesis/turbo-go/infrastructure/config"
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Print the program id",
	Long: `Print the program id derived from the owner UUID and the program name.

The values come from the [program] table of the project file unless both
--owner and --name are given.`,
	Args: cobra.NoArgs,
	RunE: runID,
}

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate the identity constants a program embeds",
	Long: `Generate a Go file declaring ProgramName, ProgramID, OwnerID and Identity
for the program described by the project file.

The file is written next to the project file unless --out is given. Use
--out - to print it instead.`,
	Args: cobra.NoArgs,
	RunE: runGen,
}

func init() {
	idCmd.Flags().String("owner", "", "Owner UUID")
	idCmd.Flags().String("name", "", "Program name")
	rootCmd.AddCommand(idCmd)

	genCmd.Flags().StringP("out", "o", "", "Output file (default: identity_gen.go beside the project file)")
	rootCmd.AddCommand(genCmd)
}

func runID(cmd *cobra.Command, _ []string) error {
	owner, _ := cmd.Flags().GetString("owner")
	name, _ := cmd.Flags().GetString("name")

	var id entities.ProgramIdentity
	if owner != "" && name != "" {
		var err error
		if id, err = identity.Parse(owner, name); err != nil {
			return err
		}
	} else {
		project, err := loadProject(cmd)
		if err != nil {
			return err
		}
		if id, err = project.Identity(); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), id.ID)
	return nil
}

func runGen(cmd *cobra.Command, _ []string) error {
	project, err := loadProject(cmd)
	if err != nil {
		return err
	}
	id, err := project.Identity()
	if err != nil {
		return err
	}

	src, err := apptemplate.RenderIdentity(apptemplate.NewGoTemplateEngine(), project.Program.Package, id)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	switch out {
	case "-":
		_, err = cmd.OutOrStdout().Write(src)
		return err
	case "":
		path, _ := cmd.Flags().GetString("project")
		out = filepath.Join(filepath.Dir(path), "identity_gen.go")
	}

	if err := os.WriteFile(out, src, 0o644); err != nil { //nolint:gosec // G306: generated source is not secret
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", out, id.ID)
	return nil
}

func loadProject(cmd *cobra.Command) (*config.Project, error) {
	path, _ := cmd.Flags().GetString("project")
	return config.LoadProject(path)
}
