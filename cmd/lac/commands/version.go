package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vulntor/lac/cmd/lac/internal/format"
	"github.com/vulntor/lac/pkg/version"
)

// NewVersionCommand prints build metadata.
func NewVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Print version information",
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			f := format.FromCommand(cmd)
			if f.Mode() == format.ModeJSON {
				return f.PrintJSON(info)
			}

			out := cmd.OutOrStdout()
			if short {
				_, err := fmt.Fprintln(out, info.Version)
				return err
			}
			_, err := fmt.Fprintf(out, "%s version: %s\nCommit: %s\nBuild Date: %s\nGo Version: %s\n",
				cliExecutable, info.Version, info.Commit, info.BuildDate, info.GoVersion)
			return err
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")

	return cmd
}
