package commands

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/lac/pkg/appctx"
	"github.com/vulntor/lac/pkg/config"
	"github.com/vulntor/lac/pkg/logging"
	"github.com/vulntor/lac/pkg/paths"
	"github.com/vulntor/lac/pkg/workspace"
)

const cliExecutable = "lac"

// NewCommand constructs the top-level lac CLI command, wiring global flags,
// configuration loading and shared workspace preparation.
func NewCommand() *cobra.Command {
	var (
		configFile        string
		workspaceDir      string
		workspaceDisabled bool
		verbosityCount    int
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "lac identifies services and their versions from captured responses",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := configFile
			if path == "" {
				path = paths.ConfigFile()
			}
			mgr := config.NewManager()
			if err := mgr.Load(cmd.Flags(), path); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg := mgr.Get()

			level := logging.LevelFromVerbosity(cfg.Log.Level, verbosityCount)
			if err := logging.ConfigureGlobalLogging(level, cfg.Log.Format); err != nil {
				return err
			}

			ctx := appctx.WithConfig(cmd.Context(), mgr)

			if !workspaceDisabled {
				prepared, err := workspace.Prepare(workspaceDir)
				if err != nil {
					return fmt.Errorf("prepare workspace: %w", err)
				}
				ctx = workspace.WithContext(ctx, prepared)
				log.Debug().Str("workspace", prepared).Msg("workspace ready")
			} else {
				log.Debug().Msg("workspace disabled for this run")
			}

			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (default: $XDG_CONFIG_HOME/lac/config.yaml)")
	cmd.PersistentFlags().StringVar(&workspaceDir, "workspace-dir", "", "Override workspace root directory")
	cmd.PersistentFlags().BoolVar(&workspaceDisabled, "no-workspace", false, "Disable workspace persistence for this run")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")
	cmd.PersistentFlags().StringP("output", "o", "table", "Output format (table, json)")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress summaries")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "detect", Title: "Detection Commands"})
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands"})

	cmd.AddCommand(NewDetectCommand())
	cmd.AddCommand(NewCatalogCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// reportedError marks an error the command already printed through its formatter.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error {
	return e.error
}

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{error: err}
}

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}
