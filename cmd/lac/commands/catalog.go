package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/lac/cmd/lac/internal/format"
	"github.com/vulntor/lac/pkg/appctx"
	"github.com/vulntor/lac/pkg/config"
	"github.com/vulntor/lac/pkg/signature"
	"github.com/vulntor/lac/pkg/signature/catalogsync"
	"github.com/vulntor/lac/pkg/workspace"
)

// NewCatalogCommand wires CLI helpers for signature catalog management.
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "catalog",
		Aliases: []string{"cat"},
		Short:   "Manage signature catalogs",
		GroupID: "core",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newCatalogValidateCommand())
	cmd.AddCommand(newCatalogListCommand())
	cmd.AddCommand(newCatalogSyncCommand())

	return cmd
}

// cacheDir returns the directory synced catalogs are read from and written to.
func cacheDir(ctx context.Context, cfg config.CatalogConfig) (string, bool) {
	if cfg.CacheDir != "" {
		return cfg.CacheDir, true
	}
	if ws, ok := workspace.FromContext(ctx); ok {
		return workspace.CatalogCacheDir(ws), true
	}
	return "", false
}

// catalogPath picks the catalog file for this run: the configured path, then a
// synced copy in the cache. An empty result selects the built-in catalog.
func catalogPath(ctx context.Context, cfg config.CatalogConfig) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	if dir, ok := cacheDir(ctx, cfg); ok {
		cached := catalogsync.CachePath(dir)
		if _, err := os.Stat(cached); err == nil {
			return cached
		}
	}
	return ""
}

func loadCatalog(ctx context.Context, cfg config.CatalogConfig) (*signature.Catalog, string, error) {
	path := catalogPath(ctx, cfg)
	catalog, err := signature.Load(path)
	if err != nil {
		return nil, path, err
	}
	source := path
	if source == "" {
		source = "built-in"
	}
	log.Debug().Str("catalog", source).Int("definitions", catalog.Len()).Msg("catalog loaded")
	return catalog, path, nil
}

func failCatalog(f format.Formatter, operation string, err error) error {
	if printErr := f.PrintFailure(operation, err, signature.ErrorCode(err), signature.Suggestions(err)); printErr != nil {
		return err
	}
	return reported(err)
}

func newCatalogValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a catalog file, or the catalog lac would use",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := format.FromCommand(cmd)
			cfg := appctx.Settings(cmd.Context()).Catalog
			if len(args) == 1 {
				cfg.Path = args[0]
			}

			catalog, path, err := loadCatalog(cmd.Context(), cfg)
			if err != nil {
				return failCatalog(f, "validate catalog", err)
			}
			if path == "" {
				path = "built-in catalog"
			}

			if f.Mode() == format.ModeJSON {
				return f.PrintJSON(map[string]any{
					"success":     true,
					"path":        path,
					"schema":      catalog.Schema(),
					"definitions": catalog.Len(),
				})
			}
			return f.PrintSummary(fmt.Sprintf("✓ %s is valid (%d definitions)", path, catalog.Len()))
		},
	}
}

func newCatalogListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the definitions of the active catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := format.FromCommand(cmd)
			catalog, _, err := loadCatalog(cmd.Context(), appctx.Settings(cmd.Context()).Catalog)
			if err != nil {
				return failCatalog(f, "load catalog", err)
			}
			return f.PrintDefinitions(catalog)
		},
	}
}

func newCatalogSyncCommand() *cobra.Command {
	var (
		filePath string
		url      string
		checksum string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the signature catalog from a remote or local source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := format.FromCommand(cmd)

			if filePath == "" && url == "" {
				return failCatalog(f, "sync catalog", signature.NewSourceRequiredError())
			}
			if filePath != "" && url != "" {
				return failCatalog(f, "sync catalog", signature.NewSourceConflictError())
			}

			destination, ok := cacheDir(cmd.Context(), appctx.Settings(cmd.Context()).Catalog)
			if !ok {
				return failCatalog(f, "sync catalog", signature.NewCacheDisabledError())
			}

			svc := catalogsync.Service{
				Store:    catalogsync.FileStore{Path: catalogsync.CachePath(destination)},
				Checksum: checksum,
			}
			if filePath != "" {
				svc.Source = catalogsync.FileSource{Path: filePath}
			} else {
				svc.Source = catalogsync.HTTPSource{URL: url, Retry: catalogsync.DefaultRetryPolicy()}
			}

			catalog, err := svc.Sync(cmd.Context())
			if err != nil {
				return failCatalog(f, "sync catalog", err)
			}

			log.Info().Str("cache", destination).Int("definitions", catalog.Len()).Msg("catalog synced")
			if f.Mode() == format.ModeJSON {
				return f.PrintJSON(map[string]any{
					"success":     true,
					"path":        catalogsync.CachePath(destination),
					"definitions": catalog.Len(),
				})
			}
			return f.PrintSummary(fmt.Sprintf("✓ Synced %d definitions to %s", catalog.Len(), catalogsync.CachePath(destination)))
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Load the catalog from a local file")
	cmd.Flags().StringVar(&url, "url", "", "Download the catalog from a remote URL")
	cmd.Flags().StringVar(&checksum, "sha256", "", "Expected SHA-256 of the catalog (sha256:<hex> or hex)")

	return cmd
}
