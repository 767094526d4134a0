package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/lac/cmd/lac/internal/format"
	"github.com/vulntor/lac/pkg/appctx"
	"github.com/vulntor/lac/pkg/config"
	"github.com/vulntor/lac/pkg/detect"
	"github.com/vulntor/lac/pkg/signature"
)

// NewDetectCommand runs detection over one captured response.
func NewDetectCommand() *cobra.Command {
	var (
		host     string
		port     uint16
		bodyFile string
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Identify the service and version behind a captured response",
		Long: `Read a response body from --body-file or stdin and match it against the
signature catalog. One line is printed per finding.`,
		Example: `  printf 'SSH-2.0-OpenSSH_7.4\r\n' | lac detect --host 10.0.0.5 --port 22
  lac detect --host es.local --port 9200 --body-file banner.json -o json`,
		GroupID: "detect",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readBody(cmd.InOrStdin(), bodyFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			det, closeFn, err := buildDetector(ctx, appctx.Settings(ctx), false)
			if err != nil {
				return failCatalog(format.FromCommand(cmd), "load catalog", err)
			}
			defer closeFn()

			results := det.Detect(host, port, body)
			return format.FromCommand(cmd).PrintResults(results)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host the response came from")
	cmd.Flags().Uint16Var(&port, "port", 0, "Port the response came from")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "Read the response body from this file instead of stdin")
	_ = cmd.MarkFlagRequired("host")

	cmd.PersistentFlags().String("telemetry", "", "Append detection events as JSON lines to this file")

	cmd.AddCommand(newDetectBatchCommand())

	return cmd
}

func newDetectBatchCommand() *cobra.Command {
	var filePath string

	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Replay recorded responses through the detector",
		Long: `Read JSON lines of {"host", "port", "body"} from --file or stdin and run
detection on each record concurrently. Results keep the input order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			settings := appctx.Settings(ctx)
			f := format.FromCommand(cmd)

			in := cmd.InOrStdin()
			if filePath != "" {
				file, err := os.Open(filePath)
				if err != nil {
					return fmt.Errorf("open records: %w", err)
				}
				defer func() { _ = file.Close() }()
				in = file
			}

			records, err := detect.ReadRecords(in, settings.Batch.MaxTargets)
			if err != nil {
				return err
			}

			det, closeFn, err := buildDetector(ctx, settings, settings.Catalog.Watch)
			if err != nil {
				return failCatalog(f, "load catalog", err)
			}
			defer closeFn()

			start := time.Now()
			perRecord, err := det.Batch(ctx, records, settings.Batch.Threads)
			if err != nil {
				return err
			}

			summary := format.BatchSummary{Records: len(records), Duration: time.Since(start)}
			var results []detect.Result
			for _, rs := range perRecord {
				if len(rs) > 0 {
					summary.Matched++
				}
				for _, r := range rs {
					if r.Version != "" {
						summary.Versions++
					}
				}
				results = append(results, rs...)
			}
			summary.Results = len(results)

			if err := f.PrintResults(results); err != nil {
				return err
			}
			return f.PrintBatchSummary(summary)
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Read records from this JSONL file instead of stdin")
	cmd.Flags().Int("threads", defaults.Batch.Threads, "Concurrent detections")
	cmd.Flags().Int("max-targets", defaults.Batch.MaxTargets, "Maximum number of records accepted")
	cmd.Flags().Bool("watch", false, "Reload the catalog file while the batch runs")

	return cmd
}

func readBody(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return body, nil
	}
	body, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read body from stdin: %w", err)
	}
	return body, nil
}

// buildDetector loads the catalog for this run and attaches telemetry. With
// watch set and a catalog file in use, the detector follows edits to the file.
// The returned func releases the watcher and telemetry file.
func buildDetector(ctx context.Context, cfg config.Config, watch bool) (*detect.Detector, func(), error) {
	catalog, path, err := loadCatalog(ctx, cfg.Catalog)
	if err != nil {
		return nil, nil, err
	}

	telemetry, err := detect.NewTelemetryWriter(cfg.Detect.TelemetryFile)
	if err != nil {
		return nil, nil, err
	}

	var opts []detect.Option
	if telemetry.IsEnabled() {
		opts = append(opts, detect.WithObserver(telemetry))
	}

	cleanup := []func(){func() {
		if err := telemetry.Err(); err != nil {
			log.Warn().Err(err).Msg("telemetry events were dropped")
		}
		if err := telemetry.Close(); err != nil {
			log.Warn().Err(err).Msg("close telemetry file")
		}
	}}
	closeAll := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}

	if !watch || path == "" {
		det, err := detect.New(catalog, opts...)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		return det, closeAll, nil
	}

	holder := signature.NewHolder(catalog)
	det, err := detect.NewWithProvider(holder, opts...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	watcher, err := signature.NewWatcher(path, holder, log.Logger)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("watch catalog: %w", err)
	}
	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := watcher.Start(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Str("file", path).Msg("catalog watcher stopped")
		}
	}()
	cleanup = append(cleanup, func() {
		cancel()
		<-done
	})

	return det, closeAll, nil
}
