package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/jobtrack/internal"
	"github.com/iksnae/jobtrack/internal/export"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	format    string
	outputDir string
	exportIDs []int64
)

// exportFetchLimit bounds concurrent note fetches
const exportFetchLimit = 4

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export applications with their notes to files",
	Long: `Export applications and their notes to various formats (jsonl, md, yaml, json).

Each application is written to its own file named application_<id>.<ext>.
Export everything, or pick applications with --id (repeatable).
Use 'jobtrack list' to see application ids.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		return withSession(cmd, func(ctx context.Context, app *internal.App) error {
			var (
				apps    []internal.Application
				reports []*internal.ApplicationReport
				written int
			)

			steps := []internal.ProgressStep{
				{
					Message: "Fetching applications",
					Fn: func(ctx context.Context) error {
						all, err := app.Tracker.Applications(ctx)
						if err != nil {
							return err
						}
						apps, err = selectApplications(all, exportIDs)
						return err
					},
				},
				{
					Message: "Fetching notes",
					Fn: func(ctx context.Context) error {
						reports = make([]*internal.ApplicationReport, len(apps))
						g, gctx := errgroup.WithContext(ctx)
						g.SetLimit(exportFetchLimit)
						for i := range apps {
							i := i
							g.Go(func() error {
								notes, err := app.Tracker.Notes(gctx, apps[i].ID)
								if err != nil {
									return fmt.Errorf("application %d: %w", apps[i].ID, err)
								}
								reports[i] = &internal.ApplicationReport{Application: apps[i], Notes: notes}
								return nil
							})
						}
						return g.Wait()
					},
				},
				{
					Message: fmt.Sprintf("Writing files to %s", outputDir),
					Fn: func(ctx context.Context) error {
						if err := os.MkdirAll(outputDir, 0755); err != nil {
							return fmt.Errorf("failed to create output directory: %w", err)
						}
						for _, report := range reports {
							if err := ctx.Err(); err != nil {
								return err
							}
							if err := writeReport(exporter, report, outputDir); err != nil {
								return err
							}
							written++
						}
						return nil
					},
				},
			}

			if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
				return err
			}

			internal.PrintSuccess(fmt.Sprintf("Export complete: %d application(s) exported to %s", written, outputDir))
			return nil
		})
	},
}

// selectApplications keeps the requested ids, in request order. No ids selects all.
func selectApplications(apps []internal.Application, ids []int64) ([]internal.Application, error) {
	if len(ids) == 0 {
		return apps, nil
	}

	byID := make(map[int64]internal.Application, len(apps))
	for _, a := range apps {
		byID[a.ID] = a
	}

	selected := make([]internal.Application, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("application not found: %d (use 'jobtrack list' to see available applications)", id)
		}
		selected = append(selected, a)
	}
	return selected, nil
}

func writeReport(exporter export.Exporter, report *internal.ApplicationReport, dir string) error {
	path := filepath.Join(dir, export.FileName(report, exporter))
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := exporter.Export(report, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	internal.LogDebug("Wrote %s", path)
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().Int64SliceVar(&exportIDs, "id", nil, "Export only this application (repeatable)")
}
