/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/cookshare/apiserver/internal/export"
	"github.com/cookshare/apiserver/internal/server"
	"github.com/cookshare/apiserver/internal/storage"
	"github.com/spf13/cobra"
)

var exportKeep int

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upload a snapshot of the recipe directory to object storage",
	Long: `Assembles the recipe directory with owner profiles and uploads it as
JSON to the configured object store (STORAGE_BACKEND). Older snapshots
beyond --keep are removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		objects, err := storage.NewFromConfig(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		defer objects.Close()

		if err := objects.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket %s: %w", objects.Bucket(), err)
		}

		app, err := server.NewApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		exporter := export.NewExporter(app.Directory, objects)
		key, snapshot, err := exporter.Export(ctx)
		if err != nil {
			return err
		}
		logger.Info("exported directory", "bucket", objects.Bucket(), "key", key, "recipes", snapshot.Count)

		if exportKeep > 0 {
			deleted, err := exporter.Prune(ctx, exportKeep)
			if err != nil {
				return err
			}
			for _, k := range deleted {
				logger.Info("pruned snapshot", "key", k)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().IntVar(&exportKeep, "keep", 30, "Number of timestamped snapshots to retain (0 keeps all)")
}
