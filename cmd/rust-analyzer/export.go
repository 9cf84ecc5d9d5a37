package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/max-frai/rust-analyzer/internal/export"
)

var flagExportDB string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a SQLite snapshot of the semantic model",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&flagExportDB, "db", "analyzer.db", "export database path")
}

func runExport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	store, err := export.Open(flagExportDB)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Snapshot(ws.host.Analysis()); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	fmt.Printf("exported to %s\n", flagExportDB)
	return nil
}
