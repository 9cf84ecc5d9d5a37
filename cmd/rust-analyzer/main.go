// Command rust-analyzer loads a Rust workspace into the semantic model and
// exposes it for inspection: module trees, path resolution, layout
// problems, symbol lookup, SQLite export, and a watch mode that feeds file
// edits back in as change batches.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagDir     string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "rust-analyzer",
	Short:         "Incremental semantic model for Rust workspaces",
	Long:          "Builds module trees, name scopes, and path resolution for a Rust workspace and keeps them consistent under edits.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", ".", "workspace directory")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(problemsCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
}
