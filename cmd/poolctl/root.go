package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/poolkit/internal/logger"
)

var (
	// Global flags
	verbose bool
	jsonOut bool
	logDir  string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "poolctl",
	Short: "Drive and inspect the hierarchical pool allocator",
	Long: `poolctl runs synthetic workloads against the pool allocator and reports
block reuse, recycler hits and budget behavior.`,
	Version: "0.1.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !debug && logDir == "" {
			return nil
		}
		return logger.Init(logger.Options{
			Enabled: true,
			LogDir:  logDir,
			Level:   slog.LevelDebug,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Write debug logs")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Directory for debug logs (default ~/.poolkit/logs)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printVerbose prints to w if verbose mode is enabled
func printVerbose(w io.Writer, format string, args ...any) {
	if verbose {
		fmt.Fprintf(w, format, args...)
	}
}

// printJSON outputs data as indented JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
