package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "charcha",
	Short: "Headless client for the Charcha AI group-chat backend",
	Long: `Charcha connects to an AI celebrity group-chat backend, keeps a live
reconciled view of a group's conversation over WebSocket and streams it to
the terminal. It also bundles an in-memory mock backend for local work.`,
}

// Execute runs the CLI. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
