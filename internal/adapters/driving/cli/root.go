// Package cli implements the sahay command-line interface using cobra.
// Commands are thin: they parse flags, build services through the wiring
// helpers, and print results. All behaviour lives in the core services.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/sahay-labs/sahay-cli/internal/logger"
)

var (
	version = "dev"

	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "sahay",
	Short: "Sahay AI - a PM-KISAN scheme assistant",
	Long: `Sahay AI answers questions about the Pradhan Mantri Kisan Samman Nidhi
(PM-KISAN) scheme, grounded in the official rules document.

Run "sahay ingest" once to build the knowledge base from the source PDF,
then "sahay ask" for one-off questions or "sahay chat" for an interactive
session.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command with the given build version.
func Execute(v string) error {
	version = v
	return rootCmd.Execute()
}
