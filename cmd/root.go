package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadwatch/leadwatch/internal/config"
	"github.com/leadwatch/leadwatch/pkg/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "leadwatch",
	Short: "Watch a CRM location's operational health over its MCP tool endpoint",
	Long: `leadwatch connects to a CRM's Model Context Protocol endpoint and runs
read-only health checks over it: stale leads, missed follow-ups, pipeline
bottlenecks and slow first responses. It also exposes the raw tool surface
for listing and ad hoc calls.`,
	// SilenceUsage prevents printing usage on errors we handle ourselves
	// (bad credentials, failed connections).
	SilenceUsage: true,
}

var verbose bool

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). Configuration problems
// exit with a status distinct from operational failures.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "leadwatch version %s\n" .Version}}`)

	cobra.OnInitialize(func() {
		level := logging.LevelInfo
		if verbose {
			level = logging.LevelDebug
		}
		logging.InitForCLI(level, os.Stderr)
	})

	err := rootCmd.Execute()
	if err != nil {
		var configErr *config.ConfigError
		if errors.As(err, &configErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newCallCmd())
	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newLimitsCmd())
}
