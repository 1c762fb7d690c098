// Package cmd wires the inferbatch command tree.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/inferbatch/inferbatch/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "inferbatch",
	Short: "Rate-limited batch inference over JSONL datasets",
	Long: `inferbatch reads JSONL datasets, invokes a configured inference
endpoint for every record under a shared rate gate, and writes annotated
JSONL results next to a per-run execution ID.

Use the subcommands to perform specific operations.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		observability.InitCLILogger(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./inferbatch.yaml or ~/.config/inferbatch)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}
