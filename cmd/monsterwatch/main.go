// Command monsterwatch polls a set of HTTP targets and reports content
// changes, failures and periodic liveness to the configured channels.
//
// Usage:
//
//	monsterwatch run -c config.yaml       # Start watching
//	monsterwatch validate -c config.yaml  # Validate configuration
//	monsterwatch version                  # Show version info
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aleister1102/monsterwatch/internal/common"
	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitFatalBus = 2
)

var rootCmd = &cobra.Command{
	Use:   "monsterwatch",
	Short: "Watch HTTP resources for meaningful changes",
	Long: `monsterwatch periodically fetches a small set of HTTP resources, ignores
volatile fragments matched by per-target patterns, and reports changes,
failures and a periodic heartbeat to Discord, email or a SQLite journal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("monsterwatch %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var fatal *common.FatalBusError
	if errors.As(err, &fatal) {
		return exitFatalBus
	}
	return exitFailure
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
