// Package cmd implements the CLI commands for srecd.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "srecd",
	Short: "Live-stream recording daemon",
	Long: `srecd records a live HLS or FLV stream to rolling segment files.

It ingests a single configured source, splits it into bounded segment
files on keyframe/init-segment boundaries, and exposes an ops-only HTTP
surface for liveness and metrics.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}
