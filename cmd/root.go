// Package cmd defines and implements the CLI commands for the wodcrawler
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wodcrawler",
		Short: "Archives daily workout pages into local JSON files",
		Long: `wodcrawler walks the workout-of-the-day archive backward, one page at
a time, following each page's previous-day link. Every page becomes one
JSON record on disk, alongside a cumulative index of the session.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults and WODCRAWLER_* env are used when omitted)")

	cmd.AddCommand(newScrapeCmd())
	return cmd
}

// Execute runs the CLI. A SIGINT or SIGTERM cancels the command context so
// in-flight work can flush before exit.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "wodcrawler: %v\n", err)
		os.Exit(1)
	}
}
