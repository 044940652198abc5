package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/rgehrsitz/ratebook/internal/domain"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ratebook %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ratebook",
		Short:         "Dated tax and contribution bracket lookups",
		Long:          "Resolve versioned withholding-tax and social-insurance bracket tables by date and compute breakdowns, from the command line or over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (RATEBOOK_* environment variables override it)")
	rootCmd.PersistentFlags().String("data", "", "Rule-set data directory; selects the file store")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		serveCmd(),
		resolveCmd(),
		datesCmd(),
		tableCmd(),
		validateCmd(),
		importCmd(),
		flushCacheCmd(),
		versionCmd(),
	)
	return rootCmd
}

// parseAsOf reads a --date flag value. Empty means today in UTC.
func parseAsOf(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
