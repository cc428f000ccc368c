// Package main is the entry point for the Quota Watch TUI application.
// It wires configuration, the refresh manager and one of the two front
// ends: the full-screen Bubble Tea UI or the scrolling console.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/quota-watch-tui/internal/config"
	"github.com/j-veylop/quota-watch-tui/internal/version"
)

// errReported marks failures that were already printed in full, so main
// only sets the exit code.
var errReported = errors.New("error already reported")

// flags carries command-line values, applied on top of the environment
// configuration.
type flags struct {
	url      string
	file     string
	interval time.Duration
	once     bool
	console  bool
	debug    bool
	noNotify bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "qwt",
		Short: "Quota Watch TUI: a terminal monitor for account quota snapshots",
		Long: `Quota Watch polls an account-limits endpoint and renders per-account
model quota tables, color-coded by remaining percentage.

The default full-screen UI refreshes in place; --console appends one
frame per refresh to stdout instead. --once prints a single frame and
exits, with a non-zero status when the fetch fails.

Keyboard Shortcuts:
  1-3             Switch between tabs (Dashboard, Trend, Info)
  Tab/Shift+Tab   Cycle tabs
  j/k, Up/Down    Scroll the quota table
  r               Refresh now
  a               Toggle auto-refresh
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  QWT_URL        Account-limits endpoint (default http://localhost:8040/account-limits)
  QWT_FILE       Read snapshots from a local JSON file instead
  QWT_INTERVAL   Refresh interval (default 5s)
  QWT_TIMEOUT    Fetch timeout (default 10s)
  QWT_NOTIFY     Desktop notifications (default true)
  QWT_DEBUG      Verbose logging and raw bodies on decode failures
  QWT_LOG_FILE   Log destination for the full-screen UI

A .env file in the working directory or in ~/.config/quota-watch/ is
loaded before the environment is read. Flags take precedence over both.`,
		Example: `  qwt
  qwt -u http://localhost:8040/account-limits -i 10s
  qwt --console
  qwt -o
  qwt -f snapshot.json -d`,
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, &f)
			if err != nil {
				return err
			}

			// One-shot mode has no refresh loop, so it is always
			// console mode regardless of --console.
			if f.once {
				if err := runOnce(cfg); err != nil {
					return errReported
				}
				return nil
			}
			if f.console {
				return runConsole(cfg)
			}
			return runTUI(cfg)
		},
	}

	cmd.Flags().StringVarP(&f.url, "url", "u", "", "account-limits endpoint URL")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "read snapshots from a local JSON file")
	cmd.Flags().DurationVarP(&f.interval, "interval", "i", config.DefaultInterval, "refresh interval (0 disables looping in console mode)")
	cmd.Flags().BoolVarP(&f.once, "once", "o", false, "fetch one snapshot, print it and exit (implies --console)")
	cmd.Flags().BoolVar(&f.console, "console", false, "scrolling console output instead of the full-screen UI")
	cmd.Flags().BoolVarP(&f.debug, "debug", "d", false, "verbose logging and raw bodies on decode failures")
	cmd.Flags().BoolVar(&f.noNotify, "no-notify", false, "disable desktop notifications")
	cmd.Flags().BoolP("version", "v", false, "print version information")

	return cmd
}

// loadConfig layers changed flags over the environment configuration
// and re-validates the result.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("url") {
		cfg.URL = f.url
	}
	if fl.Changed("file") {
		cfg.File = f.file
	}
	if fl.Changed("interval") {
		cfg.Interval = f.interval
	}
	if fl.Changed("debug") {
		cfg.Debug = f.debug
	}
	if f.noNotify {
		cfg.Notify = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
