// Package main implements deskwm, a floating window manager that runs in
// the terminal, over SSH, or headless behind a websocket event bridge.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	debugMode bool
	logLevel  string
	themeName string
)

func main() {
	rootCmd := newRootCmd()
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var recordPath string

	rootCmd := &cobra.Command{
		Use:   "deskwm",
		Short: "Floating window manager for the terminal",
		Long: `deskwm - floating windows in your terminal

Windows can be moved by their title bar, resized from any edge or corner,
snapped to each other and to the screen edges, minimized to the taskbar and
maximized. Layouts can be saved as snapshots and restored later.`,
		Example: `  # Run the desktop
  deskwm

  # Record the session as a replayable tape
  deskwm --record session.tape

  # Serve desktops over SSH
  deskwm ssh --port 2222

  # Run a headless desktop behind the websocket bridge
  deskwm serve --port 7681

  # Replay a tape and check its expectations
  deskwm play session.tape`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(cmd.Context(), recordPath)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "", "Color theme to use (e.g., dracula, nord, tokyonight)")
	rootCmd.Flags().StringVar(&recordPath, "record", "", "Record the session to a tape file")

	rootCmd.AddCommand(
		newSSHCmd(),
		newServeCmd(),
		newPlayCmd(),
		newSnapshotCmd(),
		newConfigCmd(),
		newKeybindsCmd(),
	)
	return rootCmd
}
