package main

import (
	"github.com/spf13/cobra"
)

func newSSHCmd() *cobra.Command {
	var (
		host    string
		port    string
		keyPath string
		shared  bool
	)

	cmd := &cobra.Command{
		Use:   "ssh",
		Short: "Serve desktops over SSH",
		Long: `Run an SSH server that gives every connecting terminal its own desktop.

Sessions are independent. Snapshots are private to a session unless
--shared-snapshots is set, in which case every session saves to and loads
from the local snapshot directory.`,
		Example: `  # Listen on the default port
  deskwm ssh

  # Listen on all interfaces with a custom host key
  deskwm ssh --host 0.0.0.0 --port 2222 --key-path ./host_key`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSSHServer(cmd.Context(), host, port, keyPath, shared)
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "SSH server host")
	cmd.Flags().StringVar(&port, "port", "2222", "SSH server port")
	cmd.Flags().StringVar(&keyPath, "key-path", "", "Path to SSH host key (auto-generated if not specified)")
	cmd.Flags().BoolVar(&shared, "shared-snapshots", false, "Store session snapshots in the local snapshot directory")
	return cmd
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a headless desktop behind the websocket bridge",
		Long: `Run a desktop with no display and expose it over HTTP.

Clients connect to /ws to receive window lists and lifecycle events and to
send commands. /windows and /snapshot return the current state, /snapshots
manages stored snapshots, and /metrics exposes Prometheus metrics.`,
		Example: `  # Serve on the configured address
  deskwm serve

  # Restore a saved layout and refuse mutating commands
  deskwm serve --load work --read-only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "Bridge host (defaults to the config file)")
	cmd.Flags().StringVar(&opts.port, "port", "", "Bridge port (defaults to the config file)")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Refuse commands that change the desktop")
	cmd.Flags().BoolVar(&opts.noMetrics, "no-metrics", false, "Disable the /metrics endpoint")
	cmd.Flags().IntVar(&opts.maxConns, "max-connections", 0, "Maximum websocket clients (0 = unlimited)")
	cmd.Flags().Float64Var(&opts.width, "width", 1600, "Container width in pixels")
	cmd.Flags().Float64Var(&opts.height, "height", 1000, "Container height in pixels")
	cmd.Flags().StringVar(&opts.load, "load", "", "Restore this stored snapshot on start")
	return cmd
}

func newPlayCmd() *cobra.Command {
	opts := playOptions{}

	cmd := &cobra.Command{
		Use:   "play <file>",
		Short: "Replay a tape against a headless desktop",
		Long: `Run every command of a tape file against a headless desktop.

Timers fire instantly unless --realtime is set. Expect commands fail the
run with the line they were written on.`,
		Example: `  # Check a recorded session
  deskwm play session.tape

  # Print the final layout as JSON
  deskwm play session.tape --dump json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "Honour Sleep durations and timers in real time")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every command as it runs")
	cmd.Flags().BoolVar(&opts.useStore, "store", false, "Save and Load against the local snapshot directory")
	cmd.Flags().StringVar(&opts.dumpState, "dump", "", "Print the final snapshot (table, json or yaml)")
	return cmd
}

func newSnapshotCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snap"},
		Short:   "Manage stored snapshots",
		Long:    `List, inspect and delete the snapshots saved with the save key or the bridge.`,
	}
	cmd.PersistentFlags().StringVarP(&format, "format", "f", "", "Output format: table, json or yaml (default: table on a terminal, json otherwise)")

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored snapshots",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSnapshots(cmd.OutOrStdout(), format)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <key>",
		Short: "Show the windows of a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSnapshot(cmd.OutOrStdout(), args[0], format)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "delete <key>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored snapshot",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteSnapshot(cmd.OutOrStdout(), args[0])
		},
	})

	return cmd
}

func newConfigCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printConfigPath()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open the configuration file in $EDITOR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return editConfigFile()
		},
	})

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the configuration file to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return resetConfigToDefaults(yes)
		},
	}
	resetCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.AddCommand(resetCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration, environment overrides included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout())
		},
	})

	return cmd
}

func newKeybindsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keybinds",
		Short: "Show keyboard and mouse bindings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every binding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listKeybindings(cmd.OutOrStdout())
		},
	})

	return cmd
}
