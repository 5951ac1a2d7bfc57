package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/kilodown/deskwm/internal/bridge"
	"github.com/kilodown/deskwm/internal/config"
	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/logging"
	"github.com/kilodown/deskwm/internal/server"
	"github.com/kilodown/deskwm/internal/store"
	"github.com/kilodown/deskwm/internal/tape"
	"github.com/kilodown/deskwm/internal/telemetry"
	"github.com/kilodown/deskwm/internal/tui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var logger = logging.New("deskwm")

// loadConfig reads the user config, falling back to the defaults, and
// applies the log level flags.
func loadConfig() *config.Config {
	cfg, err := config.LoadUserConfig()
	if err != nil {
		logger.Warn("failed to load config, using defaults", "err", err)
		cfg = config.DefaultConfig()
	}
	if themeName != "" {
		cfg.Theme = themeName
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if debugMode {
		level = "debug"
	}
	if err := logging.SetLevelString(level); err != nil {
		logger.Warn("ignoring log level", "err", err)
	}
	return cfg
}

func openStore(cfg *config.Config) (*store.FileStore, error) {
	return store.NewFileStore(cfg.Storage.Dir, store.WithCompression(cfg.Storage.Compress))
}

// passContent restores a window's content from its saved custom data.
func passContent(_ string, data any) any { return data }

// filterMouseMotion drops motion events unless a window is being dragged
// or resized.
func filterMouseMotion(model tea.Model, msg tea.Msg) tea.Msg {
	if _, ok := msg.(tea.MouseMotionMsg); !ok {
		return msg
	}
	m, ok := model.(*tui.Model)
	if !ok || m.Interacting() {
		return msg
	}
	return nil
}

func runLocal(ctx context.Context, recordPath string) error {
	cfg := loadConfig()

	// the alt screen owns stderr while the program runs
	logPath, closeLog, err := logging.ToFile("deskwm.log")
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	if debugMode {
		fmt.Printf("Logging to %s\n", logPath)
	}

	snapshots, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = snapshots.Close() }()

	model, err := tui.New(tui.WithConfig(cfg), tui.WithStore(snapshots))
	if err != nil {
		return fmt.Errorf("could not create desktop: %w", err)
	}
	defer model.Close()

	var recorder *tape.Recorder
	if recordPath != "" {
		recorder = tape.NewRecorder()
		recorder.Start(model.Manager())
	}

	p := tea.NewProgram(
		model,
		tea.WithoutSignalHandler(),
		tea.WithFilter(filterMouseMotion),
	)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if path, err := config.GetConfigPath(); err == nil {
		go func() {
			err := config.Watch(watchCtx, path, func(c *config.Config) {
				p.Send(tui.ConfigReloadedMsg{Config: c})
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("config watcher stopped", "path", path, "err", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			p.Send(tea.QuitMsg{})
		case <-watchCtx.Done():
		}
	}()

	_, runErr := p.Run()

	if recorder != nil {
		recorder.Stop()
		if err := recorder.WriteToFile(recordPath, "deskwm session"); err != nil {
			return fmt.Errorf("failed to save recording: %w", err)
		}
		fmt.Printf("Recorded %d commands to %s\n", len(recorder.Commands()), recordPath)
	}

	if runErr != nil {
		return fmt.Errorf("program error: %w", runErr)
	}
	return nil
}

func runSSHServer(ctx context.Context, host, port, keyPath string, shared bool) error {
	cfg := loadConfig()

	sshCfg := &server.SSHServerConfig{
		Host:    host,
		Port:    port,
		KeyPath: keyPath,
		Desktop: cfg,
	}
	if shared {
		snapshots, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = snapshots.Close() }()
		sshCfg.Snapshots = snapshots
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.StartSSHServer(ctx, sshCfg)
}

type serveOptions struct {
	host      string
	port      string
	readOnly  bool
	noMetrics bool
	maxConns  int
	width     float64
	height    float64
	load      string
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg := loadConfig()

	mgr, err := desktop.New(desktop.NewStaticSurface(opts.width, opts.height), desktop.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("could not create desktop: %w", err)
	}
	defer mgr.Close()

	snapshots, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = snapshots.Close() }()

	if opts.load != "" {
		snap, err := snapshots.Load(opts.load)
		if err != nil {
			return fmt.Errorf("load snapshot %q: %w", opts.load, err)
		}
		mgr.ApplySnapshot(snap, passContent)
		logger.Info("restored snapshot", "key", opts.load, "windows", len(snap))
	}

	bcfg := bridge.ConfigFrom(cfg.Bridge)
	if opts.host != "" {
		bcfg.Host = opts.host
	}
	if opts.port != "" {
		bcfg.Port = opts.port
	}
	bcfg.ReadOnly = opts.readOnly
	bcfg.MaxConnections = opts.maxConns

	bopts := []bridge.Option{
		bridge.WithStore(snapshots),
		bridge.WithContentFactory(passContent),
	}
	if cfg.Bridge.Metrics && !opts.noMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics := telemetry.New(reg)
		detach := metrics.Attach(mgr)
		defer detach()
		bopts = append(bopts, bridge.WithMetrics(metrics, reg))
	}

	srv := bridge.NewServer(mgr, bcfg, bopts...)
	defer srv.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}

type playOptions struct {
	realtime  bool
	verbose   bool
	useStore  bool
	dumpState string
}

func runPlay(ctx context.Context, path string, opts playOptions) error {
	cfg := loadConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read tape: %w", err)
	}
	commands, err := tape.ParseFile(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	var snapshots store.Store = store.NewMemoryStore()
	if opts.useStore {
		fs, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = fs.Close() }()
		snapshots = fs
	}

	runner, err := tape.NewHeadlessRunner(
		tape.WithRunnerConfig(cfg),
		tape.WithStore(snapshots),
		tape.WithContentFactory(passContent),
		tape.WithRealtime(opts.realtime),
		tape.WithVerbose(opts.verbose),
	)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := runner.Run(ctx, commands); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Printf("%s: %d commands OK\n", path, len(commands))
	if opts.dumpState != "" {
		return printSnapshot(os.Stdout, runner.Manager().CaptureSnapshot(), opts.dumpState)
	}
	return nil
}
