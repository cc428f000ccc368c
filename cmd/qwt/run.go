package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/quota-watch-tui/internal/app"
	"github.com/j-veylop/quota-watch-tui/internal/config"
	"github.com/j-veylop/quota-watch-tui/internal/logger"
	"github.com/j-veylop/quota-watch-tui/internal/services"
	"github.com/j-veylop/quota-watch-tui/internal/ui/console"
	"github.com/j-veylop/quota-watch-tui/internal/ui/tabs/dashboard"
	"github.com/j-veylop/quota-watch-tui/internal/ui/tabs/info"
	"github.com/j-veylop/quota-watch-tui/internal/ui/tabs/trend"
)

// runTUI starts the full-screen Bubble Tea interface. The model
// subscribes to the manager and starts it from Init, so the first
// snapshot is delivered through the event channel rather than a
// direct read.
func runTUI(cfg *config.Config) error {
	configureFileLogging(cfg)

	mgr := services.NewManager(cfg)
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(mgr)

	state := model.GetState()
	tabs := []app.Tab{
		dashboard.New(state, cfg),
		trend.New(state),
		info.New(state, cfg),
	}
	model.SetTabs(tabs)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// runConsole starts the scrolling console loop. Unlike the TUI path the
// manager is started here, after the console has subscribed.
func runConsole(cfg *config.Config) error {
	logger.Configure(os.Stderr, cfg.Debug)

	mgr := services.NewManager(cfg)
	defer func() {
		if closeErr := mgr.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return console.New(cfg, os.Stdout).Run(ctx, mgr)
}

// runOnce fetches a single snapshot and prints one frame. Failures are
// printed by the console front end, so the caller only maps the error
// to an exit code.
func runOnce(cfg *config.Config) error {
	logger.Configure(os.Stderr, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return console.New(cfg, os.Stdout).Once(ctx)
}

// configureFileLogging routes logs to a file while the UI owns the
// terminal. Logging stays on the default writer when the file cannot
// be opened; a broken log path should not keep the UI from starting.
func configureFileLogging(cfg *config.Config) {
	path := cfg.LogFile
	if path == "" {
		path = config.DefaultLogPath()
	}
	if err := config.EnsureLogDir(path); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return
	}
	logger.Configure(f, cfg.Debug)
}
