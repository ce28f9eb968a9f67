package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/foxstudiohua/AsynKingfisher/binder"
	"github.com/foxstudiohua/AsynKingfisher/internal/logging"
)

// Config holds everything the gallery needs to run.
type Config struct {
	Manager binder.Fetcher
	Logger  *logging.Logger
	URLs    []string

	// KeepCurrentImageWhileLoading suppresses the placeholder on rebinds
	// of a cell that already shows an image.
	KeepCurrentImageWhileLoading bool
}

// App wires the coordinator's dispatch loop to a bubbletea program and
// runs the gallery.
type App struct {
	program    *tea.Program
	dispatcher *Dispatcher
	model      Model
	logger     *logging.Logger
}

// New builds the gallery app. The coordinator dispatches onto the
// program's update loop, so every binding mutation happens between
// frames.
func New(cfg Config) (*App, error) {
	if cfg.Manager == nil {
		return nil, fmt.Errorf("tui: manager is required")
	}
	if len(cfg.URLs) == 0 {
		return nil, fmt.Errorf("tui: at least one URL is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	dispatcher := NewDispatcher()
	coordinator, err := binder.New(binder.Config{
		Fetcher: cfg.Manager,
		Loop:    dispatcher,
	}, binder.WithLogger(logger.WithComponent("tui")))
	if err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}

	model := NewModel(coordinator, cfg.URLs, cfg.KeepCurrentImageWhileLoading)

	return &App{
		dispatcher: dispatcher,
		model:      model,
		logger:     logger,
	}, nil
}

// Run starts the program and blocks until the user quits.
func (a *App) Run() error {
	a.logger.Info("gallery starting", "cells", len(a.model.cells))
	a.program = tea.NewProgram(a.model, tea.WithAltScreen())
	a.dispatcher.Attach(a.program)

	// The initial binds must run on the update loop like every other
	// binding mutation.
	model := a.model
	a.dispatcher.Post(model.BindAll)

	if _, err := a.program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
