package tui

import (
	"context"
	"errors"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Run starts the TUI and blocks until the user quits
func Run(ctx context.Context, store Store, logger *slog.Logger) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("proma tui requires a terminal, use the other subcommands for non-interactive mode")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []Option{WithContext(ctx)}

	watcher, err := NewWatcher(ctx, store.Path(), DefaultDebounce, logger)
	if err != nil {
		logger.Warn("live reload disabled", "error", err)
	} else {
		defer watcher.Close()
		opts = append(opts, WithChanges(watcher.Changes()))
	}

	p := tea.NewProgram(NewModel(store, opts...), tea.WithAltScreen(), tea.WithContext(ctx))

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
