package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/logging"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/tui"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ui"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/version"
)

func runTUI(cmd *cobra.Command, args []string) error {
	if !ui.IsInteractive() {
		return errors.New("the interactive UI needs a terminal; use 'things-notify scan' or 'things-notify connect' instead")
	}

	s, err := openSession()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.NewAppModel(ctx, tui.Deps{
		Session: s.state,
		Scanner: s.scanner,
		Manager: s.manager,
		Stack:   version.StackRevision(backend),
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	s.setEvents(tui.NewBridge(program))

	if err := s.startMirror(); err != nil {
		return err
	}
	defer s.close()

	logging.Info("Interactive session started",
		zap.String("session_id", s.state.ID),
		zap.String("mirror", s.mirrorURL()))

	_, err = program.Run()
	cancel()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("interactive UI failed: %w", err)
	}
	return nil
}
