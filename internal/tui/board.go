package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"growthquest/internal/engine"
)

// RunBoard opens the interactive quest board for one user and blocks until it exits.
func RunBoard(ctx context.Context, svc *engine.Service, userID int64, out io.Writer) error {
	m := newBoardModel(ctx, svc, userID)
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
