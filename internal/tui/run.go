package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/varalys/contentguard/internal/types"
)

// Run starts the interactive viewer over analyses and blocks until the user
// quits.
func Run(analyses []types.Analysis, opts Options) error {
	m := NewModel(analyses, opts)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
