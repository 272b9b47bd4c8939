package tui

import (
	"fmt"
	"path/filepath"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/varalys/contentguard/internal/audit"
	"github.com/varalys/contentguard/internal/files"
	"github.com/varalys/contentguard/internal/report"
)

// copyMatchToClipboard copies the selected file's first match text.
func (m Model) copyMatchToClipboard() tea.Cmd {
	a := m.selected()
	if a == nil {
		return func() tea.Msg { return statusMsg("No file selected") }
	}
	if len(a.Matches) == 0 {
		return func() tea.Msg { return statusMsg("No matches to copy") }
	}
	text := a.Matches[0].Text
	if err := clipboard.WriteAll(text); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	return func() tea.Msg { return statusMsg(fmt.Sprintf("Copied: %q", report.DisplayText(text))) }
}

// copyPathToClipboard copies the selected file name.
func (m Model) copyPathToClipboard() tea.Cmd {
	a := m.selected()
	if a == nil {
		return func() tea.Msg { return statusMsg("No file selected") }
	}
	if err := clipboard.WriteAll(a.FileName); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	return func() tea.Msg { return statusMsg(fmt.Sprintf("Copied: %s", a.FileName)) }
}

func (m Model) ignoreFile() tea.Cmd {
	a := m.selected()
	if a == nil {
		return nil
	}
	name := a.FileName
	root := m.opts.Root
	return func() tea.Msg {
		if err := files.AppendIgnore(root, name); err != nil {
			return statusMsg(fmt.Sprintf("Error writing ignore file: %v", err))
		}
		return statusMsg(fmt.Sprintf("Added %s to .contentguardignore", name))
	}
}

// addToBaseline accepts every match of the selected file.
func (m *Model) addToBaseline() tea.Cmd {
	a := m.selected()
	if a == nil {
		return nil
	}
	if len(a.Matches) == 0 {
		return func() tea.Msg { return statusMsg("Nothing to baseline") }
	}
	path := filepath.Join(m.opts.Root, report.BaselineFile)
	base, err := report.LoadBaseline(path)
	if err != nil {
		base = report.Baseline{Items: map[string]bool{}}
	}
	base.Add(*a)
	m.baseline.Add(*a)
	m.updateViewportContent()
	if err := base.Save(path); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Error writing baseline: %v", err)) }
	}
	n := len(a.Matches)
	return func() tea.Msg { return statusMsg(fmt.Sprintf("Baselined %d matches", n)) }
}

func (m *Model) openHistory() tea.Cmd {
	history, err := audit.NewAuditLog(m.opts.Root).LoadHistory()
	if err != nil {
		history = nil
	}
	m.history = history
	m.historySelection = 0
	m.showHistory = true
	return nil
}
