package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/varalys/contentguard/internal/audit"
	"github.com/varalys/contentguard/internal/report"
	"github.com/varalys/contentguard/internal/stats"
	"github.com/varalys/contentguard/internal/types"
)

var (
	paneBorderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(1, 4)

	approvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	blockedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Options configures the viewer.
type Options struct {
	// Root is where the ignore file, baseline and audit log live.
	Root     string
	Baseline report.Baseline
	// Rescan re-runs the scan; nil disables the r key.
	Rescan func() ([]types.Analysis, error)
	// Cached marks analyses loaded from a previous run.
	Cached    bool
	Timestamp time.Time
}

type statusMsg string

type analysesMsg []types.Analysis

// Model is the bubbletea model of the viewer.
type Model struct {
	table    table.Model
	viewport viewport.Model
	spinner  spinner.Model

	analyses []types.Analysis
	visible  []int        // indices into analyses after the status filter
	filter   types.Status // "" shows everything
	baseline report.Baseline
	prefs    Prefs
	opts     Options

	ready         bool
	scanning      bool
	quitting      bool
	showHelp      bool
	viewingCached bool
	lastScanTime  time.Time

	showHistory      bool
	history          []audit.ScanRecord
	historySelection int

	width         int
	height        int
	statusMessage string
	statusTimeout *time.Time
}

// statusText returns plain text for a status; ANSI codes break table
// truncation.
func statusText(s types.Status) string {
	return strings.ToUpper(string(s))
}

func styleStatus(s types.Status) string {
	switch s {
	case types.StatusBlocked:
		return blockedStyle.Render(string(s))
	case types.StatusWarning:
		return warningStyle.Render(string(s))
	default:
		return approvedStyle.Render(string(s))
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// NewModel initializes the viewer over analyses.
func NewModel(analyses []types.Analysis, opts Options) Model {
	columns := []table.Column{
		{Title: "Status", Width: 10},
		{Title: "Score", Width: 6},
		{Title: "File", Width: 40},
		{Title: "Threats", Width: 40},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Left)
	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true).
		Padding(0, 1)
	s.Cell = lipgloss.NewStyle().Padding(0, 1)
	t.SetStyles(s)

	// Line spinner avoids Braille characters that render poorly on some terminals
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	base := opts.Baseline
	if base.Items == nil {
		base.Items = map[string]bool{}
	}
	if opts.Root == "" {
		opts.Root = "."
	}

	m := Model{
		table:         t,
		viewport:      viewport.New(80, 10),
		spinner:       sp,
		analyses:      analyses,
		baseline:      base,
		prefs:         LoadPrefs(),
		opts:          opts,
		viewingCached: opts.Cached,
		lastScanTime:  time.Now(),
		statusMessage: "q: quit | ?: help | j/k: navigate | y: copy match | r: rescan | f: filter",
	}
	if opts.Cached && !opts.Timestamp.IsZero() {
		m.lastScanTime = opts.Timestamp
	}
	m.rebuildRows()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// rebuildRows applies the status filter and refreshes the table and detail
// pane.
func (m *Model) rebuildRows() {
	m.visible = nil
	rows := make([]table.Row, 0, len(m.analyses))
	for i, a := range m.analyses {
		if m.filter != "" && a.Status != m.filter {
			continue
		}
		m.visible = append(m.visible, i)
		threats := strings.Join(a.Threats, "; ")
		if threats == "" {
			threats = "-"
		}
		rows = append(rows, table.Row{
			statusText(a.Status),
			fmt.Sprintf("%d", a.Score),
			a.FileName,
			threats,
		})
	}
	m.table.SetRows(rows)
	if n := len(rows); n > 0 {
		if c := m.table.Cursor(); c < 0 || c >= n {
			m.table.SetCursor(min(max(c, 0), n-1))
		}
	}
	m.updateViewportContent()
}

// selected returns the analysis under the cursor.
func (m Model) selected() *types.Analysis {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.visible) {
		return nil
	}
	return &m.analyses[m.visible[c]]
}

func (m *Model) cycleFilter() {
	switch m.filter {
	case "":
		m.filter = types.StatusWarning
	case types.StatusWarning:
		m.filter = types.StatusBlocked
	case types.StatusBlocked:
		m.filter = types.StatusApproved
	default:
		m.filter = ""
	}
	m.rebuildRows()
}

func (m *Model) updateViewportContent() {
	a := m.selected()
	if a == nil {
		m.viewport.SetContent("No analysis selected")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "File:    %s\n", a.FileName)
	if a.FileType != "" {
		fmt.Fprintf(&b, "Type:    %s\n", a.FileType)
	}
	if lang := languageName(a.FileName); lang != "" {
		fmt.Fprintf(&b, "Syntax:  %s\n", lang)
	}
	fmt.Fprintf(&b, "Status:  %s (score %d)\n", styleStatus(a.Status), a.Score)
	if len(a.Threats) > 0 {
		fmt.Fprintf(&b, "Threats: %s\n", strings.Join(a.Threats, "; "))
	}
	b.WriteString("\n")

	if a.Content != "" && m.prefs.SourceView {
		b.WriteString(highlightSource(a.Content, a.FileName))
	} else if a.Content != "" {
		b.WriteString(report.RenderHighlight(a.Content, a.Matches, report.HighlightOptions{
			Legend: m.prefs.ShowLegend,
			Width:  m.viewport.Width,
		}))
	} else if len(a.Matches) == 0 {
		b.WriteString("No suspicious patterns")
	} else {
		for _, mt := range a.Matches {
			mark := ""
			if m.baseline.Contains(a.FileName, mt) {
				mark = " (baselined)"
			}
			fmt.Fprintf(&b, "[%d:%d] %s %q %s%s\n", mt.StartIndex, mt.EndIndex, mt.RuleID,
				report.DisplayText(mt.Text), mt.Reason, mark)
		}
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoTop()
}

func (m *Model) resize() {
	tableHeight := max((m.height-6)/2, 3)
	m.table.SetHeight(tableHeight)
	m.table.SetWidth(m.width - 2)
	fileWidth := max(m.width-2-10-6-40-8, 20)
	m.table.SetColumns([]table.Column{
		{Title: "Status", Width: 10},
		{Title: "Score", Width: 6},
		{Title: "File", Width: fileWidth},
		{Title: "Threats", Width: 40},
	})
	m.viewport.Width = m.width - 4
	m.viewport.Height = max(m.height-tableHeight-8, 3)
	m.updateViewportContent()
}

func (m *Model) setStatus(s string) {
	m.statusMessage = s
	timeout := time.Now().Add(5 * time.Second)
	m.statusTimeout = &timeout
}

func (m *Model) rescan() tea.Cmd {
	rescan := m.opts.Rescan
	return func() tea.Msg {
		if rescan == nil {
			return statusMsg("Rescan not available")
		}
		analyses, err := rescan()
		if err != nil {
			return statusMsg(fmt.Sprintf("Scan error: %v", err))
		}
		return analysesMsg(analyses)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if m.statusTimeout != nil && time.Now().After(*m.statusTimeout) {
			m.statusTimeout = nil
			m.statusMessage = ""
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMsg:
		m.scanning = false
		m.setStatus(string(msg))
		return m, nil

	case analysesMsg:
		m.scanning = false
		m.viewingCached = false
		m.analyses = msg
		m.lastScanTime = time.Now()
		m.rebuildRows()
		m.setStatus(fmt.Sprintf("Rescan complete: %d files", len(msg)))
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if m.showHistory {
			return m.updateHistory(msg)
		}
		if m.scanning {
			if msg.String() == "ctrl+c" {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "?":
			m.showHelp = true
			return m, nil
		case "r":
			if m.opts.Rescan == nil {
				m.setStatus("Rescan not available")
				return m, nil
			}
			m.scanning = true
			return m, tea.Batch(m.spinner.Tick, m.rescan())
		case "y":
			return m, m.copyMatchToClipboard()
		case "Y":
			return m, m.copyPathToClipboard()
		case "l":
			m.prefs.ShowLegend = !m.prefs.ShowLegend
			_ = SavePrefs(m.prefs)
			m.updateViewportContent()
			return m, nil
		case "f":
			m.cycleFilter()
			return m, nil
		case "s":
			m.prefs.SourceView = !m.prefs.SourceView
			_ = SavePrefs(m.prefs)
			if m.prefs.SourceView {
				m.setStatus("Source view")
			} else {
				m.setStatus("Match view")
			}
			m.updateViewportContent()
			return m, nil
		case "i":
			return m, m.ignoreFile()
		case "b":
			return m, m.addToBaseline()
		case "a":
			return m, m.openHistory()
		case "pgdown", "pgup", "ctrl+d", "ctrl+u":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		before := m.table.Cursor()
		m.table, cmd = m.table.Update(msg)
		if m.table.Cursor() != before {
			m.updateViewportContent()
		}
		return m, cmd
	}
	return m, nil
}

func (m Model) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "a":
		m.showHistory = false
		m.historySelection = 0
	case "up", "k":
		if m.historySelection > 0 {
			m.historySelection--
		}
	case "down", "j":
		if m.historySelection < len(m.history)-1 {
			m.historySelection++
		}
	case "enter":
		if m.historySelection >= 0 && m.historySelection < len(m.history) {
			rec := m.history[m.historySelection]
			m.analyses = rec.Analyses
			m.lastScanTime = rec.Timestamp
			m.viewingCached = true
			m.showHistory = false
			m.rebuildRows()
			m.setStatus(fmt.Sprintf("Loaded scan from %s", rec.Timestamp.Local().Format("Jan 2, 15:04")))
		}
	case "d", "x", "delete":
		log := audit.NewAuditLog(m.opts.Root)
		if err := log.DeleteRecord(m.historySelection); err == nil {
			if history, err := log.LoadHistory(); err == nil {
				m.history = history
			} else {
				m.history = nil
			}
			if m.historySelection >= len(m.history) {
				m.historySelection = max(len(m.history)-1, 0)
			}
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	if m.scanning {
		popup := popupStyle.
			Width(40).
			Align(lipgloss.Center).
			Render(fmt.Sprintf("%s  Rescanning...\n\nPlease wait", m.spinner.View()))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, popup)
	}
	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, popupStyle.Render(helpText()))
	}
	if m.showHistory {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, popupStyle.Render(m.historyView()))
	}

	sum := stats.FromAnalyses(m.analyses)
	header := fmt.Sprintf("Total: %-4d |  %s %-4d |  %s %-4d |  %s %-4d |  Avg score: %d",
		sum.Total,
		approvedStyle.Render("Approved:"), sum.Approved,
		warningStyle.Render("Warning:"), sum.Warning,
		blockedStyle.Render("Blocked:"), sum.Blocked,
		sum.AverageScore)
	if m.filter != "" {
		header += fmt.Sprintf("  [FILTER: %s]", m.filter)
	}
	age := "scanned " + formatDuration(time.Since(m.lastScanTime)) + " ago"
	if m.viewingCached {
		age = "cached, " + age
	}
	title := titleStyle.Render("contentguard") + " " + age

	var body string
	if len(m.analyses) == 0 {
		body = approvedStyle.Render("[OK] Nothing scanned")
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left,
			paneBorderStyle.Render(m.table.View()),
			paneBorderStyle.Render(m.viewport.View()),
		)
	}
	status := statusStyle.Width(m.width).Render(m.statusMessage)
	return lipgloss.JoinVertical(lipgloss.Left, title, header, body, status)
}

func helpText() string {
	keys := [][2]string{
		{"j/k, up/down", "move selection"},
		{"pgup/pgdown", "scroll content"},
		{"y", "copy first match text"},
		{"Y", "copy file name"},
		{"f", "cycle status filter"},
		{"l", "toggle legend"},
		{"s", "toggle source view"},
		{"i", "add file to ignore list"},
		{"b", "baseline file's matches"},
		{"a", "scan history"},
		{"r", "rescan"},
		{"q", "quit"},
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s  %s\n", keyStyle.Render(fmt.Sprintf("%-14s", k[0])), k[1])
	}
	b.WriteString("\npress any key to close")
	return b.String()
}

func (m Model) historyView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Scan history"))
	b.WriteString("\n\n")
	if len(m.history) == 0 {
		b.WriteString("No scans recorded (run scan with --audit)\n")
	}
	for i, r := range m.history {
		cursor := "  "
		if i == m.historySelection {
			cursor = "> "
		}
		fmt.Fprintf(&b, "%s%s  files:%d  warning:%d  blocked:%d  avg:%d\n",
			cursor, r.Timestamp.Local().Format("Jan 2 15:04"), r.Files,
			r.StatusCounts[string(types.StatusWarning)],
			r.StatusCounts[string(types.StatusBlocked)],
			r.AverageScore)
	}
	b.WriteString("\nenter: view  d: delete  esc: close")
	return b.String()
}
