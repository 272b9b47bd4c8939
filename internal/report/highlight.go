package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/varalys/contentguard/internal/types"
)

// Segment is a run of content that is either plain or highlighted. A
// highlighted segment may cover several overlapping matches; Reasons lists
// each distinct reason once.
type Segment struct {
	Text        string
	Start, End  int
	Highlighted bool
	Reasons     []string
}

// Segments splits content into plain and highlighted runs. Matches are
// considered in start order; a match that begins inside the current
// highlight is folded into it, extending it when it reaches further. Every
// byte of content appears in exactly one segment. Matches whose offsets do
// not fit content are ignored.
func Segments(content string, matches []types.Match) []Segment {
	ms := make([]types.Match, 0, len(matches))
	for _, m := range matches {
		if m.StartIndex >= 0 && m.StartIndex < m.EndIndex && m.EndIndex <= len(content) {
			ms = append(ms, m)
		}
	}
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].StartIndex < ms[j].StartIndex })

	var out []Segment
	pos := 0
	var cur *Segment
	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = content[cur.Start:cur.End]
		out = append(out, *cur)
		pos = cur.End
		cur = nil
	}
	for _, m := range ms {
		if cur != nil && m.StartIndex < cur.End {
			if m.EndIndex > cur.End {
				cur.End = m.EndIndex
			}
			cur.Reasons = appendUnique(cur.Reasons, m.Reason)
			continue
		}
		flush()
		if m.StartIndex > pos {
			out = append(out, Segment{Text: content[pos:m.StartIndex], Start: pos, End: m.StartIndex})
		}
		cur = &Segment{Start: m.StartIndex, End: m.EndIndex, Highlighted: true, Reasons: []string{m.Reason}}
	}
	flush()
	if pos < len(content) {
		out = append(out, Segment{Text: content[pos:], Start: pos, End: len(content)})
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// HighlightOptions controls Highlight rendering.
type HighlightOptions struct {
	NoColor bool
	Legend  bool
	Width   int // wrap width for coloured output; 0 disables wrapping
}

var (
	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("1")).
			Bold(true)
	legendTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	legendReasonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("9"))
)

// RenderHighlight returns content with highlighted segments styled (or
// wrapped in [[ ]] markers when colour is off), optionally followed by a
// legend listing each highlight and its reasons. Invisible characters are
// spelled out so hidden text is visible.
func RenderHighlight(content string, matches []types.Match, opts HighlightOptions) string {
	segs := Segments(content, matches)
	var b strings.Builder
	for _, s := range segs {
		text := DisplayText(s.Text)
		switch {
		case !s.Highlighted:
			b.WriteString(text)
		case opts.NoColor:
			b.WriteString("[[")
			b.WriteString(text)
			b.WriteString("]]")
		default:
			b.WriteString(highlightStyle.Render(text))
		}
	}
	body := b.String()
	if !opts.NoColor && opts.Width > 0 {
		body = lipgloss.NewStyle().Width(opts.Width).Render(body)
	}
	if !opts.Legend {
		return body
	}

	var lg strings.Builder
	lg.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		lg.WriteString("\n")
	}
	lg.WriteString("\n")
	title := "Legend:"
	if !opts.NoColor {
		title = legendTitleStyle.Render(title)
	}
	lg.WriteString(title)
	lg.WriteString("\n")
	n := 0
	for _, s := range segs {
		if !s.Highlighted {
			continue
		}
		n++
		reasons := strings.Join(s.Reasons, "; ")
		if !opts.NoColor {
			reasons = legendReasonStyle.Render(reasons)
		}
		fmt.Fprintf(&lg, "  %d. %q [%d:%d] %s\n", n, DisplayText(s.Text), s.Start, s.End, reasons)
	}
	if n == 0 {
		lg.WriteString("  (no suspicious patterns)\n")
	}
	return lg.String()
}

// Highlight writes RenderHighlight output to w.
func Highlight(w io.Writer, content string, matches []types.Match, opts HighlightOptions) error {
	_, err := io.WriteString(w, RenderHighlight(content, matches, opts))
	return err
}
