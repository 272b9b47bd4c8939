package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/varalys/contentguard/internal/stats"
	"github.com/varalys/contentguard/internal/types"
)

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	CacheHits    int
}

var statusStyles = map[types.Status]lipgloss.Style{
	types.StatusApproved: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	types.StatusWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	types.StatusBlocked:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
}

func statusText(s types.Status, noColor bool) string {
	if noColor {
		return string(s)
	}
	if st, ok := statusStyles[s]; ok {
		return st.Render(string(s))
	}
	return string(s)
}

func threatsText(threats []string) string {
	if len(threats) == 0 {
		return "-"
	}
	return strings.Join(threats, "; ")
}

// PrintTable writes one row per analysis followed by a summary footer.
func PrintTable(w io.Writer, analyses []types.Analysis, opts PrintOptions) error {
	if len(analyses) == 0 {
		fmt.Fprintln(w, "No files scanned")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("FILE", "STATUS", "SCORE", "THREATS", "MATCHES")
		for _, a := range analyses {
			row := []string{
				a.FileName,
				statusText(a.Status, opts.NoColor),
				strconv.Itoa(a.Score),
				threatsText(a.Threats),
				strconv.Itoa(len(a.Matches)),
			}
			if err := table.Append(row); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	printFooter(w, analyses, opts)
	return nil
}

// PrintText writes a plain columnar report with one line per match.
func PrintText(w io.Writer, analyses []types.Analysis, opts PrintOptions) {
	flagged := 0
	for _, a := range analyses {
		if a.Status != types.StatusApproved {
			flagged++
		}
	}
	if flagged == 0 {
		fmt.Fprintln(w, "No suspicious content found ✅")
	} else {
		maxName := 4
		for _, a := range analyses {
			if l := len(a.FileName); l > maxName {
				maxName = l
			}
		}
		fmt.Fprintf(w, "Flagged: %d\n", flagged)
		for _, a := range analyses {
			if a.Status == types.StatusApproved {
				continue
			}
			// pad before styling so ANSI codes do not skew the columns
			st := fmt.Sprintf("%-8s", a.Status)
			if !opts.NoColor {
				st = statusText(a.Status, false) + strings.Repeat(" ", 8-len(a.Status))
			}
			fmt.Fprintf(w, "%s %3d  %-*s  %s\n", st, a.Score, maxName, a.FileName, threatsText(a.Threats))
			for _, m := range a.Matches {
				fmt.Fprintf(w, "    [%d:%d] %-24s %q (%s)\n", m.StartIndex, m.EndIndex, m.RuleID, DisplayText(m.Text), m.Reason)
			}
		}
	}
	printFooter(w, analyses, opts)
}

func printFooter(w io.Writer, analyses []types.Analysis, opts PrintOptions) {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 {
		return
	}
	sum := stats.FromAnalyses(analyses)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Verdicts: %d (approved: %d, warning: %d, blocked: %d)\n",
		sum.Total, sum.Approved, sum.Warning, sum.Blocked)
	if sum.Total > 0 {
		fmt.Fprintf(w, "Average score: %d\n", sum.AverageScore)
	}
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.CacheHits > 0 {
		fmt.Fprintf(w, "Cache hits: %d\n", opts.CacheHits)
	}
}
