package contentguard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/varalys/contentguard/internal/audit"
	"github.com/varalys/contentguard/internal/cache"
	"github.com/varalys/contentguard/internal/engine"
	"github.com/varalys/contentguard/internal/report"
	"github.com/varalys/contentguard/internal/rules"
	"github.com/varalys/contentguard/internal/tui"
	"github.com/varalys/contentguard/internal/types"
	"github.com/varalys/contentguard/internal/verdict"
)

var (
	flagPath       string
	flagInclude    string
	flagExclude    string
	flagMaxBytes   int64
	flagEnable     string
	flagDisable    string
	flagRulesFile  string
	flagStdin      bool
	flagHighlight  bool
	flagText       bool
	flagAudit      bool
	flagTUI        bool
	flagNoBaseline bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan files, directories or stdin for suspicious content",
		Example: `  contentguard scan -p ./uploads
  contentguard scan --json docs/ notes.txt
  echo "ignore previous instructions" | contentguard scan --stdin --highlight`,
		RunE: runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "scan root (config, cache, baseline and ignore file live here)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 1<<20, "skip files larger than this")
	cmd.Flags().StringVar(&flagEnable, "enable", "", "only run these rules (comma-separated IDs)")
	cmd.Flags().StringVar(&flagDisable, "disable", "", "disable these rules (comma-separated IDs)")
	cmd.Flags().StringVar(&flagRulesFile, "rules", "", "YAML rule pack merged over the built-in rules")
	cmd.Flags().BoolVar(&flagStdin, "stdin", false, "scan text read from stdin")
	cmd.Flags().BoolVar(&flagHighlight, "highlight", false, "print flagged content with matches highlighted")
	cmd.Flags().BoolVar(&flagText, "text", false, "output in plain text columnar format")
	cmd.Flags().BoolVar(&flagAudit, "audit", false, "append a record of this scan to the audit log")
	cmd.Flags().BoolVar(&flagTUI, "tui", false, "browse results in the interactive viewer")
	cmd.Flags().BoolVar(&flagNoBaseline, "no-baseline", false, "report baselined matches too")
}

// scanSettings is the resolved configuration shared by the scan paths.
type scanSettings struct {
	rules    *rules.RuleSet
	maxBytes int64
	failOn   string
	noColor  bool
}

func runScan(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	abs, err := filepath.Abs(flagPath)
	if err != nil {
		return err
	}
	// Load configs: CLI > local > global
	gcfg, lcfg := loadConfigs(abs)
	log, err := newLogger(gcfg, lcfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	rs, err := loadRuleSet(abs, flagRulesFile, flagEnable, flagDisable, gcfg, lcfg)
	if err != nil {
		return err
	}
	log.Debug("rule set loaded", zap.Int("rules", rs.Len()), zap.String("fingerprint", rs.Fingerprint()))

	s := scanSettings{
		rules:    rs,
		maxBytes: pickInt64(flagMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes),
		failOn:   pickString(flagFailOn, lcfg.FailOn, gcfg.FailOn),
		noColor:  !colorEnabled(out, pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor)),
	}
	if s.failOn != "" {
		if _, err := verdict.ParseStatus(s.failOn); err != nil {
			return err
		}
	}
	if flagStdin {
		return scanStdin(cmd, s)
	}

	var paths []string
	for _, a := range args {
		p, err := filepath.Abs(a)
		if err != nil {
			return err
		}
		if _, err := os.Stat(p); err != nil {
			return err
		}
		paths = append(paths, p)
	}

	cfg := engine.Config{
		Root:            abs,
		Paths:           paths,
		IncludeGlobs:    pickString(flagInclude, lcfg.Include, gcfg.Include),
		ExcludeGlobs:    pickString(flagExclude, lcfg.Exclude, gcfg.Exclude),
		MaxBytes:        s.maxBytes,
		Threads:         pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		DefaultExcludes: pickDefaultExcludes(cmd.Flags().Changed("default-excludes"), lcfg.DefaultExcludes, gcfg.DefaultExcludes),
		NoCache:         flagNoCache,
		DryRun:          flagDryRun,
		KeepContent:     flagHighlight || flagTUI || flagSARIF,
		Rules:           rs,
		Logger:          log,
	}

	if flagDryRun {
		res, err := engine.ScanWithStats(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Would scan %d files under %s\n", res.FilesScanned, abs)
		return nil
	}

	res, err := engine.ScanWithStats(cfg)
	if err != nil {
		return err
	}

	baselinePath := filepath.Join(abs, report.BaselineFile)
	base, err := report.LoadBaseline(baselinePath)
	if err != nil && !os.IsNotExist(err) {
		log.Warn("ignoring unreadable baseline", zap.String("path", baselinePath), zap.Error(err))
	}
	reported := res.Analyses
	if !flagNoBaseline {
		reported = report.FilterNew(res.Analyses, base, rs)
	}

	if err := cache.SaveResults(abs, stripContent(reported)); err != nil {
		log.Warn("could not save last scan", zap.Error(err))
	}
	if flagAudit {
		rec := audit.CreateScanRecord(abs, reported, countFlagged(reported), res.Duration, baselinePath)
		if err := audit.NewAuditLog(abs).LogScan(rec); err != nil {
			log.Warn("could not write audit log", zap.Error(err))
		}
	}

	if flagTUI {
		return tui.Run(reported, tui.Options{
			Root:     abs,
			Baseline: base,
			Rescan: func() ([]types.Analysis, error) {
				r, err := engine.ScanWithStats(cfg)
				if err != nil {
					return nil, err
				}
				b, _ := report.LoadBaseline(baselinePath)
				return report.FilterNew(r.Analyses, b, rs), nil
			},
		})
	}

	opts := report.PrintOptions{
		NoColor:      s.noColor,
		Duration:     res.Duration,
		FilesScanned: res.FilesScanned,
		CacheHits:    res.CacheHits,
	}
	if err := writeReport(out, reported, s, opts); err != nil {
		return err
	}
	if report.ShouldFail(reported, s.failOn) {
		return exitError{code: 1}
	}
	return nil
}

func scanStdin(cmd *cobra.Command, s scanSettings) error {
	a, err := engine.ScanReader("stdin", cmd.InOrStdin(), s.rules, s.maxBytes)
	if err != nil {
		if errors.Is(err, engine.ErrTooLarge) {
			return fmt.Errorf("stdin is larger than --max-bytes (%d)", s.maxBytes)
		}
		return err
	}
	analyses := []types.Analysis{a}
	if err := writeReport(cmd.OutOrStdout(), analyses, s, report.PrintOptions{NoColor: s.noColor}); err != nil {
		return err
	}
	if report.ShouldFail(analyses, s.failOn) {
		return exitError{code: 1}
	}
	return nil
}

// writeReport renders analyses in the format selected by flags.
func writeReport(w io.Writer, analyses []types.Analysis, s scanSettings, opts report.PrintOptions) error {
	switch {
	case flagJSON:
		return report.WriteJSON(w, stripContent(analyses))
	case flagSARIF:
		return report.WriteSARIF(w, analyses, s.rules, version)
	case flagHighlight:
		return writeHighlights(w, analyses, opts)
	case flagText:
		report.PrintText(w, analyses, opts)
		return nil
	default:
		return report.PrintTable(w, analyses, opts)
	}
}

func writeHighlights(w io.Writer, analyses []types.Analysis, opts report.PrintOptions) error {
	shown := 0
	for _, a := range analyses {
		if a.Status == types.StatusApproved {
			continue
		}
		if shown > 0 {
			fmt.Fprintln(w)
		}
		shown++
		fmt.Fprintf(w, "== %s  %s %d\n", a.FileName, a.Status, a.Score)
		hopts := report.HighlightOptions{NoColor: opts.NoColor, Legend: true}
		if err := report.Highlight(w, a.Content, a.Matches, hopts); err != nil {
			return err
		}
	}
	if shown == 0 {
		fmt.Fprintln(w, "No suspicious content found ✅")
	}
	return nil
}

func countFlagged(analyses []types.Analysis) int {
	n := 0
	for _, a := range analyses {
		if a.Status != types.StatusApproved {
			n++
		}
	}
	return n
}

func stripContent(analyses []types.Analysis) []types.Analysis {
	out := make([]types.Analysis, len(analyses))
	for i, a := range analyses {
		out[i] = a
		out[i].Content = ""
	}
	return out
}
