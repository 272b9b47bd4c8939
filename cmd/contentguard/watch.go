package contentguard

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/varalys/contentguard/internal/report"
	"github.com/varalys/contentguard/internal/types"
	"github.com/varalys/contentguard/internal/watch"
)

var (
	flagDebounce   time.Duration
	flagWatchRules string
	flagWatchMax   int64
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Scan files as they are created or modified under a directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	cmd.Flags().DurationVar(&flagDebounce, "debounce", watch.DefaultDebounce, "quiet period before a changed file is scanned")
	cmd.Flags().StringVar(&flagWatchRules, "rules", "", "YAML rule pack merged over the built-in rules")
	cmd.Flags().Int64Var(&flagWatchMax, "max-bytes", 1<<20, "skip files larger than this")
	rootCmd.AddCommand(cmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	abs, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	gcfg, lcfg := loadConfigs(abs)
	log, err := newLogger(gcfg, lcfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	rs, err := loadRuleSet(abs, flagWatchRules, "", "", gcfg, lcfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	noColor := !colorEnabled(out, pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor))
	enc := json.NewEncoder(out)
	w, err := watch.New(watch.Config{
		Dir:      abs,
		Rules:    rs,
		MaxBytes: pickInt64(flagWatchMax, lcfg.MaxBytes, gcfg.MaxBytes),
		Debounce: flagDebounce,
		Logger:   log,
		OnAnalysis: func(a types.Analysis) {
			if flagJSON {
				a.Content = ""
				_ = enc.Encode(a)
				return
			}
			report.PrintText(out, []types.Analysis{a}, report.PrintOptions{NoColor: noColor})
		},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", abs)
	if err := w.Run(ctx); err != nil {
		return err
	}

	sum := w.Summary()
	fmt.Fprintf(cmd.ErrOrStderr(), "\nScanned %d (approved: %d, warning: %d, blocked: %d, average score: %d)\n",
		sum.Total, sum.Approved, sum.Warning, sum.Blocked, sum.AverageScore)
	return nil
}
