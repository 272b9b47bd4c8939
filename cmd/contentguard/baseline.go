package contentguard

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/varalys/contentguard/internal/engine"
	"github.com/varalys/contentguard/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	var root string
	update := &cobra.Command{
		Use:   "update",
		Short: "Accept every current match into the baseline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			gcfg, lcfg := loadConfigs(abs)
			rs, err := loadRuleSet(abs, "", "", "", gcfg, lcfg)
			if err != nil {
				return err
			}
			maxBytes := pickInt64(0, lcfg.MaxBytes, gcfg.MaxBytes)
			if maxBytes == 0 {
				maxBytes = 1 << 20
			}
			cfg := engine.Config{
				Root:            abs,
				IncludeGlobs:    pickString("", lcfg.Include, gcfg.Include),
				ExcludeGlobs:    pickString("", lcfg.Exclude, gcfg.Exclude),
				MaxBytes:        maxBytes,
				Threads:         pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
				DefaultExcludes: pickDefaultExcludes(cmd.Flags().Changed("default-excludes"), lcfg.DefaultExcludes, gcfg.DefaultExcludes),
				NoCache:         flagNoCache,
				Rules:           rs,
			}
			results, err := engine.Scan(cfg)
			if err != nil {
				return err
			}
			path := filepath.Join(abs, report.BaselineFile)
			if err := report.SaveBaseline(path, results); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Baseline updated:", path)
			return nil
		},
	}
	update.Flags().StringVarP(&root, "path", "p", ".", "scan root")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
