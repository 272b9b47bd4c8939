package contentguard

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/varalys/contentguard/internal/cache"
	"github.com/varalys/contentguard/internal/report"
	"github.com/varalys/contentguard/internal/tui"
)

func init() {
	var root string
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the results of the last scan in the interactive viewer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			last, err := cache.LoadResults(abs)
			if err != nil {
				return fmt.Errorf("no saved scan under %s (run scan first): %w", abs, err)
			}
			base, _ := report.LoadBaseline(filepath.Join(abs, report.BaselineFile))
			return tui.Run(last.Analyses, tui.Options{
				Root:      abs,
				Baseline:  base,
				Cached:    true,
				Timestamp: last.Timestamp,
			})
		},
	}
	cmd.Flags().StringVarP(&root, "path", "p", ".", "scan root")
	rootCmd.AddCommand(cmd)
}
