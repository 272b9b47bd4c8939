package contentguard

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/varalys/contentguard/internal/redact"
)

func init() {
	var replacement, packPath string
	cmd := &cobra.Command{
		Use:   "redact <file>...",
		Short: "Mask matched content in files in place",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := activeRules(packPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range args {
				abs, err := filepath.Abs(p)
				if err != nil {
					return err
				}
				if flagDryRun {
					changed, err := redact.WouldChange(abs, rs)
					if err != nil {
						return err
					}
					if changed {
						fmt.Fprintln(out, "would redact", p)
					} else {
						fmt.Fprintln(out, "unchanged", p)
					}
					continue
				}
				changed, err := redact.File(abs, rs, replacement)
				if err != nil {
					return fmt.Errorf("redact %s: %w", p, err)
				}
				if changed {
					fmt.Fprintln(out, "redacted", p)
				} else {
					fmt.Fprintln(out, "unchanged", p)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&replacement, "replace", redact.DefaultReplacement, "text substituted for each matched span")
	cmd.Flags().StringVar(&packPath, "rules", "", "YAML rule pack merged over the built-in rules")
	rootCmd.AddCommand(cmd)
}
