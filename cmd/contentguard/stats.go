package contentguard

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/varalys/contentguard/internal/audit"
	"github.com/varalys/contentguard/internal/stats"
)

type statsReport struct {
	Scans int `json:"scans"`
	stats.Summary
}

func init() {
	var root string
	var last int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise verdicts across the audit history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			abs, err := filepath.Abs(root)
			if err != nil {
				return err
			}
			log := audit.NewAuditLog(abs)
			records, err := log.LoadHistory()
			if err != nil {
				return fmt.Errorf("read audit log %s: %w", log.Path(), err)
			}
			if last > 0 && len(records) > last {
				records = records[:last]
			}
			sum := audit.Summarize(records)
			out := cmd.OutOrStdout()
			if flagJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(statsReport{Scans: len(records), Summary: sum})
			}
			if len(records) == 0 {
				fmt.Fprintf(out, "No scans recorded in %s (run scan --audit)\n", log.Path())
				return nil
			}
			fmt.Fprintf(out, "Scans:         %d (latest %s)\n", len(records), records[0].Timestamp.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Artifacts:     %d\n", sum.Total)
			fmt.Fprintf(out, "Approved:      %d\n", sum.Approved)
			fmt.Fprintf(out, "Warning:       %d\n", sum.Warning)
			fmt.Fprintf(out, "Blocked:       %d\n", sum.Blocked)
			fmt.Fprintf(out, "Average score: %d\n", sum.AverageScore)
			return nil
		},
	}
	cmd.Flags().StringVarP(&root, "path", "p", ".", "scan root whose audit log to read")
	cmd.Flags().IntVar(&last, "last", 0, "only the N most recent scans (0 = all)")
	rootCmd.AddCommand(cmd)
}
