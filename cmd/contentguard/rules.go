package contentguard

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/varalys/contentguard/internal/engine"
	"github.com/varalys/contentguard/internal/report"
	"github.com/varalys/contentguard/internal/rules"
)

func init() {
	var packPath string
	list := &cobra.Command{
		Use:   "rules",
		Short: "List the active rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rs, err := activeRules(packPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if flagJSON {
				return writeRulesJSON(out, rs)
			}
			table := tablewriter.NewWriter(out)
			table.Header("ID", "LABEL", "REASON")
			for _, r := range rs.Rules() {
				if err := table.Append([]string{r.ID, r.ThreatLabel, r.Reason}); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	list.Flags().StringVar(&packPath, "rules", "", "YAML rule pack merged over the built-in rules")
	rootCmd.AddCommand(list)

	var testPack string
	test := &cobra.Command{
		Use:   "test-rule <id>",
		Short: "Run a single rule against text read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := activeRules(testPack)
			if err != nil {
				return err
			}
			id := args[0]
			if _, ok := rs.Lookup(id); !ok {
				return fmt.Errorf("unknown rule id: %s (available: %s)", id, strings.Join(rs.IDs(), ", "))
			}
			one, err := rs.Select([]string{id}, nil)
			if err != nil {
				return err
			}
			a, err := engine.ScanReader("stdin", cmd.InOrStdin(), one, 0)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(a.Matches) == 0 {
				fmt.Fprintf(out, "%s: no matches\n", id)
				return nil
			}
			fmt.Fprintf(out, "%s: %d match(es)\n", id, len(a.Matches))
			return report.Highlight(out, a.Content, a.Matches, report.HighlightOptions{
				NoColor: !colorEnabled(out, flagNoColor),
				Legend:  true,
			})
		},
	}
	test.Flags().StringVar(&testPack, "rules", "", "YAML rule pack merged over the built-in rules")
	test.Long = "Available built-in rules: " + strings.Join(rules.Default().IDs(), ", ")
	rootCmd.AddCommand(test)
}

// activeRules builds the rule set seen from the current directory: an
// explicit pack, else whatever the local or global config names.
func activeRules(pack string) (*rules.RuleSet, error) {
	abs, err := filepath.Abs(".")
	if err != nil {
		return nil, err
	}
	gcfg, lcfg := loadConfigs(abs)
	return loadRuleSet(abs, pack, "", "", gcfg, lcfg)
}

type ruleView struct {
	ID      string `json:"id"`
	Pattern string `json:"pattern"`
	Reason  string `json:"reason"`
	Label   string `json:"label"`
}

func writeRulesJSON(w io.Writer, rs *rules.RuleSet) error {
	out := make([]ruleView, 0, rs.Len())
	for _, r := range rs.Rules() {
		out = append(out, ruleView{ID: r.ID, Pattern: r.Pattern, Reason: r.Reason, Label: r.ThreatLabel})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
