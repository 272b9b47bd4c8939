package contentguard

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/varalys/contentguard/internal/config"
	"github.com/varalys/contentguard/internal/rules"
	"github.com/varalys/contentguard/internal/verdict"
)

var (
	cfgPreset          string
	cfgOutput          string
	cfgEnable          string
	cfgDisable         string
	cfgRulesFile       string
	cfgFailOn          string
	cfgThreads         int
	cfgMaxBytes        int64
	cfgNoColor         bool
	cfgDefaultExcludes bool
	cfgForce           bool
)

// presets maps a preset name to the rule IDs it enables; nil means all.
var presets = map[string][]string{
	"injection": {"instruction_override", "system_prompt_extraction", "safety_bypass", "hidden_unicode"},
	"secrets":   {"credential_keyword"},
	"web":       {"script_injection", "hidden_unicode"},
	"all":       nil,
}

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .contentguard.yml with selected rules and options",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgPreset, "preset", "all", "rule preset: all | injection | secrets | web")
	initCmd.Flags().StringVar(&cfgOutput, "output", ".contentguard.yml", "output file path")
	initCmd.Flags().StringVar(&cfgEnable, "enable", "", "comma-separated rule IDs to enable (overrides preset if set)")
	initCmd.Flags().StringVar(&cfgDisable, "disable", "", "comma-separated rule IDs to disable")
	initCmd.Flags().StringVar(&cfgRulesFile, "rules", "", "rule pack path to record")
	initCmd.Flags().StringVar(&cfgFailOn, "fail-on", "blocked", "failure threshold: approved | warning | blocked")
	initCmd.Flags().IntVar(&cfgThreads, "threads", 0, "worker threads (0=GOMAXPROCS)")
	initCmd.Flags().Int64Var(&cfgMaxBytes, "max-bytes", 1<<20, "skip files larger than this")
	initCmd.Flags().BoolVar(&cfgNoColor, "no-color", false, "disable color output by default")
	initCmd.Flags().BoolVar(&cfgDefaultExcludes, "default-excludes", true, "enable default ignore patterns")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	enable := strings.TrimSpace(cfgEnable)
	if enable == "" {
		ids, ok := presets[strings.ToLower(cfgPreset)]
		if !ok {
			return fmt.Errorf("unknown preset %q", cfgPreset)
		}
		enable = strings.Join(ids, ",")
	}
	// validate IDs against the built-ins unless a pack may define them
	if cfgRulesFile == "" {
		if _, err := rules.Default().Select(rules.ParseIDs(enable), rules.ParseIDs(cfgDisable)); err != nil {
			return err
		}
	}
	if _, err := verdict.ParseStatus(cfgFailOn); err != nil {
		return err
	}
	if _, err := os.Stat(cfgOutput); err == nil && !cfgForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
	}

	fc := config.FileConfig{
		MaxBytes:        int64Ptr(cfgMaxBytes),
		Enable:          optStrPtr(enable),
		Disable:         optStrPtr(cfgDisable),
		RulesFile:       optStrPtr(cfgRulesFile),
		FailOn:          optStrPtr(cfgFailOn),
		Threads:         intPtr(cfgThreads),
		NoColor:         boolPtr(cfgNoColor),
		DefaultExcludes: boolPtr(cfgDefaultExcludes),
	}
	if err := config.Save(cfgOutput, fc); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)
	return nil
}

func optStrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }
