package contentguard

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/varalys/contentguard/internal/config"
	"github.com/varalys/contentguard/internal/logger"
)

var (
	flagJSON            bool
	flagSARIF           bool
	flagThreads         int
	flagFailOn          string
	flagNoColor         bool
	flagDryRun          bool
	flagNoCache         bool
	flagDefaultExcludes bool
	flagLogLevel        string
	flagLogFormat       string

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the contentguard CLI.
var rootCmd = &cobra.Command{
	Use:           "contentguard",
	Short:         "Screen text and uploads for prompt injection and leaked secrets",
	Long:          "contentguard scans files, directories or stdin with a set of case-insensitive rules and reports a verdict (approved, warning, blocked) and a 0-100 safety score per artifact.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit code without printing anything.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the contentguard CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().StringVar(&flagFailOn, "fail-on", "", "exit 1 when a verdict is at least approved|warning|blocked (default blocked)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "show what would be scanned or changed without doing it")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "disable the scan result cache")
	rootCmd.PersistentFlags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "apply built-in exclude list (node_modules, .git, lockfiles, etc.)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "diagnostic log level: debug|info|warn|error (default warn)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "diagnostic log format: console|json")
}

// loadConfigs returns the global and project-local file configs for root.
// Missing files yield zero configs.
func loadConfigs(root string) (gcfg, lcfg config.FileConfig) {
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(root); err == nil {
		lcfg = c
	}
	return gcfg, lcfg
}

// newLogger builds the diagnostic logger from flags, then local, then global
// config.
func newLogger(gcfg, lcfg config.FileConfig) (*logger.Logger, error) {
	return logger.New(logger.Config{
		Level:  pickString(flagLogLevel, lcfg.LogLevel, gcfg.LogLevel),
		Format: pickString(flagLogFormat, lcfg.LogFormat, gcfg.LogFormat),
		Output: os.Stderr,
	})
}
