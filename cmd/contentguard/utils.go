package contentguard

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/varalys/contentguard/internal/config"
	"github.com/varalys/contentguard/internal/rules"
)

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickInt(cli int, local, global *int) int {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickInt64(cli int64, local, global *int64) int64 {
	if cli != 0 {
		return cli
	}
	if local != nil && *local != 0 {
		return *local
	}
	if global != nil && *global != 0 {
		return *global
	}
	return 0
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}

// pickDefaultExcludes honours an explicit --default-excludes before config
// files, since the flag defaults to true and cannot be told apart otherwise.
func pickDefaultExcludes(changed bool, local, global *bool) bool {
	if changed {
		return flagDefaultExcludes
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return flagDefaultExcludes
}

// colorEnabled reports whether styled output should be written to w.
func colorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// loadRuleSet resolves the rule pack and enable/disable lists with the usual
// precedence and builds the active rule set. A relative pack path from a
// config file is resolved against root.
func loadRuleSet(root, cliPack, cliEnable, cliDisable string, gcfg, lcfg config.FileConfig) (*rules.RuleSet, error) {
	pack := cliPack
	if pack == "" && lcfg.RulesFile != nil && *lcfg.RulesFile != "" {
		pack = *lcfg.RulesFile
		if !filepath.IsAbs(pack) {
			pack = filepath.Join(root, pack)
		}
	}
	if pack == "" && gcfg.RulesFile != nil {
		pack = strings.TrimSpace(*gcfg.RulesFile)
	}
	return rules.Load(pack,
		pickString(cliEnable, lcfg.Enable, gcfg.Enable),
		pickString(cliDisable, lcfg.Disable, gcfg.Disable))
}
