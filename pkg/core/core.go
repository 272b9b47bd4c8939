package core

import (
	"github.com/varalys/contentguard/internal/engine"
	"github.com/varalys/contentguard/internal/rules"
	"github.com/varalys/contentguard/internal/scanner"
	"github.com/varalys/contentguard/internal/types"
	"github.com/varalys/contentguard/internal/verdict"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	Status      = types.Status
	Match       = types.Match
	ScanResult  = types.ScanResult
	Analysis    = types.Analysis
	Rule        = rules.Rule
	RuleSet     = rules.RuleSet
	ConfigError = rules.ConfigError
	Scanner     = scanner.Scanner
	Config      = engine.Config
	Result      = engine.Result
)

const (
	StatusApproved = types.StatusApproved
	StatusWarning  = types.StatusWarning
	StatusBlocked  = types.StatusBlocked
)

// Scan scans text with the built-in rules.
func Scan(text string) ScanResult { return scanner.Scan(text) }

// NewScanner compiles defs into a scanner. A nil or empty defs means the
// built-in rules. Invalid definitions return a *ConfigError.
func NewScanner(defs []Rule) (*Scanner, error) {
	if len(defs) == 0 {
		return scanner.Default(), nil
	}
	rs, err := rules.New(defs)
	if err != nil {
		return nil, err
	}
	return scanner.New(rs), nil
}

// DefaultRules returns the built-in rule definitions in evaluation order.
func DefaultRules() []Rule { return rules.Defaults() }

// Classify maps threat labels to a status and score. Repeated labels count
// once.
func Classify(labels []string) (Status, int) { return verdict.Classify(labels) }

// ScanFiles scans files selected by cfg.
func ScanFiles(cfg Config) ([]Analysis, error) { return engine.Scan(cfg) }

// ScanWithStats scans files selected by cfg and reports timing and counts.
func ScanWithStats(cfg Config) (Result, error) { return engine.ScanWithStats(cfg) }
