// Package scanner runs a rule set over text and produces sorted matches, the
// distinct threat labels they map to, and the resulting verdict.
package scanner

import (
	"sort"

	"github.com/varalys/contentguard/internal/rules"
	"github.com/varalys/contentguard/internal/types"
	"github.com/varalys/contentguard/internal/verdict"
)

// Scanner scans text against an immutable rule set. A Scanner holds no
// mutable state, so one value may be shared by any number of goroutines.
type Scanner struct {
	rules *rules.RuleSet
}

// New returns a Scanner over rs. A nil rs means the built-in rules.
func New(rs *rules.RuleSet) *Scanner {
	if rs == nil {
		rs = rules.Default()
	}
	return &Scanner{rules: rs}
}

var defaultScanner = New(nil)

// Default returns the Scanner over the built-in rules.
func Default() *Scanner { return defaultScanner }

// Scan scans input with the built-in rules.
func Scan(input string) types.ScanResult { return defaultScanner.Scan(input) }

// Rules returns the rule set the scanner evaluates.
func (s *Scanner) Rules() *rules.RuleSet { return s.rules }

// Scan reports every occurrence of every rule in input. Matches are ordered by
// start offset (ties keep rule order) and may overlap across rules. Scan never
// fails; its cost is linear in len(input) for each rule.
func (s *Scanner) Scan(input string) types.ScanResult {
	matches := make([]types.Match, 0)
	threats := make([]string, 0)
	seen := make(map[string]bool)

	for i := 0; i < s.rules.Len(); i++ {
		r := s.rules.At(i)
		found := false
		for _, loc := range r.Re.FindAllStringIndex(input, -1) {
			// rule packs may carry patterns that match the empty string
			if loc[0] == loc[1] {
				continue
			}
			found = true
			matches = append(matches, types.Match{
				Text:       input[loc[0]:loc[1]],
				Reason:     r.Reason,
				StartIndex: loc[0],
				EndIndex:   loc[1],
				RuleID:     r.ID,
			})
		}
		if found && !seen[r.ThreatLabel] {
			seen[r.ThreatLabel] = true
			threats = append(threats, r.ThreatLabel)
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].StartIndex < matches[b].StartIndex
	})

	status, score := verdict.Classify(threats)
	return types.ScanResult{
		Matches: matches,
		Threats: threats,
		Status:  status,
		Score:   score,
	}
}
