package report

import (
	"encoding/json"
	"os"

	"github.com/varalys/contentguard/internal/rules"
	"github.com/varalys/contentguard/internal/types"
	"github.com/varalys/contentguard/internal/verdict"
)

// BaselineFile is the default baseline location, relative to the scan root.
const BaselineFile = "contentguard.baseline.json"

// Baseline records matches that have been reviewed and accepted.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return Baseline{Items: map[string]bool{}}, err
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

func SaveBaseline(path string, analyses []types.Analysis) error {
	b := Baseline{Items: map[string]bool{}}
	for _, a := range analyses {
		b.Add(a)
	}
	return b.Save(path)
}

// Add accepts every match of a.
func (b Baseline) Add(a types.Analysis) {
	for _, m := range a.Matches {
		b.Items[Key(a.FileName, m)] = true
	}
}

// Contains reports whether the match in file has been accepted.
func (b Baseline) Contains(file string, m types.Match) bool {
	return b.Items[Key(file, m)]
}

func (b Baseline) Save(path string) error {
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// FilterNew drops baselined matches from each analysis and re-derives its
// threats and verdict from the remaining matches using the labels in rs (the
// built-in rules when nil). Analyses left without matches become approved.
func FilterNew(analyses []types.Analysis, base Baseline, rs *rules.RuleSet) []types.Analysis {
	if len(base.Items) == 0 {
		return analyses
	}
	if rs == nil {
		rs = rules.Default()
	}
	out := make([]types.Analysis, len(analyses))
	for i, a := range analyses {
		out[i] = a
		kept := []types.Match{}
		for _, m := range a.Matches {
			if !base.Contains(a.FileName, m) {
				kept = append(kept, m)
			}
		}
		if len(kept) == len(a.Matches) {
			continue
		}
		hit := map[string]bool{}
		for _, m := range kept {
			hit[m.RuleID] = true
		}
		// same label order as the scanner: rule order, first hit wins
		threats := []string{}
		seen := map[string]bool{}
		for _, r := range rs.Rules() {
			if hit[r.ID] && !seen[r.ThreatLabel] {
				seen[r.ThreatLabel] = true
				threats = append(threats, r.ThreatLabel)
			}
		}
		out[i].Matches = kept
		out[i].Threats = threats
		out[i].Status, out[i].Score = verdict.Classify(threats)
	}
	return out
}

// Key identifies a match for baselining: file, rule and matched text.
func Key(file string, m types.Match) string {
	return file + "|" + m.RuleID + "|" + m.Text
}

// ShouldFail reports whether any analysis is at least as severe as failOn.
// An empty or unknown failOn means "blocked".
func ShouldFail(analyses []types.Analysis, failOn string) bool {
	th, err := verdict.ParseStatus(failOn)
	if err != nil {
		th = types.StatusBlocked
	}
	if th == types.StatusApproved {
		return len(analyses) > 0
	}
	for _, a := range analyses {
		if verdict.AtLeast(a.Status, th) {
			return true
		}
	}
	return false
}
