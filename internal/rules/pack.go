package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pack is the on-disk YAML shape of a rule pack:
//
//	rules:
//	  - id: internal_hostname
//	    pattern: '\bcorp\.internal\b'
//	    reason: Internal hostname
//	    label: Sensitive information exposure
type Pack struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads rule definitions from a YAML rule pack. Patterns are not
// compiled here; pass the result through New (usually after Merge).
func LoadFile(path string) ([]Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Pack
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse rule pack %s: %w", path, err)
	}
	return p.Rules, nil
}

// Merge overlays extra onto base. Entries whose ID already exists replace the
// base rule in place; new IDs are appended in their pack order.
func Merge(base, extra []Rule) []Rule {
	out := make([]Rule, len(base))
	copy(out, base)
	pos := make(map[string]int, len(out))
	for i, r := range out {
		pos[r.ID] = i
	}
	for _, r := range extra {
		if i, ok := pos[r.ID]; ok {
			merged := out[i]
			if r.Pattern != "" {
				merged.Pattern = r.Pattern
			}
			if r.Reason != "" {
				merged.Reason = r.Reason
			}
			if r.ThreatLabel != "" {
				merged.ThreatLabel = r.ThreatLabel
			}
			out[i] = merged
			continue
		}
		pos[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

// Load builds a rule set from the built-ins, an optional rule pack, and
// comma-separated enable/disable ID lists.
func Load(packPath, enable, disable string) (*RuleSet, error) {
	defs := Defaults()
	if packPath != "" {
		extra, err := LoadFile(packPath)
		if err != nil {
			return nil, err
		}
		defs = Merge(defs, extra)
	}
	rs, err := New(defs)
	if err != nil {
		return nil, err
	}
	en, dis := ParseIDs(enable), ParseIDs(disable)
	if len(en) == 0 && len(dis) == 0 {
		return rs, nil
	}
	return rs.Select(en, dis)
}
