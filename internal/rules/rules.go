package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	xxhash "github.com/cespare/xxhash/v2"
)

// Rule is the definition of a single detector. Pattern is compiled
// case-insensitively; every non-overlapping occurrence becomes a match.
type Rule struct {
	ID          string `yaml:"id"`
	Pattern     string `yaml:"pattern"`
	Reason      string `yaml:"reason"`
	ThreatLabel string `yaml:"label"`
}

// Compiled pairs a rule definition with its compiled pattern.
type Compiled struct {
	Rule
	Re *regexp.Regexp
}

// RuleSet is an ordered, immutable collection of compiled rules. It is safe
// for concurrent use.
type RuleSet struct {
	rules []Compiled
	index map[string]int
}

// ConfigError reports a rule set that cannot be constructed. It is only ever
// returned while building a RuleSet, never while scanning.
type ConfigError struct {
	RuleID string
	Msg    string
	Err    error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("rule set configuration")
	if e.RuleID != "" {
		b.WriteString(": rule ")
		b.WriteString(strconv.Quote(e.RuleID))
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// New compiles defs into a RuleSet, preserving their order.
func New(defs []Rule) (*RuleSet, error) {
	rs := &RuleSet{
		rules: make([]Compiled, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for i, d := range defs {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			return nil, &ConfigError{Msg: fmt.Sprintf("rule #%d has no id", i+1)}
		}
		if _, dup := rs.index[id]; dup {
			return nil, &ConfigError{RuleID: id, Msg: "duplicate id"}
		}
		if d.Pattern == "" {
			return nil, &ConfigError{RuleID: id, Msg: "empty pattern"}
		}
		p := d.Pattern
		if !strings.HasPrefix(p, "(?i)") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &ConfigError{RuleID: id, Msg: "invalid pattern", Err: err}
		}
		d.ID = id
		rs.index[id] = len(rs.rules)
		rs.rules = append(rs.rules, Compiled{Rule: d, Re: re})
	}
	return rs, nil
}

var (
	defaultOnce sync.Once
	defaultSet  *RuleSet
)

// Default returns the compiled built-in rule set.
func Default() *RuleSet {
	defaultOnce.Do(func() {
		rs, err := New(Defaults())
		if err != nil {
			panic(err)
		}
		defaultSet = rs
	})
	return defaultSet
}

// Rules returns the compiled rules in evaluation order. The slice is a copy.
func (rs *RuleSet) Rules() []Compiled {
	out := make([]Compiled, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int { return len(rs.rules) }

// At returns the i-th compiled rule without copying the set.
func (rs *RuleSet) At(i int) *Compiled { return &rs.rules[i] }

// IDs returns rule IDs in evaluation order.
func (rs *RuleSet) IDs() []string {
	ids := make([]string, len(rs.rules))
	for i, r := range rs.rules {
		ids[i] = r.ID
	}
	return ids
}

// Labels returns the distinct threat labels in first-seen order.
func (rs *RuleSet) Labels() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rs.rules {
		if !seen[r.ThreatLabel] {
			seen[r.ThreatLabel] = true
			out = append(out, r.ThreatLabel)
		}
	}
	return out
}

// Lookup returns the rule with the given ID.
func (rs *RuleSet) Lookup(id string) (Compiled, bool) {
	i, ok := rs.index[id]
	if !ok {
		return Compiled{}, false
	}
	return rs.rules[i], true
}

// Select returns a new set holding the enabled rules minus the disabled ones.
// An empty enable list keeps every rule.
func (rs *RuleSet) Select(enable, disable []string) (*RuleSet, error) {
	for _, id := range append(append([]string{}, enable...), disable...) {
		if _, ok := rs.index[id]; !ok {
			return nil, &ConfigError{RuleID: id, Msg: "unknown rule"}
		}
	}
	allowed := map[string]bool{}
	for _, id := range enable {
		allowed[id] = true
	}
	blocked := map[string]bool{}
	for _, id := range disable {
		blocked[id] = true
	}
	out := &RuleSet{index: map[string]int{}}
	for _, r := range rs.rules {
		if len(enable) > 0 && !allowed[r.ID] {
			continue
		}
		if blocked[r.ID] {
			continue
		}
		out.index[r.ID] = len(out.rules)
		out.rules = append(out.rules, r)
	}
	return out, nil
}

// Fingerprint identifies the rule definitions, so cached results produced by
// a different rule set are never reused.
func (rs *RuleSet) Fingerprint() string {
	d := xxhash.New()
	for _, r := range rs.rules {
		for _, s := range []string{r.ID, r.Re.String(), r.Reason, r.ThreatLabel} {
			_, _ = d.WriteString(s)
			_, _ = d.Write([]byte{0})
		}
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// ParseIDs splits a comma-separated ID list, dropping blanks.
func ParseIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
