// Package verdict derives a status and score from the distinct threat labels
// of a scan. It is deterministic and holds no state.
package verdict

import (
	"fmt"
	"strings"

	"github.com/varalys/contentguard/internal/types"
)

const (
	// MaxScore is the score of clean content.
	MaxScore = 100
	// MinScore is the floor no amount of threats goes below.
	MinScore = 20
	// PenaltyPerThreat is deducted for every distinct threat label.
	PenaltyPerThreat = 25
	// blockAbove is the distinct-label count beyond which content is blocked.
	blockAbove = 2
)

// Classify returns the status and score for a set of threat labels. Only the
// number of distinct labels matters; repeated labels count once.
func Classify(labels []string) (types.Status, int) {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	n := len(seen)
	return StatusFor(n), Score(n)
}

// StatusFor maps a distinct-threat count to a status.
func StatusFor(n int) types.Status {
	switch {
	case n <= 0:
		return types.StatusApproved
	case n > blockAbove:
		return types.StatusBlocked
	default:
		return types.StatusWarning
	}
}

// Score maps a distinct-threat count to a score in [MinScore, MaxScore].
func Score(n int) int {
	if n < 0 {
		n = 0
	}
	return max(MinScore, MaxScore-PenaltyPerThreat*n)
}

var rank = map[types.Status]int{
	types.StatusApproved: 0,
	types.StatusWarning:  1,
	types.StatusBlocked:  2,
}

// ParseStatus parses a status name, case-insensitively.
func ParseStatus(s string) (types.Status, error) {
	st := types.Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rank[st]; !ok {
		return "", fmt.Errorf("unknown status %q (want approved|warning|blocked)", s)
	}
	return st, nil
}

// AtLeast reports whether s is as severe as threshold or more.
func AtLeast(s, threshold types.Status) bool {
	return rank[s] >= rank[threshold]
}
