// Package stats tallies verdicts across many scans: how many artifacts were
// approved, warned about or blocked, and their average score.
package stats

import (
	"math"
	"sync"

	"github.com/varalys/contentguard/internal/types"
)

// Summary is a snapshot of an Aggregator.
type Summary struct {
	Total        int `json:"total"`
	Approved     int `json:"approved"`
	Warning      int `json:"warning"`
	Blocked      int `json:"blocked"`
	AverageScore int `json:"averageScore"`
}

// Counts returns the per-status tallies keyed by status name.
func (s Summary) Counts() map[string]int {
	return map[string]int{
		string(types.StatusApproved): s.Approved,
		string(types.StatusWarning):  s.Warning,
		string(types.StatusBlocked):  s.Blocked,
	}
}

// Aggregator accumulates verdicts. The zero value is ready to use and it is
// safe for concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	total    int
	approved int
	warning  int
	blocked  int
	scoreSum int
}

// Add records one verdict. Unknown statuses count toward the total and the
// average only.
func (a *Aggregator) Add(status types.Status, score int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total++
	a.scoreSum += score
	switch status {
	case types.StatusApproved:
		a.approved++
	case types.StatusWarning:
		a.warning++
	case types.StatusBlocked:
		a.blocked++
	}
}

// AddResult records the verdict of r.
func (a *Aggregator) AddResult(r types.ScanResult) { a.Add(r.Status, r.Score) }

// Summary returns the current tallies. AverageScore is the rounded mean
// score, or 0 when nothing was recorded.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Summary{
		Total:    a.total,
		Approved: a.approved,
		Warning:  a.warning,
		Blocked:  a.blocked,
	}
	if a.total > 0 {
		s.AverageScore = int(math.Round(float64(a.scoreSum) / float64(a.total)))
	}
	return s
}

// Reset clears all tallies.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total, a.approved, a.warning, a.blocked, a.scoreSum = 0, 0, 0, 0, 0
}

// FromAnalyses tallies the verdicts of as.
func FromAnalyses(as []types.Analysis) Summary {
	var agg Aggregator
	for _, a := range as {
		agg.AddResult(a.ScanResult)
	}
	return agg.Summary()
}
