package report

import (
	"encoding/json"
	"io"

	"github.com/varalys/contentguard/internal/stats"
	"github.com/varalys/contentguard/internal/types"
)

// JSONReport is the document written by WriteJSON.
type JSONReport struct {
	Summary  stats.Summary    `json:"summary"`
	Analyses []types.Analysis `json:"analyses"`
}

// WriteJSON writes analyses and their summary as indented JSON.
func WriteJSON(w io.Writer, analyses []types.Analysis) error {
	if analyses == nil {
		analyses = []types.Analysis{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(JSONReport{Summary: stats.FromAnalyses(analyses), Analyses: analyses})
}
