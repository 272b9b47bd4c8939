package report

import (
	"encoding/json"
	"io"
	"unicode/utf8"

	"github.com/varalys/contentguard/internal/rules"
	"github.com/varalys/contentguard/internal/types"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
	FullDescription  sarifMessage `json:"fullDescription"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	RuleIndex int          `json:"ruleIndex"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

// charOffset and charLength count Unicode code points, not bytes.
type sarifRegion struct {
	CharOffset int `json:"charOffset"`
	CharLength int `json:"charLength"`
}

func statusToLevel(s types.Status) string {
	switch s {
	case types.StatusBlocked:
		return "error"
	case types.StatusWarning:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF writes every match as a SARIF 2.1.0 result. Rule metadata comes
// from rs (the built-in rules when nil); the level follows the file's status.
// When an analysis carries its content, regions are converted from byte to
// code point offsets.
func WriteSARIF(w io.Writer, analyses []types.Analysis, rs *rules.RuleSet, version string) error {
	if rs == nil {
		rs = rules.Default()
	}
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "contentguard", Version: version}},
		Results: []sarifResult{},
	}
	ruleIndex := map[string]int{}
	addRule := func(id, reason, label string) int {
		if i, ok := ruleIndex[id]; ok {
			return i
		}
		ruleIndex[id] = len(run.Tool.Driver.Rules)
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
			ID:               id,
			ShortDescription: sarifMessage{Text: reason},
			FullDescription:  sarifMessage{Text: label},
		})
		return ruleIndex[id]
	}
	for _, r := range rs.Rules() {
		addRule(r.ID, r.Reason, r.ThreatLabel)
	}
	for _, a := range analyses {
		for _, m := range a.Matches {
			idx := addRule(m.RuleID, m.Reason, "")
			off, length := m.StartIndex, m.EndIndex-m.StartIndex
			if a.Content != "" && m.EndIndex <= len(a.Content) {
				off = utf8.RuneCountInString(a.Content[:m.StartIndex])
				length = utf8.RuneCountInString(a.Content[m.StartIndex:m.EndIndex])
			}
			run.Results = append(run.Results, sarifResult{
				RuleID:    m.RuleID,
				RuleIndex: idx,
				Level:     statusToLevel(a.Status),
				Message:   sarifMessage{Text: m.Reason + ": " + DisplayText(m.Text)},
				Locations: []sarifLoc{{
					PhysicalLocation: sarifPhys{
						ArtifactLocation: sarifArt{URI: a.FileName},
						Region:           sarifRegion{CharOffset: off, CharLength: length},
					},
				}},
			})
		}
	}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
