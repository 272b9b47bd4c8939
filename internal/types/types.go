package types

import "time"

// Status is the coarse verdict for a scanned artifact.
type Status string

const (
	StatusApproved Status = "approved"
	StatusWarning  Status = "warning"
	StatusBlocked  Status = "blocked"
)

// Match is one occurrence of a rule's pattern. StartIndex and EndIndex are
// half-open byte offsets into the scanned text.
type Match struct {
	Text       string `json:"text"`
	Reason     string `json:"reason"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
	RuleID     string `json:"rule"`
}

// ScanResult is the outcome of scanning one text. Matches are sorted by
// StartIndex and may overlap; Threats holds distinct threat labels in
// first-seen order.
type ScanResult struct {
	Matches []Match  `json:"suspiciousPatterns"`
	Threats []string `json:"threats"`
	Status  Status   `json:"status"`
	Score   int      `json:"score"`
}

// Analysis describes a scanned artifact (file, stdin, upload) together with
// its scan result.
type Analysis struct {
	FileName  string    `json:"fileName"`
	FileType  string    `json:"fileType,omitempty"`
	Size      int64     `json:"size"`
	Hash      string    `json:"hash,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content,omitempty"`
	Cached    bool      `json:"-"`
	ScanResult
}
