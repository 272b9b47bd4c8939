// Package audit keeps an append-only JSONL history of scans so verdict
// trends can be reviewed later with `contentguard stats`.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/varalys/contentguard/internal/stats"
	"github.com/varalys/contentguard/internal/types"
)

// ScanRecord is one line of the audit log.
type ScanRecord struct {
	Timestamp    time.Time        `json:"timestamp"`
	ScanID       string           `json:"scan_id"`
	Root         string           `json:"root"`
	Files        int              `json:"files"`
	StatusCounts map[string]int   `json:"status_counts"`
	AverageScore int              `json:"average_score"`
	NewFlagged   int              `json:"new_flagged"`
	Duration     string           `json:"duration"`
	BaselineFile string           `json:"baseline_file,omitempty"`
	Analyses     []types.Analysis `json:"analyses,omitempty"`
}

type AuditLog struct {
	logPath string
}

func NewAuditLog(root string) *AuditLog {
	gitDir := filepath.Join(root, ".git")
	logPath := filepath.Join(root, ".contentguard_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		logPath = filepath.Join(gitDir, "contentguard_audit.jsonl")
	}
	return &AuditLog{logPath: logPath}
}

// Path returns the log file location.
func (a *AuditLog) Path() string { return a.logPath }

// LoadHistory returns all records, newest first. Reading stops at the first
// corrupt line.
func (a *AuditLog) LoadHistory() ([]ScanRecord, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record ScanRecord
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

func (a *AuditLog) LogScan(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = fmt.Sprintf("scan_%d", time.Now().UnixNano())
	}

	// owner-only: records carry matched text
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// DeleteRecord removes the record at index, counted newest first as returned
// by LoadHistory.
func (a *AuditLog) DeleteRecord(index int) error {
	records, err := a.LoadHistory()
	if err != nil {
		return err
	}

	if index < 0 || index >= len(records) {
		return fmt.Errorf("invalid index: %d", index)
	}

	records = append(records[:index], records[index+1:]...)

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	f, err := os.Create(a.logPath)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("failed to write audit record: %w", err)
		}
	}
	return nil
}

// CreateScanRecord summarises a scan. Analyses are stored without their
// content; matched text is kept so history can be reviewed per file.
func CreateScanRecord(
	root string,
	analyses []types.Analysis,
	newFlagged int,
	duration time.Duration,
	baselineFile string,
) ScanRecord {
	sum := stats.FromAnalyses(analyses)
	return ScanRecord{
		Timestamp:    time.Now().UTC(),
		Root:         root,
		Files:        len(analyses),
		StatusCounts: sum.Counts(),
		AverageScore: sum.AverageScore,
		NewFlagged:   newFlagged,
		Duration:     duration.String(),
		BaselineFile: baselineFile,
		Analyses:     stripContent(analyses),
	}
}

func stripContent(analyses []types.Analysis) []types.Analysis {
	out := make([]types.Analysis, len(analyses))
	for i, a := range analyses {
		out[i] = a
		out[i].Content = ""
	}
	return out
}

// Summarize tallies every analysis across records. Records written without
// analyses contribute their status counts and average score instead.
func Summarize(records []ScanRecord) stats.Summary {
	var agg stats.Aggregator
	for _, r := range records {
		if len(r.Analyses) > 0 {
			for _, a := range r.Analyses {
				agg.AddResult(a.ScanResult)
			}
			continue
		}
		for _, st := range []types.Status{types.StatusApproved, types.StatusWarning, types.StatusBlocked} {
			for i := 0; i < r.StatusCounts[string(st)]; i++ {
				agg.Add(st, r.AverageScore)
			}
		}
	}
	return agg.Summary()
}
