package core

import (
	"encoding/json"
	"io"
)

// MarshalResult pretty-prints a scan result as JSON. The field names
// (suspiciousPatterns, threats, status, score) are part of the stable API.
func MarshalResult(w io.Writer, res ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// UnmarshalResult decodes a scan result produced by MarshalResult.
func UnmarshalResult(r io.Reader) (ScanResult, error) {
	var res ScanResult
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return ScanResult{}, err
	}
	return res, nil
}

// MarshalAnalyses pretty-prints analyses as JSON for pipelines.
func MarshalAnalyses(w io.Writer, analyses []Analysis) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(analyses)
}
