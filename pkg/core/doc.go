// Package core provides a small, stable facade over contentguard's internal
// scanner and file engine for external integrations, such as an upload
// service that wants a verdict for each submitted text.
//
// Example:
//
//	res := core.Scan(userText)
//	if res.Status == core.StatusBlocked { /* reject */ }
//	_ = core.MarshalResult(os.Stdout, res)
package core
