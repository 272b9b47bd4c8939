// Package contentguard provides the command-line interface for contentguard.
// It configures subcommands (scan, rules, watch, redact, baseline, etc.),
// parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/varalys/contentguard/cmd/contentguard"
//	func main() { contentguard.Execute() }
package contentguard
