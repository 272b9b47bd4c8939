// Package rules defines the detection rule catalogue: the built-in detectors
// for prompt injection, jailbreak phrasing, credential keywords, hidden
// Unicode and script injection, plus YAML rule packs that extend or tune them.
// Patterns are compiled when a RuleSet is built; a malformed pattern fails
// there with a *ConfigError and never at scan time.
package rules
