package rules

// Threat labels shared by the built-in rules.
const (
	LabelPromptInjection = "Prompt injection attempt detected"
	LabelJailbreak       = "Potential jailbreak syntax"
	LabelSensitiveInfo   = "Sensitive information exposure"
	LabelObfuscation     = "Obfuscation patterns found"
	LabelCodeInjection   = "Code injection detected"
)

// Defaults returns the built-in rule definitions in evaluation order.
//
// instruction_override and system_prompt_extraction report the same label.
// Status and score count distinct labels, so text containing both phrasings
// scores as a single threat category.
func Defaults() []Rule {
	return []Rule{
		{
			ID:          "instruction_override",
			Pattern:     `ignore\s+(?:previous|all|above|prior)\s+(?:instructions|commands|prompts|rules)`,
			Reason:      "Prompt injection attempt",
			ThreatLabel: LabelPromptInjection,
		},
		{
			ID:          "system_prompt_extraction",
			Pattern:     `reveal\s+(?:system|your|the)\s+(?:prompt|instructions|rules)`,
			Reason:      "System prompt extraction",
			ThreatLabel: LabelPromptInjection,
		},
		{
			ID:          "safety_bypass",
			Pattern:     `(?:disregard|forget|bypass)\s+(?:safety|security|rules|restrictions)`,
			Reason:      "Jailbreak attempt",
			ThreatLabel: LabelJailbreak,
		},
		{
			ID:          "credential_keyword",
			Pattern:     `\b(?:admin|root|sudo|password|secret|token|api_key|api-key)\b`,
			Reason:      "Sensitive credential leak",
			ThreatLabel: LabelSensitiveInfo,
		},
		{
			// zero-width space, non-joiner, joiner, BOM, and their character references
			ID:          "hidden_unicode",
			Pattern:     `[\x{200B}\x{200C}\x{200D}\x{FEFF}]|&#(?:8203|8204|8205|65279);|&#x(?:200b|200c|200d|feff);`,
			Reason:      "Hidden Unicode characters (obfuscation)",
			ThreatLabel: LabelObfuscation,
		},
		{
			ID:          "script_injection",
			Pattern:     `<script|javascript:|onerror\s*=|onclick\s*=`,
			Reason:      "Potential XSS payload",
			ThreatLabel: LabelCodeInjection,
		},
	}
}
