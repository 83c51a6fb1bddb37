package injection

import "regexp"

// Category groups rules by what the input tries to change.
type Category string

const (
	CategoryInstructionBypass Category = "instruction_bypass"
	CategoryRoleOverride      Category = "role_override"
	CategoryEncodingTrick     Category = "encoding_trick"
	// CategoryOutputSteering covers attempts to change the shape of the
	// generated form content: its format, its fields or their lengths.
	CategoryOutputSteering Category = "output_steering"
	CategoryLinkInsertion  Category = "link_insertion"
)

// Rule is one pattern matched against a user-supplied value.
type Rule struct {
	Name     string
	Regex    *regexp.Regexp
	Severity float64 // 0.0 to 1.0
	Category Category
}

func rule(name string, category Category, severity float64, pattern string) Rule {
	return Rule{Name: name, Regex: regexp.MustCompile(pattern), Severity: severity, Category: category}
}

// DefaultRules are tuned for short values such as destination names, tour
// types and package names, which never legitimately contain instructions.
func DefaultRules() []Rule {
	return []Rule{
		rule("ignore_previous", CategoryInstructionBypass, 0.95,
			`(?i)(ignore|disregard|forget)\s+(all\s+)?(previous|above|prior|the\s+above)\s+(instructions|rules|context)`),
		// DAN is case-sensitive so Jordan and Sudan pass.
		rule("jailbreak", CategoryRoleOverride, 0.9,
			`\bDAN\b|(?i:do\s+anything\s+now|jailbreak|unrestricted\s+mode)`),
		rule("code_block_system", CategoryRoleOverride, 0.9, "(?i)```system"),
		rule("system_prefix", CategoryRoleOverride, 0.85, `(?i)^\s*system\s*:\s*`),
		rule("developer_mode", CategoryRoleOverride, 0.85,
			`(?i)(developer|debug|admin|root)\s+mode\s+(enabled|activated|on)`),
		rule("base64_instruction", CategoryEncodingTrick, 0.85, `(?i)(decode|execute|follow)\s+(the\s+)?base64`),
		rule("json_key_smuggling", CategoryOutputSteering, 0.8,
			`"\s*(name|country|heading|overview|description|highlights|inclusions|exclusions|cities|itinerary)"\s*:`),
		rule("new_instructions", CategoryInstructionBypass, 0.8, `(?i)(new|updated|revised)\s+instructions?\s*:`),
		rule("format_override", CategoryOutputSteering, 0.8,
			`(?i)(do\s+not|don't)\s+(return|respond\s+with|use)\s+json|respond\s+in\s+(markdown|html|plain\s+text)`),
		rule("length_override", CategoryOutputSteering, 0.75,
			`(?i)(ignore|exceed|no|without)\s+(the\s+|any\s+)?(character|length|word)\s+limits?`),
		rule("you_are_now", CategoryRoleOverride, 0.7, `(?i)you\s+are\s+now\s+(a|an|the)\s+`),
		rule("embedded_instruction_marker", CategoryInstructionBypass, 0.6,
			`(?i)(###|\[\[|<<)\s*(instruction|system|prompt)`),
		rule("url_in_value", CategoryLinkInsertion, 0.5, `(?i)\bhttps?://`),
	}
}
