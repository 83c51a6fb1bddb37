package generation

import (
	"encoding/json"

	"github.com/af-corp/tourdesk/internal/sanitize"
	"github.com/af-corp/tourdesk/internal/schema"
)

// ParseStatus tags a ParseResult.
type ParseStatus int

const (
	ParseOK ParseStatus = iota
	ParseFailed
	SchemaFailed
)

// ParseResult is the outcome of turning generator text into a Payload.
// Payload is only meaningful when Status is ParseOK.
type ParseResult[Payload any] struct {
	Status  ParseStatus
	Payload Payload
	Reason  string
	Issues  []schema.Issue
}

// Parse sanitizes raw, decodes it as JSON and validates it against s.
func Parse[Payload any](raw string, s *schema.Schema) ParseResult[Payload] {
	candidate := sanitize.ExtractJSONObject(sanitize.CleanAIResponse(raw))

	var doc any
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return ParseResult[Payload]{Status: ParseFailed, Reason: err.Error()}
	}

	if res := schema.Validate(s, doc); !res.Valid {
		return ParseResult[Payload]{Status: SchemaFailed, Issues: res.Issues}
	}

	var payload Payload
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		return ParseResult[Payload]{Status: ParseFailed, Reason: err.Error()}
	}
	return ParseResult[Payload]{Status: ParseOK, Payload: payload}
}
