// Package schema validates request bodies and generated payloads against
// JSON Schema documents.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Issue is one validation failure, addressed by dotted field path.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Result is either Valid with no issues, or invalid with at least one.
type Result struct {
	Valid  bool
	Issues []Issue
}

// Schema is a compiled JSON Schema document.
type Schema struct {
	name     string
	compiled *gojsonschema.Schema
}

func Compile(name string, doc map[string]any) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, compiled: compiled}, nil
}

// MustCompile is Compile for package-level schema variables.
func MustCompile(name string, doc map[string]any) *Schema {
	s, err := Compile(name, doc)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string { return s.name }

// Validate checks an already-decoded Go value.
func Validate(s *Schema, data any) Result {
	return run(s, gojsonschema.NewGoLoader(data))
}

// ValidateJSON checks raw JSON bytes. Malformed JSON is reported as a
// single root issue rather than an error.
func ValidateJSON(s *Schema, raw []byte) Result {
	return run(s, gojsonschema.NewBytesLoader(raw))
}

func run(s *Schema, doc gojsonschema.JSONLoader) Result {
	result, err := s.compiled.Validate(doc)
	if err != nil {
		return Result{Issues: []Issue{{
			Field:   "(root)",
			Message: "body is not valid JSON",
			Code:    "invalid_json",
		}}}
	}
	if result.Valid() {
		return Result{Valid: true}
	}

	issues := make([]Issue, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, Issue{
			Field:   fieldPath(desc),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Field < issues[j].Field
	})
	return Result{Issues: issues}
}

// fieldPath names the offending property. For "required" failures the
// library reports the parent, so the missing property is appended.
func fieldPath(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if desc.Type() != "required" {
		return field
	}
	prop, ok := desc.Details()["property"].(string)
	if !ok {
		return field
	}
	switch {
	case field == "(root)" || field == "":
		return prop
	case field == prop || strings.HasSuffix(field, "."+prop):
		return field
	}
	return field + "." + prop
}
