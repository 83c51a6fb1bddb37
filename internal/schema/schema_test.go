package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = MustCompile("test", Object(map[string]any{
	"name":       String(1, 10),
	"heading":    String(15, 25),
	"day":        Integer(1),
	"toursId":    Nullable(Integer(1)),
	"isEdit":     Boolean(),
	"highlights": Array(String(3, 20), 2, 3),
}, "name", "day"))

func TestValidate_Valid(t *testing.T) {
	res := Validate(testSchema, map[string]any{
		"name":       "Kyoto",
		"heading":    "Temples and tea houses",
		"day":        3,
		"toursId":    nil,
		"highlights": []string{"Gion", "Arashiyama"},
	})
	assert.True(t, res.Valid)
	assert.Empty(t, res.Issues)
}

func TestValidate_Issues(t *testing.T) {
	tests := []struct {
		name  string
		data  map[string]any
		field string
		code  string
	}{
		{"missing required", map[string]any{"day": 1}, "name", "required"},
		{"too short", map[string]any{"name": "", "day": 1}, "name", "string_gte"},
		{"too long", map[string]any{"name": "a very long name", "day": 1}, "name", "string_lte"},
		{"heading bounds", map[string]any{"name": "x", "day": 1, "heading": "abc"}, "heading", "string_gte"},
		{"below minimum", map[string]any{"name": "x", "day": 0}, "day", "number_gte"},
		{"wrong type", map[string]any{"name": "x", "day": "three"}, "day", "invalid_type"},
		{"non integer", map[string]any{"name": "x", "day": 1.5}, "day", "invalid_type"},
		{"too few items", map[string]any{"name": "x", "day": 1, "highlights": []string{"one"}}, "highlights", "array_min_items"},
		{"item too short", map[string]any{"name": "x", "day": 1, "highlights": []string{"ok!", "no"}}, "highlights.1", "string_gte"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(testSchema, tt.data)
			require.False(t, res.Valid)
			require.NotEmpty(t, res.Issues)
			found := false
			for _, issue := range res.Issues {
				if issue.Field == tt.field && issue.Code == tt.code {
					found = true
					assert.NotEmpty(t, issue.Message)
				}
			}
			assert.True(t, found, "expected issue %s/%s in %+v", tt.field, tt.code, res.Issues)
		})
	}
}

func TestValidate_CountsRunes(t *testing.T) {
	// 10 multi-byte characters fit a 10 code point limit.
	res := Validate(testSchema, map[string]any{"name": "京都京都京都京都京都", "day": 1})
	assert.True(t, res.Valid, "%+v", res.Issues)
}

func TestValidateJSON(t *testing.T) {
	res := ValidateJSON(testSchema, []byte(`{"name":"Kyoto","day":2}`))
	assert.True(t, res.Valid)

	res = ValidateJSON(testSchema, []byte(`{"name":`))
	require.False(t, res.Valid)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "invalid_json", res.Issues[0].Code)

	res = ValidateJSON(testSchema, []byte(`[]`))
	require.False(t, res.Valid)
	assert.Equal(t, "invalid_type", res.Issues[0].Code)
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("broken", map[string]any{"type": 12})
	assert.Error(t, err)
}
