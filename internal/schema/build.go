package schema

// Helpers for writing schema documents as Go literals.

// Object describes an object with the given properties. Unknown
// properties are allowed.
func Object(props map[string]any, required ...string) map[string]any {
	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

// String bounds length in Unicode code points. max <= 0 means unbounded.
func String(min, max int) map[string]any {
	doc := map[string]any{"type": "string", "minLength": min}
	if max > 0 {
		doc["maxLength"] = max
	}
	return doc
}

// Integer with an inclusive minimum.
func Integer(min int) map[string]any {
	return map[string]any{"type": "integer", "minimum": min}
}

func Boolean() map[string]any {
	return map[string]any{"type": "boolean"}
}

// Array bounds item count. max <= 0 means unbounded.
func Array(items map[string]any, min, max int) map[string]any {
	doc := map[string]any{"type": "array", "items": items, "minItems": min}
	if max > 0 {
		doc["maxItems"] = max
	}
	return doc
}

// Nullable also accepts JSON null in place of v.
func Nullable(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = val
	}
	out["type"] = []string{v["type"].(string), "null"}
	return out
}
