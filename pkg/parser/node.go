package parser

import "sort"

// asMap returns v as a raw schema node, or nil when it is not an object.
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// stringSlice returns the string members of a decoded list value.
func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// anySlice returns v as a decoded list value.
func anySlice(v any) []any {
	l, _ := v.([]any)
	return l
}

// stringValue returns v as a string, or "" when absent or mistyped.
func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// sortedKeys returns the keys of a decoded map in sorted order. Generic map
// decoding does not preserve document order, so sorted traversal is the
// determinism contract for everything derived from raw nodes.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
