package loader

import (
	"sort"

	"github.com/samber/lo"
)

// asMap returns v as a decoded object node, or nil when it is not one.
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
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

// boolValue returns v as a bool, or false when absent or mistyped.
func boolValue(v any) bool {
	b, _ := v.(bool)
	return b
}

// sortedKeys returns the keys of m in sorted order. Map iteration order is
// random, so sorted traversal is the determinism contract for every pass in
// this package.
func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
