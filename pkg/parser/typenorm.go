package parser

import (
	"fmt"
	"strings"
)

// NormalizeType determines the primary type and nullability of a schema's
// raw "type" field. The field may be absent (nil), a scalar string, or an
// OpenAPI 3.1 list of type strings. Multiple non-null types collapse to the
// first with a warning; the extra types are dropped.
func NormalizeType(value any, schemaName string) (primary *string, isNullable bool, warnings []string) {
	if value == nil {
		return nil, false, nil
	}

	switch v := value.(type) {
	case string:
		if v == "null" {
			return nil, true, nil
		}
		return &v, false, nil

	case []any:
		if len(v) == 0 {
			return nil, false, nil
		}
		hasNull := false
		var nonNull []string
		for _, entry := range v {
			s, ok := entry.(string)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("%s has unexpected 'type' entry: %v. Ignoring.", displayName(schemaName), entry))
				continue
			}
			if s == "null" {
				hasNull = true
				continue
			}
			nonNull = append(nonNull, s)
		}
		switch len(nonNull) {
		case 0:
			return nil, hasNull, warnings
		case 1:
			return &nonNull[0], hasNull, warnings
		default:
			quoted := make([]string, len(nonNull))
			for i, t := range nonNull {
				quoted[i] = "'" + t + "'"
			}
			warnings = append(warnings, fmt.Sprintf("%s has multiple types: %s. Using '%s'.",
				displayName(schemaName), strings.Join(quoted, ", "), nonNull[0]))
			return &nonNull[0], hasNull, warnings
		}

	default:
		warnings = append(warnings, fmt.Sprintf("%s has unexpected 'type' field: %v. Ignoring.", displayName(schemaName), value))
		return nil, false, warnings
	}
}

func displayName(schemaName string) string {
	if schemaName == "" {
		return "Schema"
	}
	return "'" + schemaName + "'"
}
