package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gertd/go-pluralize"
	"github.com/iancoleman/strcase"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWord       = regexp.MustCompile(`[\W_]+`)
	nonAlnum      = regexp.MustCompile(`[^A-Za-z0-9]+`)
	underscoreRun = regexp.MustCompile(`_+`)
	braces        = regexp.MustCompile(`[{}]`)
	pluralizer    = pluralize.NewClient()
)

// pythonKeywords are the reserved words of the target language; sanitized
// identifiers must never collide with them.
var pythonKeywords = map[string]struct{}{
	"False": {}, "None": {}, "True": {}, "and": {}, "as": {}, "assert": {},
	"async": {}, "await": {}, "break": {}, "class": {}, "continue": {},
	"def": {}, "del": {}, "elif": {}, "else": {}, "except": {},
	"finally": {}, "for": {}, "from": {}, "global": {}, "if": {},
	"import": {}, "in": {}, "is": {}, "lambda": {}, "nonlocal": {},
	"not": {}, "or": {}, "pass": {}, "raise": {}, "return": {},
	"try": {}, "while": {}, "with": {}, "yield": {},
}

// IsPythonKeyword reports whether s is a Python reserved word.
func IsPythonKeyword(s string) bool {
	_, ok := pythonKeywords[s]
	return ok
}

// RemoveAccents removes accents from a string, converting accented characters to their base forms
func RemoveAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// SanitizeClassName converts a raw spec name into a valid Python class name.
// Parts are split on non-word characters only; the interior casing of each
// part is preserved, so "OuterSchema.details" becomes "OuterSchemaDetails"
// and "APIKey" stays "APIKey".
func SanitizeClassName(name string) string {
	name = RemoveAccents(name)
	parts := nonWord.Split(name, -1)
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	cls := b.String()
	if cls != "" && cls[0] >= '0' && cls[0] <= '9' {
		cls = "_" + cls
	}
	if IsPythonKeyword(strings.ToLower(cls)) {
		cls += "_"
	}
	return cls
}

// SanitizeModuleName converts a raw name into a valid snake_case Python
// module name, splitting camelCase and PascalCase boundaries.
func SanitizeModuleName(name string) string {
	name = RemoveAccents(name)
	// strcase passes through symbols it does not treat as delimiters, so
	// normalize everything non-alphanumeric to spaces first.
	name = nonAlnum.ReplaceAllString(name, " ")
	module := strcase.ToSnake(strings.TrimSpace(name))
	module = underscoreRun.ReplaceAllString(module, "_")
	module = strings.Trim(module, "_")
	if module != "" && module[0] >= '0' && module[0] <= '9' {
		module = "_" + module
	}
	if IsPythonKeyword(module) {
		module += "_"
	}
	return module
}

// SanitizeFilename returns the module filename for a raw name.
func SanitizeFilename(name string) string {
	return SanitizeModuleName(name) + ".py"
}

// SanitizeMethodName converts a raw name (operation id or path fragment)
// into a valid snake_case Python method name. Path template braces are
// stripped first so "/pets/{petId}" fragments sanitize cleanly.
func SanitizeMethodName(name string) string {
	name = braces.ReplaceAllString(name, "")
	return SanitizeModuleName(name)
}

// Singularize returns the singular form of an s-terminated plural word.
// Words not ending in "s" ("data", "info") pass through untouched so
// promoted names stay stable, as do words the pluralizer considers
// already singular ("status", "address").
func Singularize(word string) string {
	if len(word) <= 2 || !strings.HasSuffix(strings.ToLower(word), "s") {
		return word
	}
	if !pluralizer.IsPlural(word) {
		return word
	}
	return pluralizer.Singular(word)
}

// Capitalize uppercases only the first letter, preserving the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
