// Package openapi ingests OpenAPI documents: fetching from a file path or
// HTTP(S) URL, decoding YAML or JSON into generic maps, and optional
// validation through kin-openapi. Validation findings surface as warning
// strings, never as fatal errors.
package openapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadDocument loads an OpenAPI document from a local file path or an
// HTTP(S) URL and decodes it into a generic map. Names ending in .json
// decode as JSON, everything else as YAML.
func LoadDocument(input string) (map[string]any, error) {
	data, err := readDocument(input)
	if err != nil {
		return nil, err
	}
	return DecodeDocument(input, data)
}

// DecodeDocument decodes raw document bytes, picking the codec from the
// extension of name.
func DecodeDocument(name string, data []byte) (map[string]any, error) {
	if strings.EqualFold(path.Ext(name), ".json") {
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrapf(err, "decoding JSON document %s", name)
		}
		return doc, nil
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "decoding YAML document %s", name)
	}
	normalizeValue(doc)
	return doc, nil
}

// ValidateDocument runs the kin-openapi validator over a decoded document.
// Each individual finding becomes one warning string; validation problems
// never abort a generation run.
func ValidateDocument(doc map[string]any) []string {
	data, err := json.Marshal(doc)
	if err != nil {
		return []string{validationWarning(err)}
	}

	loader := &openapi3.Loader{Context: context.Background(), IsExternalRefsAllowed: true}
	parsed, err := loader.LoadFromData(data)
	if err != nil {
		return validationWarnings(err)
	}
	if err := parsed.Validate(loader.Context); err != nil {
		return validationWarnings(err)
	}
	return nil
}

func readDocument(input string) ([]byte, error) {
	if u, err := url.Parse(input); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		resp, err := http.Get(input)
		if err != nil {
			return nil, errors.Wrapf(err, "fetching document from %s", input)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Errorf("fetching document from %s: %s", input, resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "fetching document from %s", input)
		}
		return data, nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, errors.Wrapf(err, "reading document %s", input)
	}
	return data, nil
}

// normalizeValue rewrites YAML's map[any]any mappings (produced for
// non-string keys such as bare status codes) into map[string]any, so the
// rest of the pipeline sees a single node shape.
func normalizeValue(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for key, value := range node {
			node[key] = normalizeValue(value)
		}
		return node
	case map[any]any:
		out := make(map[string]any, len(node))
		for key, value := range node {
			out[fmt.Sprint(key)] = normalizeValue(value)
		}
		return out
	case []any:
		for i := range node {
			node[i] = normalizeValue(node[i])
		}
		return node
	default:
		return v
	}
}

func validationWarnings(err error) []string {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		warnings := make([]string, 0, len(multi))
		for _, e := range multi {
			warnings = append(warnings, validationWarning(e))
		}
		return warnings
	}
	return []string{validationWarning(err)}
}

func validationWarning(err error) string {
	return "OpenAPI spec validation error: " + err.Error()
}
