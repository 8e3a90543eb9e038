package loader

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mindhiveoy/pyopenapi-gen/pkg/ir"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/parser"
	"github.com/mindhiveoy/pyopenapi-gen/pkg/utils"
)

const (
	parameterRefPrefix   = "#/components/parameters/"
	requestBodyRefPrefix = "#/components/requestBodies/"
	responseRefPrefix    = "#/components/responses/"
	schemaRefPrefix      = "#/components/schemas/"
)

// streamFormats maps media types to their stream format tag. A response
// carrying any of these media types is delivered incrementally.
var streamFormats = map[string]string{
	"application/octet-stream": "octet-stream",
	"text/event-stream":        "event-stream",
	"application/x-ndjson":     "ndjson",
	"application/json-seq":     "json-seq",
	"multipart/mixed":          "multipart-mixed",
}

// parseOperations walks the paths section and builds the operation list.
// Operations parse independently: a malformed one is skipped with a warning
// and never aborts the run.
func parseOperations(
	paths map[string]any,
	rawParameters, rawResponses, rawRequestBodies map[string]any,
	ctx *parser.ParsingContext,
) []*ir.IROperation {
	var operations []*ir.IROperation
	for _, path := range sortedKeys(paths) {
		item := asMap(paths[path])
		if item == nil {
			continue
		}

		var baseParams []*ir.IRParameter
		for _, raw := range anySlice(item["parameters"]) {
			node := asMap(raw)
			if node == nil {
				ctx.Warnf("Skipping non-object parameter of path %s", path)
				continue
			}
			param, err := parseParameter(resolveParameterRef(node, rawParameters, ctx), "", ctx)
			if err != nil {
				ctx.Warnf("Skipping parameter of path %s: %v", path, err)
				continue
			}
			baseParams = append(baseParams, param)
		}

		for _, method := range ir.PathItemMethods {
			node := asMap(item[strings.ToLower(string(method))])
			if node == nil {
				continue
			}
			op, err := parseOperation(method, path, node, baseParams, rawParameters, rawRequestBodies, rawResponses, ctx)
			if err != nil {
				ctx.Warnf("Skipping operation parsing for %s %s: %v", method, path, err)
				continue
			}
			registerOperationSchemas(op, ctx)
			operations = append(operations, op)
		}
	}
	return operations
}

func parseOperation(
	method ir.HTTPMethod,
	path string,
	node map[string]any,
	baseParams []*ir.IRParameter,
	rawParameters, rawRequestBodies, rawResponses map[string]any,
	ctx *parser.ParsingContext,
) (*ir.IROperation, error) {
	operationID := stringValue(node["operationId"])
	if operationID == "" {
		operationID = utils.SanitizeMethodName(string(method) + "_" + path)
	}

	params := append([]*ir.IRParameter(nil), baseParams...)
	for _, raw := range anySlice(node["parameters"]) {
		paramNode := asMap(raw)
		if paramNode == nil {
			return nil, errors.New("parameter entry is not an object")
		}
		param, err := parseParameter(resolveParameterRef(paramNode, rawParameters, ctx), operationID, ctx)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}

	var body *ir.IRRequestBody
	if rb := asMap(node["requestBody"]); rb != nil {
		body = parseRequestBody(rb, rawRequestBodies, operationID, ctx)
	}

	var responses []*ir.IRResponse
	rawResps := asMap(node["responses"])
	for _, code := range sortedKeys(rawResps) {
		respNode := asMap(rawResps[code])
		if respNode == nil {
			continue
		}
		responses = append(responses, parseResponse(code, respNode, rawResponses, ctx))
	}

	return &ir.IROperation{
		OperationID: operationID,
		Method:      method,
		Path:        path,
		Summary:     stringValue(node["summary"]),
		Description: stringValue(node["description"]),
		Tags:        stringSlice(node["tags"]),
		Deprecated:  boolValue(node["deprecated"]),
		Parameters:  params,
		RequestBody: body,
		Responses:   responses,
	}, nil
}

// resolveParameterRef swaps a #/components/parameters/ reference for its
// component definition. Unresolvable references come back unchanged; the
// caller then fails on the missing name field.
func resolveParameterRef(node map[string]any, rawParameters map[string]any, ctx *parser.ParsingContext) map[string]any {
	ref := stringValue(node["$ref"])
	if ref == "" || !strings.HasPrefix(ref, parameterRefPrefix) {
		return node
	}
	name := ref[strings.LastIndex(ref, "/")+1:]
	if resolved := asMap(rawParameters[name]); resolved != nil {
		ctx.Logger().Debug("resolved parameter ref", zap.String("ref", ref), zap.String("parameter", name))
		return resolved
	}
	ctx.Warnf("Could not resolve parameter $ref '%s'", ref)
	return node
}

func parseParameter(node map[string]any, operationID string, ctx *parser.ParsingContext) (*ir.IRParameter, error) {
	name := stringValue(node["name"])
	if name == "" {
		return nil, errors.New("parameter node has no name")
	}
	location := stringValue(node["in"])
	if location == "" {
		location = "query"
	}
	return &ir.IRParameter{
		Name:        name,
		In:          ir.ParameterLocation(location),
		Required:    boolValue(node["required"]),
		Schema:      parseParameterSchema(name, operationID, node, ctx),
		Description: stringValue(node["description"]),
	}, nil
}

// parseParameterSchema parses a parameter's schema node. Inline object-like
// definitions get a synthesized {OperationID}Param{Name} arena name; simple
// string-enum arrays stay anonymous, so filter parameters do not mint a
// named schema each.
func parseParameterSchema(paramName, operationID string, node map[string]any, ctx *parser.ParsingContext) *ir.IRSchema {
	sch := asMap(node["schema"])
	if sch == nil {
		return &ir.IRSchema{}
	}

	if items := asMap(sch["items"]); stringValue(sch["type"]) == "array" && items != nil &&
		stringValue(items["type"]) == "string" &&
		anySlice(items["enum"]) != nil && stringValue(items["$ref"]) == "" {
		return &ir.IRSchema{
			Type:        "array",
			Items:       &ir.IRSchema{Type: "string", Enum: append([]any(nil), anySlice(items["enum"])...)},
			Description: stringValue(sch["description"]),
		}
	}

	name := ""
	if isInlineComplex(sch) {
		if operationID != "" {
			name = utils.SanitizeClassName(operationID+"Param") + utils.SanitizeClassName(paramName)
		} else {
			name = utils.SanitizeClassName(paramName)
		}
	}
	return parser.ParseSchema(name, sch, ctx)
}

// parseRequestBody parses a request body node, resolving component
// references first. Inline object-like payloads parse under the
// {OperationID}RequestBody arena name; bodies without content collapse to
// nil.
func parseRequestBody(
	node map[string]any,
	rawRequestBodies map[string]any,
	operationID string,
	ctx *parser.ParsingContext,
) *ir.IRRequestBody {
	if ref := stringValue(node["$ref"]); strings.HasPrefix(ref, requestBodyRefPrefix) {
		name := ref[strings.LastIndex(ref, "/")+1:]
		if resolved := asMap(rawRequestBodies[name]); resolved != nil {
			node = resolved
		}
	}

	content := asMap(node["content"])
	if len(content) == 0 {
		return nil
	}

	body := &ir.IRRequestBody{
		Required:    boolValue(node["required"]),
		Content:     make(map[string]*ir.IRSchema, len(content)),
		Description: stringValue(node["description"]),
	}
	promoName := utils.SanitizeClassName(operationID + "RequestBody")
	for _, mediaType := range sortedKeys(content) {
		media := asMap(content[mediaType])
		schemaNode := asMap(media["schema"])
		name := ""
		if isInlineComplex(schemaNode) {
			name = promoName
		}
		body.Content[mediaType] = parser.ParseSchema(name, media["schema"], ctx)
	}
	return body
}

// parseResponse parses one response node, resolving component references
// first. Streaming is flagged by media type, with a binary-format fallback
// for specs that mark downloads only through format.
func parseResponse(code string, node map[string]any, rawResponses map[string]any, ctx *parser.ParsingContext) *ir.IRResponse {
	if ref := stringValue(node["$ref"]); strings.HasPrefix(ref, responseRefPrefix) {
		name := ref[strings.LastIndex(ref, "/")+1:]
		if resolved := asMap(rawResponses[name]); resolved != nil {
			node = resolved
		}
	}

	resp := &ir.IRResponse{
		StatusCode:  code,
		Description: stringValue(node["description"]),
		Content:     map[string]*ir.IRSchema{},
	}

	content := asMap(node["content"])
	for _, mediaType := range sortedKeys(content) {
		media := asMap(content[mediaType])
		var schema *ir.IRSchema
		switch ref := stringValue(media["$ref"]); {
		case ref != "" && strings.HasPrefix(ref, schemaRefPrefix):
			schema = parser.ParseSchema("", map[string]any{"$ref": ref}, ctx)
		case ref != "":
			schema = &ir.IRSchema{FromUnresolvedRef: true}
		default:
			schema = parser.ParseSchema("", media["schema"], ctx)
		}
		resp.Content[mediaType] = schema

		if format, ok := streamFormats[strings.ToLower(mediaType)]; ok {
			resp.Stream = true
			resp.StreamFormat = format
		}
	}

	if !resp.Stream {
		for _, schema := range resp.Content {
			if schema != nil && schema.Format == "binary" {
				resp.Stream = true
				resp.StreamFormat = "octet-stream"
				break
			}
		}
	}
	return resp
}

// registerOperationSchemas backfills arena names for anonymous request and
// response payload schemas so they emit as {OperationID}Request/Response
// modules. Streaming payloads and unresolved-ref placeholders stay
// anonymous; named payloads missing from the arena are inserted.
func registerOperationSchemas(op *ir.IROperation, ctx *parser.ParsingContext) {
	if op.RequestBody != nil {
		for _, mediaType := range sortedKeys(op.RequestBody.Content) {
			schema := op.RequestBody.Content[mediaType]
			if schema == nil {
				continue
			}
			if schema.Name == "" {
				name := utils.SanitizeClassName(op.OperationID + "Request")
				schema.Name = name
				ctx.Register(name, schema)
			} else if _, ok := ctx.Lookup(schema.Name); !ok {
				ctx.Register(schema.Name, schema)
			}
		}
	}

	for _, resp := range op.Responses {
		for _, mediaType := range sortedKeys(resp.Content) {
			schema := resp.Content[mediaType]
			if schema == nil {
				continue
			}
			if schema.Name == "" {
				if schema.FromUnresolvedRef || resp.Stream {
					continue
				}
				if schema.Type != "object" {
					continue
				}
				if len(schema.Properties) == 0 && !additionalPropertiesAllowed(schema.AdditionalProperties) {
					continue
				}
				name := utils.SanitizeClassName(op.OperationID + "Response")
				schema.Name = name
				ctx.Register(name, schema)
			} else if _, ok := ctx.Lookup(schema.Name); !ok {
				ctx.Register(schema.Name, schema)
			}
		}
	}
}

// isInlineComplex reports whether a schema node is an inline object-like
// definition worth a synthesized arena name: an explicit object type,
// declared properties, or any composition keyword, and no $ref.
func isInlineComplex(node map[string]any) bool {
	if node == nil || stringValue(node["$ref"]) != "" {
		return false
	}
	return stringValue(node["type"]) == "object" ||
		asMap(node["properties"]) != nil ||
		anySlice(node["allOf"]) != nil ||
		anySlice(node["anyOf"]) != nil ||
		anySlice(node["oneOf"]) != nil
}

// additionalPropertiesAllowed reports whether the additionalProperties facet
// permits extra members: absent counts as no, an explicit false as no, a
// schema or true as yes.
func additionalPropertiesAllowed(ap any) bool {
	switch v := ap.(type) {
	case nil:
		return false
	case bool:
		return v
	default:
		return true
	}
}
