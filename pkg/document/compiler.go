package document

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/getspecd/specd/pkg/schema"
	"github.com/getspecd/specd/pkg/spec"
)

const (
	contentJSON = "application/json"
	contentForm = "application/x-www-form-urlencoded"
)

// Compile serializes a frozen registry into a Document. References are
// kept in compact $ref form. Compiling the same registry twice yields
// equal documents.
func Compile(reg *spec.Registry) (*Document, error) {
	if !reg.Frozen() {
		return nil, fmt.Errorf("registry must be frozen before compilation")
	}

	doc := &Document{
		OpenAPI: "3.0.3",
		Info:    reg.Info(),
		Servers: reg.Servers(),
		Paths:   make(map[string]*PathItem),
	}

	if len(reg.Components()) > 0 || len(reg.SecuritySchemes()) > 0 {
		doc.Components = &Components{}
		if len(reg.Components()) > 0 {
			doc.Components.Schemas = reg.Components()
		}
		if len(reg.SecuritySchemes()) > 0 {
			doc.Components.SecuritySchemes = reg.SecuritySchemes()
		}
	}

	for _, op := range reg.Operations() {
		item := doc.Paths[op.Path]
		if item == nil {
			item = &PathItem{}
			doc.Paths[op.Path] = item
		}
		compiled, err := compileOperation(op)
		if err != nil {
			return nil, err
		}
		switch op.Method {
		case "GET":
			item.Get = compiled
		case "POST":
			item.Post = compiled
		case "PUT":
			item.Put = compiled
		case "PATCH":
			item.Patch = compiled
		case "DELETE":
			item.Delete = compiled
		case "HEAD":
			item.Head = compiled
		case "OPTIONS":
			item.Options = compiled
		default:
			return nil, fmt.Errorf("operation %s: unsupported method for compilation", op.Key())
		}
	}
	return doc, nil
}

func compileOperation(op *spec.Operation) (*Operation, error) {
	out := &Operation{
		OperationID: op.OperationID,
		Summary:     op.Summary,
		Description: op.Description,
		Tags:        sortedTags(op.Tags),
		Responses:   make(map[string]*Response, len(op.Responses)),
	}

	for _, p := range op.Parameters {
		switch p.In {
		case spec.InQuery, spec.InPath, spec.InHeader:
			out.Parameters = append(out.Parameters, &Parameter{
				Name:        p.Name,
				In:          string(p.In),
				Description: p.Description,
				Required:    p.Required,
				Schema:      p.Schema,
			})
		}
	}

	body, err := compileRequestBody(op)
	if err != nil {
		return nil, err
	}
	out.RequestBody = body

	for _, status := range op.DocumentedStatuses() {
		resp := &Response{Description: statusDescription(status)}
		if s, _ := op.ResponseFor(status); s != nil {
			resp.Content = map[string]*MediaType{contentJSON: {Schema: s}}
		}
		out.Responses[strconv.Itoa(status)] = resp
	}
	return out, nil
}

// compileRequestBody folds the three body declaration styles into one
// requestBody block: an explicit schema node, a raw JSON Schema document,
// or form/body-located parameters synthesized into an object schema.
func compileRequestBody(op *spec.Operation) (*RequestBody, error) {
	if op.RequestBody != nil {
		return &RequestBody{
			Required: op.RequestBodyRequired,
			Content:  map[string]*MediaType{contentJSON: {Schema: op.RequestBody}},
		}, nil
	}

	if op.RawRequestSchema != nil {
		var decoded any
		if err := json.Unmarshal(op.RawRequestSchema, &decoded); err != nil {
			return nil, fmt.Errorf("operation %s: raw request schema is not valid JSON: %w", op.Key(), err)
		}
		return &RequestBody{
			Required: op.RequestBodyRequired,
			Content:  map[string]*MediaType{contentJSON: {Schema: decoded}},
		}, nil
	}

	if params := op.ParamsIn(spec.InBody); len(params) > 0 {
		return &RequestBody{
			Required: true,
			Content:  map[string]*MediaType{contentJSON: {Schema: paramsToObject(params)}},
		}, nil
	}
	if params := op.ParamsIn(spec.InFormData); len(params) > 0 {
		return &RequestBody{
			Required: true,
			Content:  map[string]*MediaType{contentForm: {Schema: paramsToObject(params)}},
		}, nil
	}
	return nil, nil
}

func paramsToObject(params []spec.Parameter) *schema.Schema {
	obj := schema.Object()
	var required []string
	for _, p := range params {
		obj.Prop(p.Name, p.Schema)
		if p.Required {
			required = append(required, p.Name)
		}
	}
	sort.Strings(required)
	return obj.Req(required...)
}

func sortedTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := append([]string(nil), tags...)
	sort.Strings(out)
	return out
}

func statusDescription(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Status " + strconv.Itoa(status)
}
