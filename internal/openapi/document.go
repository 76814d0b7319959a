package openapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// HTTP methods that may carry an operation in an OpenAPI v2 path item.
var pathItemMethods = []string{"get", "put", "post", "delete", "options", "head", "patch"}

// Document is the typed form of an OpenAPI v2 (Swagger) description of the
// cluster API surface. It is parsed once from the raw JSON document and is
// treated as an immutable value after normalization.
type Document struct {
	// Paths maps a literal path template ("/api/v1/namespaces/{namespace}/pods")
	// to the operations served under it.
	Paths map[string]*PathItem

	// Definitions holds the shared type schemas, kept as raw JSON since the
	// client never interprets them beyond handing them back to callers.
	Definitions map[string]json.RawMessage
}

// PathItem groups the operations of one path template together with the
// parameters shared by all of them. Operations is a slice rather than a
// method-keyed map because patch expansion leaves several PATCH operations
// on the same path, distinguished only by operation ID and content type.
type PathItem struct {
	Operations []*Operation
	Parameters []Parameter
}

// Operation is one callable (path, method) pair from the schema document.
type Operation struct {
	ID          string
	Method      string
	Summary     string
	Description string
	Consumes    []string
	Produces    []string
	Parameters  []Parameter
	Responses   map[string]Response

	// Action is the Kubernetes action tag (x-kubernetes-action). The raw
	// document is not always truthful about it; see Normalizer.
	Action string

	// GVK is the group/version/kind tag (x-kubernetes-group-version-kind)
	// when the operation declares one.
	GVK *schema.GroupVersionKind
}

// Parameter describes one declared request parameter.
type Parameter struct {
	Name        string          `json:"name"`
	In          string          `json:"in"`
	Description string          `json:"description,omitempty"`
	Required    bool            `json:"required,omitempty"`
	Type        string          `json:"type,omitempty"`
	Schema      json.RawMessage `json:"schema,omitempty"`
}

// Response describes one declared response status.
type Response struct {
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema,omitempty"`
}

// wire-side shapes; converted into the typed model immediately after decoding.
type rawDocument struct {
	Paths       map[string]json.RawMessage `json:"paths"`
	Definitions map[string]json.RawMessage `json:"definitions"`
}

type rawOperation struct {
	ID          string              `json:"operationId"`
	Summary     string              `json:"summary"`
	Description string              `json:"description"`
	Consumes    []string            `json:"consumes"`
	Produces    []string            `json:"produces"`
	Parameters  []Parameter         `json:"parameters"`
	Responses   map[string]Response `json:"responses"`
	Action      string              `json:"x-kubernetes-action"`
	GVK         *rawGVK             `json:"x-kubernetes-group-version-kind"`
}

type rawGVK struct {
	Group   string `json:"group"`
	Version string `json:"version"`
	Kind    string `json:"kind"`
}

// Parse converts a raw JSON schema document into the typed model. All later
// normalization stages operate on the typed values, never on the raw tree.
func Parse(data []byte) (*Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode schema document: %w", err)
	}
	if raw.Paths == nil {
		return nil, fmt.Errorf("schema document has no paths")
	}

	doc := &Document{
		Paths:       make(map[string]*PathItem, len(raw.Paths)),
		Definitions: raw.Definitions,
	}
	for path, rawItem := range raw.Paths {
		item, err := parsePathItem(rawItem)
		if err != nil {
			return nil, fmt.Errorf("failed to decode path %q: %w", path, err)
		}
		doc.Paths[path] = item
	}
	return doc, nil
}

func parsePathItem(data json.RawMessage) (*PathItem, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	item := &PathItem{}
	if params, ok := fields["parameters"]; ok {
		if err := json.Unmarshal(params, &item.Parameters); err != nil {
			return nil, fmt.Errorf("invalid shared parameters: %w", err)
		}
	}
	for _, method := range pathItemMethods {
		rawOp, ok := fields[method]
		if !ok {
			continue
		}
		var op rawOperation
		if err := json.Unmarshal(rawOp, &op); err != nil {
			return nil, fmt.Errorf("invalid %s operation: %w", method, err)
		}
		item.Operations = append(item.Operations, op.toOperation(strings.ToUpper(method)))
	}
	return item, nil
}

func (r rawOperation) toOperation(method string) *Operation {
	op := &Operation{
		ID:          r.ID,
		Method:      method,
		Summary:     r.Summary,
		Description: r.Description,
		Consumes:    r.Consumes,
		Produces:    r.Produces,
		Parameters:  r.Parameters,
		Responses:   r.Responses,
		Action:      r.Action,
	}
	if r.GVK != nil {
		op.GVK = &schema.GroupVersionKind{
			Group:   r.GVK.Group,
			Version: r.GVK.Version,
			Kind:    r.GVK.Kind,
		}
	}
	return op
}

// Operation returns the first operation served with the given HTTP method,
// or nil when the path does not serve it.
func (p *PathItem) Operation(method string) *Operation {
	for _, op := range p.Operations {
		if op.Method == method {
			return op
		}
	}
	return nil
}

// BodyParameter returns the operation's body parameter, or nil.
func (o *Operation) BodyParameter() *Parameter {
	for i := range o.Parameters {
		if o.Parameters[i].In == "body" {
			return &o.Parameters[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the document. Normalization works on a copy so
// the parsed input is never mutated.
func (d *Document) Clone() *Document {
	out := &Document{
		Paths:       make(map[string]*PathItem, len(d.Paths)),
		Definitions: d.Definitions,
	}
	for path, item := range d.Paths {
		out.Paths[path] = item.clone()
	}
	return out
}

func (p *PathItem) clone() *PathItem {
	out := &PathItem{
		Operations: make([]*Operation, 0, len(p.Operations)),
		Parameters: append([]Parameter(nil), p.Parameters...),
	}
	for _, op := range p.Operations {
		out.Operations = append(out.Operations, op.clone())
	}
	return out
}

func (o *Operation) clone() *Operation {
	out := *o
	out.Consumes = append([]string(nil), o.Consumes...)
	out.Produces = append([]string(nil), o.Produces...)
	out.Parameters = append([]Parameter(nil), o.Parameters...)
	if o.Responses != nil {
		out.Responses = make(map[string]Response, len(o.Responses))
		for code, resp := range o.Responses {
			out.Responses[code] = resp
		}
	}
	if o.GVK != nil {
		gvk := *o.GVK
		out.GVK = &gvk
	}
	return &out
}
