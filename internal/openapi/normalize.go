package openapi

import (
	"encoding/json"
	"strings"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
)

// DefaultAPIGroups is the built-in list of API-group selectors used when the
// caller does not configure its own. It covers the stock API surface of a
// current cluster; anything beyond it (CRDs, aggregated APIs) is reached by
// extending the client at runtime.
var DefaultAPIGroups = []string{
	"v1",
	"admissionregistration.k8s.io",
	"apiextensions.k8s.io",
	"apiregistration.k8s.io",
	"apps",
	"authentication.k8s.io",
	"authorization.k8s.io",
	"autoscaling",
	"batch",
	"certificates.k8s.io",
	"coordination.k8s.io",
	"discovery.k8s.io",
	"events.k8s.io",
	"extensions",
	"flowcontrol.apiserver.k8s.io",
	"networking.k8s.io",
	"node.k8s.io",
	"policy",
	"rbac.authorization.k8s.io",
	"resource.k8s.io",
	"scheduling.k8s.io",
	"storage.k8s.io",
}

// rootListingPaths are always retained regardless of the configured
// selectors; they enumerate the available API versions and groups.
var rootListingPaths = []string{"/api/", "/apis/"}

// DiscoveryRoutePath is the synthetic route injected by the normalizer. It
// lists the resource kinds available under an arbitrary group/version, which
// the static document cannot enumerate for CustomResourceDefinitions.
const DiscoveryRoutePath = "/apis/{api}/{version}/"

// DiscoveryRouteKind is the kind tag carried by the synthetic discovery route.
const DiscoveryRouteKind = "APIResourceList"

// actionRepairs remaps Kubernetes action tags the upstream document gets
// wrong: the tag sometimes carries the HTTP verb instead of the action.
var actionRepairs = map[string]string{
	"post":      "create",
	"put":       "update",
	"watchlist": "watch",
}

// jsonPatchSchema is the fixed RFC 6902 body schema attached to the
// json-patch variant during patch expansion.
var jsonPatchSchema = json.RawMessage(`{"description":"JSON Patch (RFC 6902) operation list","type":"array","items":{"type":"object","required":["op","path"],"properties":{"op":{"type":"string","enum":["add","remove","replace","move","copy","test"]},"path":{"type":"string"},"from":{"type":"string"},"value":{}}}}`)

// patchVariant describes one of the four partial-update semantics a plain
// PATCH operation is expanded into.
type patchVariant struct {
	// suffix distinguishes the synthesized operation IDs.
	suffix string
	// action is the Kubernetes action tag of the synthesized operation.
	action string
	// contentType is the single media type the variant consumes.
	contentType types.PatchType
	// fixedSchema overrides the body schema; when nil the schema is copied
	// from the sibling update operation on the same path.
	fixedSchema json.RawMessage
}

var patchVariants = []patchVariant{
	{suffix: "JsonPatch", action: "patch-json", contentType: types.JSONPatchType, fixedSchema: jsonPatchSchema},
	{suffix: "StrategicMerge", action: "patch-strategic", contentType: types.StrategicMergePatchType},
	{suffix: "JsonMerge", action: "patch-merge", contentType: types.MergePatchType},
	{suffix: "ApplyServerSide", action: "apply", contentType: types.ApplyPatchType},
}

// Normalizer repairs a raw schema document into the form the action registry
// is built from. Normalization is pure: the input document is never mutated
// and the same input always produces the same output.
type Normalizer struct {
	// Groups is the list of API-group selectors to retain. Empty means
	// DefaultAPIGroups.
	Groups []string

	// DiscoveryEnabled controls injection of the synthetic discovery route.
	// With discovery disabled the client never talks to a live cluster, so
	// the route would be dead weight.
	DiscoveryEnabled bool
}

// Normalize runs the repair stages in their fixed order and returns a new
// document. Stage order matters: filtering must run before route injection
// (the injected route is exempt) and before patch expansion (only retained
// paths are expanded).
func (n Normalizer) Normalize(doc *Document) *Document {
	groups := n.Groups
	if len(groups) == 0 {
		groups = DefaultAPIGroups
	}

	out := doc.Clone()
	n.filterPaths(out, groups)
	n.backfillSummaries(out)
	if n.DiscoveryEnabled {
		n.injectDiscoveryRoute(out)
	}
	n.repairActions(out)
	n.repairConsumes(out)
	n.removeWatchPaths(out)
	n.expandPatchOperations(out)
	return out
}

// filterPaths drops every path that neither is a root listing path nor
// matches one of the configured API-group selectors.
func (n Normalizer) filterPaths(doc *Document, groups []string) {
	for path := range doc.Paths {
		if !retainPath(path, groups) {
			delete(doc.Paths, path)
		}
	}
}

func retainPath(path string, groups []string) bool {
	for _, root := range rootListingPaths {
		if path == root {
			return true
		}
	}
	for _, group := range groups {
		if MatchesGroup(path, group) {
			return true
		}
	}
	return false
}

// MatchesGroup reports whether a path belongs to the given API-group
// selector. The registry reuses it to order actions by configured group.
func MatchesGroup(path, group string) bool {
	return path == group ||
		strings.HasPrefix(path, "/apis/"+group) ||
		strings.HasPrefix(path, "/api/"+group) ||
		strings.HasPrefix(path, "/"+group)
}

// backfillSummaries copies the description into the summary for operations
// that declare only the former, so directory listings always have text.
func (n Normalizer) backfillSummaries(doc *Document) {
	for _, item := range doc.Paths {
		for _, op := range item.Operations {
			if op.Summary == "" && op.Description != "" {
				op.Summary = op.Description
			}
		}
	}
}

// injectDiscoveryRoute adds the synthetic GET /apis/{api}/{version}/ route.
func (n Normalizer) injectDiscoveryRoute(doc *Document) {
	doc.Paths[DiscoveryRoutePath] = &PathItem{
		Operations: []*Operation{{
			ID:       "getArbitraryAPIGroupResourceList",
			Method:   "GET",
			Summary:  "list the resource kinds served under an arbitrary API group and version",
			Produces: []string{"application/json"},
			Action:   "list",
			GVK:      &schema.GroupVersionKind{Kind: DiscoveryRouteKind},
		}},
		Parameters: []Parameter{
			{Name: "api", In: "path", Required: true, Type: "string"},
			{Name: "version", In: "path", Required: true, Type: "string"},
		},
	}
}

// repairActions remaps the known-incorrect action tag values.
func (n Normalizer) repairActions(doc *Document) {
	for _, item := range doc.Paths {
		for _, op := range item.Operations {
			if repaired, ok := actionRepairs[op.Action]; ok {
				op.Action = repaired
			}
		}
	}
}

// repairConsumes rewrites a wildcard consumes declaration to JSON. A
// wildcard leaves the encoder with no deterministic choice.
func (n Normalizer) repairConsumes(doc *Document) {
	for _, item := range doc.Paths {
		for _, op := range item.Operations {
			if len(op.Consumes) == 1 && op.Consumes[0] == "*/*" {
				op.Consumes = []string{"application/json"}
			}
		}
	}
}

// removeWatchPaths drops every path containing "/watch". Watch endpoints are
// long-lived streaming connections this client's one-request/one-response
// transport cannot serve.
func (n Normalizer) removeWatchPaths(doc *Document) {
	for path := range doc.Paths {
		if strings.Contains(path, "/watch") {
			delete(doc.Paths, path)
		}
	}
}

// expandPatchOperations replaces every plain PATCH operation with four
// synthesized operations, one per patch strategy, each consuming exactly one
// content type. The non-json-patch variants borrow their body schema from
// the sibling update operation on the same path; when there is none the
// schema stays absent rather than failing the whole document.
func (n Normalizer) expandPatchOperations(doc *Document) {
	for _, item := range doc.Paths {
		patch := item.Operation("PATCH")
		if patch == nil {
			continue
		}

		var updateSchema json.RawMessage
		for _, sibling := range item.Operations {
			if sibling.Action == "update" {
				if body := sibling.BodyParameter(); body != nil {
					updateSchema = body.Schema
				}
				break
			}
		}

		kept := item.Operations[:0]
		for _, op := range item.Operations {
			if op.Method != "PATCH" {
				kept = append(kept, op)
			}
		}
		item.Operations = kept

		for _, variant := range patchVariants {
			item.Operations = append(item.Operations, synthesizePatch(patch, variant, updateSchema))
		}
	}
}

func synthesizePatch(patch *Operation, variant patchVariant, updateSchema json.RawMessage) *Operation {
	op := patch.clone()
	op.ID = patch.ID + variant.suffix
	op.Action = variant.action
	op.Consumes = []string{string(variant.contentType)}

	schema := variant.fixedSchema
	if schema == nil {
		schema = updateSchema
	}
	if body := op.BodyParameter(); body != nil {
		body.Schema = schema
	} else if schema != nil {
		op.Parameters = append(op.Parameters, Parameter{
			Name:     "body",
			In:       "body",
			Required: true,
			Schema:   schema,
		})
	}
	return op
}
