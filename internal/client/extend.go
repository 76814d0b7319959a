package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kubecall/kubecall/internal/logging"
	"github.com/kubecall/kubecall/internal/openapi"
	"github.com/kubecall/kubecall/internal/registry"
)

// apiResource is one entry of a live APIResourceList response.
type apiResource struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Namespaced bool   `json:"namespaced"`
}

// Extend discovers the resource kinds registered under apiGroup/version on
// the live cluster and returns a new Client whose registry is the union of
// this client's actions and a synthesized action set for every kind not
// already present. The receiver and its registry are left untouched; callers
// must adopt the returned value to see the additions.
func (c *Client) Extend(ctx context.Context, apiGroup, version string) (*Client, error) {
	resources, err := c.discoverResources(ctx, apiGroup, version)
	if err != nil {
		return nil, err
	}
	crds, err := c.discoverCRDs(ctx, apiGroup, version)
	if err != nil {
		c.logger.Warn("CRD listing failed, extending from discovery only",
			logging.Group(apiGroup),
			logging.SanitizedErr(err))
	}
	resources = mergeResources(resources, crds)

	var synthesized []registry.Action
	for _, res := range resources {
		// subresources ("foos/status") are not directly callable kinds
		if res.Kind == "" || strings.Contains(res.Name, "/") {
			continue
		}
		if c.registry.HasKind(res.Kind) {
			continue
		}
		synthesized = append(synthesized, synthesizeActions(apiGroup, version, res)...)
	}

	extended := *c
	extended.registry = c.registry.WithActions(synthesized)
	extended.chain = extended.buildChain()

	c.logger.Info("client extended",
		logging.Group(apiGroup),
		logging.Version(version),
		slog.Int("added", extended.registry.Len()-c.registry.Len()))
	return &extended, nil
}

// discoverResources fetches the APIResourceList for the group/version via
// the synthetic discovery route.
func (c *Client) discoverResources(ctx context.Context, apiGroup, version string) ([]apiResource, error) {
	body, err := c.Invoke(ctx, Call{
		Kind:   openapi.DiscoveryRouteKind,
		Action: string(registry.VerbList),
		Params: map[string]any{"api": apiGroup, "version": version},
	})
	if err != nil {
		return nil, fmt.Errorf("resource discovery for %s/%s failed: %w", apiGroup, version, err)
	}

	var list struct {
		Resources []apiResource `json:"resources"`
	}
	if err := redecode(body, &list); err != nil {
		return nil, fmt.Errorf("invalid APIResourceList for %s/%s: %w", apiGroup, version, err)
	}
	return list.Resources, nil
}

// discoverCRDs lists the installed CustomResourceDefinitions and keeps those
// serving apiGroup at the requested version. They supplement the resource
// list with kinds registered but not yet surfaced by discovery.
func (c *Client) discoverCRDs(ctx context.Context, apiGroup, version string) ([]apiResource, error) {
	body, err := c.Invoke(ctx, Call{
		Kind:   "CustomResourceDefinition",
		Action: string(registry.VerbList),
	})
	if err != nil {
		return nil, err
	}

	var list struct {
		Items []struct {
			Spec struct {
				Group string `json:"group"`
				Scope string `json:"scope"`
				Names struct {
					Kind   string `json:"kind"`
					Plural string `json:"plural"`
				} `json:"names"`
				Versions []struct {
					Name   string `json:"name"`
					Served bool   `json:"served"`
				} `json:"versions"`
			} `json:"spec"`
		} `json:"items"`
	}
	if err := redecode(body, &list); err != nil {
		return nil, fmt.Errorf("invalid CustomResourceDefinitionList: %w", err)
	}

	var out []apiResource
	for _, item := range list.Items {
		if item.Spec.Group != apiGroup {
			continue
		}
		served := false
		for _, v := range item.Spec.Versions {
			if v.Name == version && v.Served {
				served = true
				break
			}
		}
		if !served {
			continue
		}
		out = append(out, apiResource{
			Name:       item.Spec.Names.Plural,
			Kind:       item.Spec.Names.Kind,
			Namespaced: item.Spec.Scope == "Namespaced",
		})
	}
	return out, nil
}

func mergeResources(primary, extra []apiResource) []apiResource {
	seen := make(map[string]bool, len(primary))
	for _, r := range primary {
		seen[strings.ToLower(r.Kind)] = true
	}
	out := primary
	for _, r := range extra {
		if !seen[strings.ToLower(r.Kind)] {
			seen[strings.ToLower(r.Kind)] = true
			out = append(out, r)
		}
	}
	return out
}

// synthesizeActions builds the full action set for one discovered kind,
// deriving path templates from the group/version/plural convention.
func synthesizeActions(apiGroup, version string, res apiResource) []registry.Action {
	base := fmt.Sprintf("/apis/%s/%s", apiGroup, version)
	collection := base + "/" + res.Name
	pathParams := []openapi.Parameter{}
	if res.Namespaced {
		collection = base + "/namespaces/{namespace}/" + res.Name
		pathParams = append(pathParams, openapi.Parameter{Name: "namespace", In: "path", Required: true, Type: "string"})
	}
	named := collection + "/{name}"
	namedParams := append(append([]openapi.Parameter(nil), pathParams...),
		openapi.Parameter{Name: "name", In: "path", Required: true, Type: "string"})
	bodyParam := openapi.Parameter{Name: "body", In: "body", Required: true}
	listParams := append(append([]openapi.Parameter(nil), pathParams...),
		openapi.Parameter{Name: "labelSelector", In: "query", Type: "string"},
		openapi.Parameter{Name: "fieldSelector", In: "query", Type: "string"},
		openapi.Parameter{Name: "limit", In: "query", Type: "integer"},
		openapi.Parameter{Name: "continue", In: "query", Type: "string"})

	idStem := fmt.Sprintf("%s%s%s", camel(apiGroup), camel(version), res.Kind)
	jsonOnly := []string{"application/json"}

	actions := []registry.Action{
		{
			ID: "create" + idStem, Kind: res.Kind, Verb: registry.VerbCreate,
			Group: apiGroup, Version: version, Path: collection, Method: "POST",
			Summary: "create a " + res.Kind, Consumes: jsonOnly,
			Parameters: append(append([]openapi.Parameter(nil), pathParams...), bodyParam),
		},
		{
			ID: "list" + idStem, Kind: res.Kind, Verb: registry.VerbList,
			Group: apiGroup, Version: version, Path: collection, Method: "GET",
			Summary: "list objects of kind " + res.Kind, Consumes: jsonOnly,
			Parameters: listParams,
		},
		{
			ID: "deleteCollection" + idStem, Kind: res.Kind, Verb: registry.VerbDeleteCollection,
			Group: apiGroup, Version: version, Path: collection, Method: "DELETE",
			Summary: "delete collection of " + res.Kind, Consumes: jsonOnly,
			Parameters: append(append([]openapi.Parameter(nil), pathParams...),
				openapi.Parameter{Name: "labelSelector", In: "query", Type: "string"}),
		},
		{
			ID: "read" + idStem, Kind: res.Kind, Verb: registry.VerbGet,
			Group: apiGroup, Version: version, Path: named, Method: "GET",
			Summary: "read the specified " + res.Kind, Consumes: jsonOnly,
			Parameters: namedParams,
		},
		{
			ID: "replace" + idStem, Kind: res.Kind, Verb: registry.VerbUpdate,
			Group: apiGroup, Version: version, Path: named, Method: "PUT",
			Summary: "replace the specified " + res.Kind, Consumes: jsonOnly,
			Parameters: append(append([]openapi.Parameter(nil), namedParams...), bodyParam),
		},
		{
			ID: "delete" + idStem, Kind: res.Kind, Verb: registry.VerbDelete,
			Group: apiGroup, Version: version, Path: named, Method: "DELETE",
			Summary: "delete a " + res.Kind, Consumes: jsonOnly,
			Parameters: namedParams,
		},
	}
	for _, variant := range []struct {
		suffix   string
		verb     registry.Verb
		consumes string
	}{
		{"JsonPatch", registry.VerbPatchJSON, "application/json-patch+json"},
		{"StrategicMerge", registry.VerbPatchStrategic, "application/strategic-merge-patch+json"},
		{"JsonMerge", registry.VerbPatchMerge, "application/merge-patch+json"},
		{"ApplyServerSide", registry.VerbApply, "application/apply-patch+yaml"},
	} {
		actions = append(actions, registry.Action{
			ID: "patch" + idStem + variant.suffix, Kind: res.Kind, Verb: variant.verb,
			Group: apiGroup, Version: version, Path: named, Method: "PATCH",
			Summary: "partially update the specified " + res.Kind, Consumes: []string{variant.consumes},
			Parameters: append(append([]openapi.Parameter(nil), namedParams...), bodyParam),
		})
	}
	return actions
}

// camel turns "tekton.dev" into "TektonDev" for operation ID stems.
func camel(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '-' })
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "")
}

// redecode round-trips an already-decoded JSON value into a typed struct.
func redecode(value any, into any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, into)
}
