package registry

import (
	"fmt"
	"strings"

	"github.com/kubecall/kubecall/internal/openapi"
)

// Verb enumerates the action verbs an Action can carry. Lookup is keyed on
// this type rather than raw tag strings so a typo cannot silently miss the
// index.
type Verb string

const (
	VerbCreate           Verb = "create"
	VerbUpdate           Verb = "update"
	VerbPatchJSON        Verb = "patch-json"
	VerbPatchStrategic   Verb = "patch-strategic"
	VerbPatchMerge       Verb = "patch-merge"
	VerbApply            Verb = "apply"
	VerbList             Verb = "list"
	VerbGet              Verb = "get"
	VerbDelete           Verb = "delete"
	VerbDeleteCollection Verb = "deletecollection"
	VerbWatch            Verb = "watch"
)

var knownVerbs = map[Verb]struct{}{
	VerbCreate: {}, VerbUpdate: {}, VerbPatchJSON: {}, VerbPatchStrategic: {},
	VerbPatchMerge: {}, VerbApply: {}, VerbList: {}, VerbGet: {},
	VerbDelete: {}, VerbDeleteCollection: {}, VerbWatch: {},
}

// ParseVerb converts a user-supplied action name into a Verb.
func ParseVerb(s string) (Verb, error) {
	v := Verb(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownVerbs[v]; !ok {
		return "", fmt.Errorf("unknown action verb %q", s)
	}
	return v, nil
}

// Action is the normalized, registry-ready unit derived from one schema
// operation: a verb on a kind at a specific group/version, bound to a path
// template.
type Action struct {
	// ID is the unique operation identifier from the schema document.
	ID string

	// Kind is the resource kind the action operates on ("Pod").
	Kind string

	// Verb is the action verb.
	Verb Verb

	// Group and Version locate the action in the API surface. Group is
	// empty for the core API.
	Group   string
	Version string

	// Path is the path template ("/api/v1/namespaces/{namespace}/pods").
	Path string

	// Method is the HTTP method the action is invoked with.
	Method string

	// Summary is the human-readable description used in directory listings.
	Summary string

	// Consumes lists the request media types; the first entry selects the
	// encoder.
	Consumes []string

	// Parameters and Responses carry the declared schema metadata for the
	// info operation.
	Parameters []openapi.Parameter
	Responses  map[string]openapi.Response
}

// key indexes actions by (kind, verb). Kind comparison is case-insensitive:
// callers write "pod" or "Pod" interchangeably.
type key struct {
	kind string
	verb Verb
}

func keyFor(kind string, verb Verb) key {
	return key{kind: strings.ToLower(kind), verb: verb}
}

// NotFoundError reports that a (kind, action, version) triple resolved to no
// registered action. It carries the original search criteria.
type NotFoundError struct {
	Kind    string
	Verb    Verb
	Version string
}

func (e *NotFoundError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("no action registered for kind %q action %q version %q", e.Kind, e.Verb, e.Version)
	}
	return fmt.Sprintf("no action registered for kind %q action %q", e.Kind, e.Verb)
}
