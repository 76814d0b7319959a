package registry

import (
	"sort"
	"strings"

	"github.com/kubecall/kubecall/internal/openapi"
)

// Registry is the immutable, ordered collection of callable actions built
// from a normalized schema document. Discovery order reflects the configured
// API-group order; within one group, paths are ordered lexically so repeated
// builds of the same document are identical.
//
// A Registry is never mutated after Build: extension produces a fresh copy
// via WithActions, so a Registry still referenced by a live client cannot be
// changed underneath it.
type Registry struct {
	actions []Action
	index   map[key][]int
}

// Build converts every (path, method) pair of the normalized document into
// one Action. Building is total: operations that cannot be classified are
// skipped, never fatal.
func Build(doc *openapi.Document, groupOrder []string) *Registry {
	if len(groupOrder) == 0 {
		groupOrder = openapi.DefaultAPIGroups
	}

	r := &Registry{index: make(map[key][]int)}
	seen := make(map[actionIdentity]bool)
	for _, path := range orderedPaths(doc, groupOrder) {
		item := doc.Paths[path]
		for _, op := range item.Operations {
			action, ok := actionFor(path, item, op)
			if !ok {
				continue
			}
			// (kind, verb, version) is unique within a registry;
			// first-discovered wins.
			if seen[action.identity()] {
				continue
			}
			seen[action.identity()] = true
			r.add(action)
		}
	}
	return r
}

// actionIdentity is the comparable (kind, verb, version) triple backing the
// uniqueness invariant.
type actionIdentity struct {
	kind    string
	verb    Verb
	version string
}

func (a Action) identity() actionIdentity {
	return actionIdentity{kind: strings.ToLower(a.Kind), verb: a.Verb, version: a.Version}
}

// orderedPaths returns the document's paths in discovery order: configured
// group order first, lexical within a group, then everything else lexically.
func orderedPaths(doc *openapi.Document, groupOrder []string) []string {
	all := make([]string, 0, len(doc.Paths))
	for path := range doc.Paths {
		all = append(all, path)
	}
	sort.Strings(all)

	out := make([]string, 0, len(all))
	taken := make(map[string]bool, len(all))
	for _, group := range groupOrder {
		for _, path := range all {
			if !taken[path] && openapi.MatchesGroup(path, group) {
				taken[path] = true
				out = append(out, path)
			}
		}
	}
	for _, path := range all {
		if !taken[path] {
			out = append(out, path)
		}
	}
	return out
}

func (r *Registry) add(a Action) {
	r.actions = append(r.actions, a)
	k := keyFor(a.Kind, a.Verb)
	r.index[k] = append(r.index[k], len(r.actions)-1)
}

// actionFor classifies one operation into an Action. Kind, group and version
// come from the operation's GVK tag, falling back to path conventions; the
// verb comes from the repaired action tag, falling back to the HTTP method.
func actionFor(path string, item *openapi.PathItem, op *openapi.Operation) (Action, bool) {
	a := Action{
		ID:        op.ID,
		Path:      path,
		Method:    op.Method,
		Summary:   op.Summary,
		Consumes:  op.Consumes,
		Responses: op.Responses,
	}
	a.Parameters = append(append([]openapi.Parameter(nil), item.Parameters...), op.Parameters...)

	if op.GVK != nil {
		a.Kind = op.GVK.Kind
		a.Group = op.GVK.Group
		a.Version = op.GVK.Version
	} else {
		kind, group, version, ok := deriveFromPath(path)
		if !ok {
			return Action{}, false
		}
		a.Kind, a.Group, a.Version = kind, group, version
	}

	verb, ok := verbFor(op, path)
	if !ok {
		return Action{}, false
	}
	a.Verb = verb
	return a, true
}

func verbFor(op *openapi.Operation, path string) (Verb, bool) {
	if op.Action != "" {
		v := Verb(op.Action)
		_, known := knownVerbs[v]
		return v, known
	}
	named := strings.HasSuffix(path, "}")
	switch op.Method {
	case "GET":
		if named {
			return VerbGet, true
		}
		return VerbList, true
	case "POST":
		return VerbCreate, true
	case "PUT":
		return VerbUpdate, true
	case "DELETE":
		if named {
			return VerbDelete, true
		}
		return VerbDeleteCollection, true
	default:
		return "", false
	}
}

// deriveFromPath infers (kind, group, version) from the path template for
// operations without a GVK tag, following the /apis/{group}/{version}/...
// and /api/{version}/... conventions.
func deriveFromPath(path string) (kind, group, version string, ok bool) {
	segments := splitPath(path)
	switch {
	case len(segments) >= 3 && segments[0] == "apis":
		group, version = segments[1], segments[2]
		segments = segments[3:]
	case len(segments) >= 2 && segments[0] == "api":
		version = segments[1]
		segments = segments[2:]
	default:
		return "", "", "", false
	}
	// last literal segment is the plural resource name
	for i := len(segments) - 1; i >= 0; i-- {
		s := segments[i]
		if !strings.HasPrefix(s, "{") && s != "namespaces" {
			return singularKind(s), group, version, true
		}
	}
	return "", "", "", false
}

func splitPath(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func singularKind(plural string) string {
	switch {
	case strings.HasSuffix(plural, "ies"):
		return strings.TrimSuffix(plural, "ies") + "y"
	case strings.HasSuffix(plural, "ses"):
		return strings.TrimSuffix(plural, "es")
	case strings.HasSuffix(plural, "s"):
		return strings.TrimSuffix(plural, "s")
	default:
		return plural
	}
}

// Find resolves (kind, verb, version) to exactly one action. With an empty
// version the preferred-version policy picks the candidate; with a version
// given only an exact match counts.
func (r *Registry) Find(kind string, verb Verb, version string) (*Action, error) {
	idxs := r.index[keyFor(kind, verb)]
	if len(idxs) == 0 {
		return nil, &NotFoundError{Kind: kind, Verb: verb, Version: version}
	}
	candidates := make([]*Action, 0, len(idxs))
	for _, i := range idxs {
		candidates = append(candidates, &r.actions[i])
	}
	if version == "" {
		return preferredVersion(candidates), nil
	}
	for _, c := range candidates {
		if c.Version == version {
			return c, nil
		}
	}
	return nil, &NotFoundError{Kind: kind, Verb: verb, Version: version}
}

// DirectoryEntry lists the callable actions of one kind.
type DirectoryEntry struct {
	Kind    string
	Actions []DirectoryAction
}

// DirectoryAction is one (verb, summary) row of a directory listing, taken
// from the preferred-version action of its (kind, verb) group.
type DirectoryAction struct {
	Verb    Verb
	Version string
	Summary string
}

// Directory returns the registry's contents grouped by kind, sorted by kind
// name. Each (kind, verb) group contributes only its preferred-version
// action, so the same action never shows up twice for one kind; within a
// kind, rows preserve discovery order.
func (r *Registry) Directory(kindFilter string) []DirectoryEntry {
	filter := strings.ToLower(kindFilter)
	byKind := make(map[string]*DirectoryEntry)
	emitted := make(map[key]bool)
	var kinds []string

	for i := range r.actions {
		a := &r.actions[i]
		if filter != "" && strings.ToLower(a.Kind) != filter {
			continue
		}
		k := keyFor(a.Kind, a.Verb)
		if emitted[k] {
			continue
		}
		emitted[k] = true

		preferred, err := r.Find(a.Kind, a.Verb, "")
		if err != nil {
			continue
		}
		entry, ok := byKind[k.kind]
		if !ok {
			entry = &DirectoryEntry{Kind: preferred.Kind}
			byKind[k.kind] = entry
			kinds = append(kinds, k.kind)
		}
		entry.Actions = append(entry.Actions, DirectoryAction{
			Verb:    preferred.Verb,
			Version: preferred.Version,
			Summary: preferred.Summary,
		})
	}

	sort.Strings(kinds)
	out := make([]DirectoryEntry, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, *byKind[k])
	}
	return out
}

// HasKind reports whether any action is registered for the kind.
func (r *Registry) HasKind(kind string) bool {
	k := strings.ToLower(kind)
	for i := range r.actions {
		if strings.ToLower(r.actions[i].Kind) == k {
			return true
		}
	}
	return false
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	return len(r.actions)
}

// WithActions returns a new registry containing this registry's actions plus
// the given ones. The receiver is left untouched; the copy shares no mutable
// state with it. Additions that collide on (kind, verb, version) with an
// existing action are dropped, keeping the uniqueness invariant.
func (r *Registry) WithActions(extra []Action) *Registry {
	out := &Registry{
		actions: make([]Action, 0, len(r.actions)+len(extra)),
		index:   make(map[key][]int),
	}
	seen := make(map[actionIdentity]bool)
	for _, a := range append(append([]Action(nil), r.actions...), extra...) {
		if seen[a.identity()] {
			continue
		}
		seen[a.identity()] = true
		out.add(a)
	}
	return out
}
