// Package registry indexes the callable actions of a normalized schema
// document and resolves (kind, action, version) requests to exactly one of
// them.
//
// Several API groups and versions can expose the same resource kind; when
// the caller omits the version, a deterministic preferred-version policy
// breaks the tie (stable before alpha/beta, higher version next, discovery
// order last), so lookups never surface ambiguity.
//
// A built Registry is immutable. Runtime extension creates a new registry
// with WithActions rather than mutating one that live clients may still
// reference.
package registry
