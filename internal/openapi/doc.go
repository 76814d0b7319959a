// Package openapi parses and repairs the cluster's OpenAPI v2 description.
//
// A cluster's self-published schema document is riddled with real-world
// inconsistencies: action tags that carry HTTP verbs, wildcard consumes
// declarations, watch endpoints this client cannot serve, and a single PATCH
// operation standing in for four distinct patch strategies. This package
// converts the raw JSON into a typed Document immediately after decoding and
// runs a fixed sequence of normalization stages over it, so everything
// downstream works on corrected, typed data.
//
// The package also loads the document: from <host>/openapi/v2 when discovery
// is enabled, falling back to a bundled snapshot when the fetch fails or
// discovery is disabled.
package openapi
