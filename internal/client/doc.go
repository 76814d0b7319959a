// Package client ties the schema pipeline together into a callable client.
//
// Construction loads the cluster's OpenAPI document (or the bundled fallback),
// normalizes it, builds the action registry and assembles the interceptor
// chain. A call names a kind, an action verb and optional version; the
// registry resolves it to exactly one action and the chain performs the
// single round trip.
//
// Clients are immutable values: Extend never mutates the receiver, it
// returns a new Client with a superset registry, so a Client may be shared
// across goroutines for read-only use.
package client
