// Package interceptor implements the ordered stage chain an invocation runs
// through: authentication, caller-supplied request shaping, the single
// network round trip, and response handling.
//
// Every stage shares one capability, transforming the in-flight exchange or
// failing it, and the chain executes them by plain ordered iteration. A
// failing stage short-circuits the run; there is no retry or timeout logic
// at this layer.
package interceptor
