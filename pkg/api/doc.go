// Package api defines the shared domain types for the building catalog and
// the HTTP server that mounts registered handlers behind the standard
// middleware chain.
package api
