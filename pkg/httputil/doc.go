// Package httputil provides HTTP handler utilities for consistent error
// handling, JSON encoding, query parsing, and request middleware.
package httputil
