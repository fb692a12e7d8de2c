package httputil

import (
	"net/http"
	"strconv"
)

// QueryInt parses an integer query parameter, returning def when absent
// or unparseable. Values below min are clamped to def as well.
func QueryInt(r *http.Request, name string, def, min int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return def
	}
	return v
}

// QueryString returns a query parameter or a default when absent.
func QueryString(r *http.Request, name, def string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return def
}
