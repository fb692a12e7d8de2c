package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/kenchiku/pkg/httputil"
	"github.com/platinummonkey/kenchiku/pkg/observability"
)

// RouteRegistrar mounts a set of handlers on the router.
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// Server wires the registered handlers and standard middleware into a
// router.
type Server struct {
	router *mux.Router
}

// NewServer creates the API server. metrics may be nil when metrics are
// disabled.
func NewServer(logger *observability.Logger, metrics *observability.Metrics, registrars ...RouteRegistrar) *Server {
	router := mux.NewRouter()

	router.Use(httputil.RequestIDMiddleware)
	router.Use(httputil.LoggingMiddleware(logger))
	router.Use(httputil.RecoveryMiddleware(logger))
	if metrics != nil {
		router.Use(observability.HTTPMetricsMiddleware(metrics))
	}

	for _, r := range registrars {
		r.RegisterRoutes(router)
	}

	return &Server{router: router}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
