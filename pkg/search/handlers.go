package search

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/kenchiku/pkg/api"
	"github.com/platinummonkey/kenchiku/pkg/httputil"
	"github.com/platinummonkey/kenchiku/pkg/observability"
)

// Handlers provides HTTP handlers for building search
type Handlers struct {
	service *Service
	logger  *observability.Logger
}

// NewHandlers creates new search handlers
func NewHandlers(service *Service, logger *observability.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// RegisterRoutes registers search routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/buildings/search", h.search).Methods("GET")
}

// search handles GET /api/v1/buildings/search
func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	req := Request{
		Query:    r.URL.Query().Get("q"),
		Language: api.ParseLanguage(r.URL.Query().Get("lang")),
		Page:     httputil.QueryInt(r, "page", 1, 1),
		Limit:    httputil.QueryInt(r, "limit", DefaultLimit, 1),
	}

	resp, err := h.service.Search(r.Context(), req)
	if err != nil {
		observability.FromContext(r.Context()).WithError(err).Error("search failed")
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, resp)
}
