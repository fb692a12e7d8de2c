package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(store *fakeStore) *mux.Router {
	router := mux.NewRouter()
	NewHandlers(newTestService(store), testLogger()).RegisterRoutes(router)
	return router
}

func doSearch(t *testing.T, router *mux.Router, target string) (*httptest.ResponseRecorder, *Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp Response
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, &resp
}

func TestSearchHandler_OK(t *testing.T) {
	store := newFakeStore()
	store.textMatches["tower"] = []int64{3, 9}
	store.addBuilding(3, "tower a")
	store.addBuilding(9, "tower b")
	router := newTestRouter(store)

	rec, resp := doSearch(t, router, "/api/v1/buildings/search?q=tower")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, int64(9), resp.Data[0].ID)
}

func TestSearchHandler_EmptyQuery(t *testing.T) {
	router := newTestRouter(newFakeStore())

	rec, resp := doSearch(t, router, "/api/v1/buildings/search")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}

func TestSearchHandler_Pagination(t *testing.T) {
	store := newFakeStore()
	store.textMatches["x"] = []int64{1, 2, 3}
	for _, id := range []int64{1, 2, 3} {
		store.addBuilding(id, "x")
	}
	router := newTestRouter(store)

	rec, resp := doSearch(t, router, "/api/v1/buildings/search?q=x&page=2&limit=2")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(1), resp.Data[0].ID)
}

func TestSearchHandler_InvalidPageFallsBack(t *testing.T) {
	store := newFakeStore()
	store.textMatches["x"] = []int64{1}
	store.addBuilding(1, "x")
	router := newTestRouter(store)

	for _, target := range []string{
		"/api/v1/buildings/search?q=x&page=abc",
		"/api/v1/buildings/search?q=x&page=-1",
		"/api/v1/buildings/search?q=x&page=0",
	} {
		rec, resp := doSearch(t, router, target)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, 1, resp.Page, target)
	}
}

func TestSearchHandler_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.textMatches["x"] = []int64{1}
	store.failDetails = true
	router := newTestRouter(store)

	rec, _ := doSearch(t, router, "/api/v1/buildings/search?q=x")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "building details")
}

func TestSearchHandler_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(newFakeStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/buildings/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
