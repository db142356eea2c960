package recipe_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smoothie-scribe/internal/recipe"
)

type draftResponse struct {
	Data recipe.DraftView `json:"data"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRecipeRouter(t *testing.T) http.Handler {
	t.Helper()
	f := newFixture(t)
	h := recipe.NewHandler(recipe.HandlerConfig{Service: f.recipes})
	r := chi.NewRouter()
	r.Get("/recipes", h.List)
	r.Get("/recipes/{id}", h.Get)
	r.Post("/drafts", h.OpenDraft)
	r.Get("/drafts/{id}", h.Draft)
	r.Patch("/drafts/{id}", h.Rename)
	r.Delete("/drafts/{id}", h.Cancel)
	r.Post("/drafts/{id}/lines", h.AddLine)
	r.Patch("/drafts/{id}/lines/{index}", h.SetAmount)
	r.Delete("/drafts/{id}/lines/{index}", h.RemoveLine)
	r.Post("/drafts/{id}/save", h.Save)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRecipeListPagination(t *testing.T) {
	router := newRecipeRouter(t)
	rec := do(t, router, http.MethodGet, "/recipes?page=1&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	var body struct {
		Data       []recipe.Summary `json:"data"`
		Pagination struct {
			Page       int `json:"page"`
			PerPage    int `json:"per_page"`
			TotalItems int `json:"total_items"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "$1.50", body.Data[0].TotalLabel)
	require.Equal(t, 5, body.Pagination.PerPage)

	rec = do(t, router, http.MethodGet, "/recipes?page=3", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Empty(t, body.Data)
}

func TestDraftLifecycleOverHTTP(t *testing.T) {
	router := newRecipeRouter(t)

	rec := do(t, router, http.MethodPost, "/drafts", `{"recipeId":""}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var opened draftResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	sid := opened.Data.SessionID
	require.NotEmpty(t, sid)
	require.False(t, opened.Data.Existing)

	rec = do(t, router, http.MethodPost, "/drafts/"+sid+"/save", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var failure apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failure))
	require.Equal(t, "Recipe must have a name.", failure.Error.Message)

	rec = do(t, router, http.MethodPatch, "/drafts/"+sid, `{"name":"Morning"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/drafts/"+sid+"/lines", `{"ingredientId":"i1","amount":"100"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodPost, "/drafts/"+sid+"/lines", `{"ingredientId":"i1","amount":"50"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var view draftResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Data.Lines, 1)
	require.Equal(t, "150", view.Data.Lines[0].Amount)
	require.Equal(t, "$0.90", view.Data.TotalLabel)

	rec = do(t, router, http.MethodPatch, "/drafts/"+sid+"/lines/0", `{"amount":"1.5"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failure))
	require.Equal(t, "REJECTED_INPUT", failure.Error.Code)

	rec = do(t, router, http.MethodPatch, "/drafts/"+sid+"/lines/0", `{"amount":"200"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPatch, "/drafts/"+sid+"/lines/x", `{"amount":"200"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/drafts/"+sid+"/save", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var saved struct {
		Data recipe.Detail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	require.Equal(t, "Morning", saved.Data.Name)
	require.Equal(t, "$1.20", saved.Data.TotalLabel)

	rec = do(t, router, http.MethodGet, "/drafts/"+sid, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDraftCancelAndRemoveOverHTTP(t *testing.T) {
	router := newRecipeRouter(t)

	rec := do(t, router, http.MethodPost, "/drafts", `{"recipeId":"r1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var opened draftResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opened))
	sid := opened.Data.SessionID
	require.True(t, opened.Data.Existing)
	require.Len(t, opened.Data.Lines, 2)

	rec = do(t, router, http.MethodDelete, "/drafts/"+sid+"/lines/5", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, router, http.MethodDelete, "/drafts/"+sid+"/lines/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodDelete, "/drafts/"+sid, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/recipes/r1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Data recipe.Detail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Len(t, detail.Data.Lines, 2)
}

func TestOpenDraftUnknownRecipeOverHTTP(t *testing.T) {
	router := newRecipeRouter(t)
	rec := do(t, router, http.MethodPost, "/drafts", `{"recipeId":"zzz"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
