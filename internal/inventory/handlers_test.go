package inventory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smoothie-scribe/internal/inventory"
)

type errorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newRouter(t *testing.T) (*inventory.Service, http.Handler) {
	t.Helper()
	svc := seededService(t, inventory.ServiceConfig{NewID: sequentialIDs()})
	h := inventory.NewHandler(inventory.HandlerConfig{Service: svc})
	r := chi.NewRouter()
	r.Get("/ingredients", h.List)
	r.Post("/ingredients", h.Create)
	r.Get("/ingredients/{id}", h.Get)
	r.Patch("/ingredients/{id}", h.Update)
	r.Get("/costs", h.Costs)
	return svc, r
}

func TestIngredientHandlers(t *testing.T) {
	svc, router := newRouter(t)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ingredients", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data []inventory.IngredientView `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Data, 2)
		require.Equal(t, "Beets", body.Data[0].Name)
		require.Equal(t, "$0.0060 / g", body.Data[0].CostPerUnitLabel)
	})

	t.Run("create", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/ingredients", strings.NewReader(`{"name":"Kale","purchaseCost":"6.5","purchaseUnit":"400","unit":"g"}`))
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		_, err := svc.Get(context.Background(), "new-1")
		require.NoError(t, err)
	})

	t.Run("create duplicate", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/ingredients", strings.NewReader(`{"name":"KALE","purchaseCost":"1","purchaseUnit":"1"}`))
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusConflict, rec.Code)
		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, `Ingredient "KALE" already exists. Please update the existing entry.`, body.Error.Message)
	})

	t.Run("create validation", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/ingredients", strings.NewReader(`{"name":"","purchaseCost":"1","purchaseUnit":"1","unit":"oz"}`))
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "required", body.Error.Details["name"])
		require.Equal(t, "oneof=g ml", body.Error.Details["unit"])
	})

	t.Run("patch accepted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/ingredients/i1", strings.NewReader(`{"field":"purchaseUnit","value":"0"}`))
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data inventory.IngredientView `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "$0.0000 / g", body.Data.CostPerUnitLabel)
	})

	t.Run("patch rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/ingredients/i1", strings.NewReader(`{"field":"purchaseCost","value":"1.2.3"}`))
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "REJECTED_INPUT", body.Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ingredients/nope", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("costs", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/costs", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "0.0045", body.Data["i14"])
		require.Equal(t, "0", body.Data["i1"])
	})
}
