package events_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smoothie-scribe/internal/events"
)

func TestRecentHandlerFiltersAndLimits(t *testing.T) {
	bus := events.NewBus(10)
	ctx := context.Background()
	for _, id := range []string{"i1", "i2", "i3"} {
		_, err := bus.Emit(ctx, events.TopicIngredientUpdated, id, nil)
		require.NoError(t, err)
	}
	_, err := bus.Emit(ctx, events.TopicRecipeSaved, "r1", map[string]string{"name": "Berry Basic"})
	require.NoError(t, err)

	h := events.Handler{Bus: bus}
	rr := httptest.NewRecorder()
	h.Recent(rr, httptest.NewRequest(http.MethodGet, "/api/v1/events?topic=ingredient.updated&limit=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data []events.Event `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, "i3", body.Data[0].AggregateID)
	require.Equal(t, "i2", body.Data[1].AggregateID)
}

func TestRecentHandlerRejectsBadQuery(t *testing.T) {
	h := events.Handler{Bus: events.NewBus(1)}
	for _, query := range []string{"?limit=0", "?limit=x", "?topic=order.paid"} {
		rr := httptest.NewRecorder()
		h.Recent(rr, httptest.NewRequest(http.MethodGet, "/api/v1/events"+query, nil))
		require.Equal(t, http.StatusBadRequest, rr.Code, query)
	}
}
