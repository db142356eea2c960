package events

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/noah-isme/smoothie-scribe/internal/common"
)

// Handler serves the recent-activity feed kept by a Bus.
type Handler struct {
	Bus *Bus
}

// Recent handles GET /api/v1/events?limit=&topic=. Events are newest first.
func (h Handler) Recent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 20
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			common.WriteError(w, common.BadRequest("limit must be a positive integer", err))
			return
		}
		limit = min(n, common.MaxPerPage)
	}
	topic := q.Get("topic")
	if topic != "" && !slices.Contains(DefaultTopics(), topic) {
		common.WriteError(w, common.BadRequest("unknown topic", nil).WithDetails(map[string]any{"topics": DefaultTopics()}))
		return
	}

	out := make([]Event, 0, limit)
	for _, ev := range h.Bus.Recent(0) {
		if topic != "" && ev.Topic != topic {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	common.Data(w, http.StatusOK, out)
}
