package recipe

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/smoothie-scribe/internal/common"
)

// Handler exposes recipe and draft JSON endpoints.
type Handler struct {
	service      *Service
	defaultLimit int
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service      *Service
	DefaultLimit int
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = 20
	}
	return &Handler{service: cfg.Service, defaultLimit: limit}
}

type openDraftRequest struct {
	RecipeID string `json:"recipeId"`
}

type renameRequest struct {
	Name *string `json:"name" validate:"required"`
}

type addLineRequest struct {
	IngredientID string `json:"ingredientId" validate:"required"`
	Amount       string `json:"amount" validate:"required"`
}

type setAmountRequest struct {
	Amount *string `json:"amount" validate:"required"`
}

// List handles GET /api/v1/recipes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	page, perPage := common.ParsePagination(r, h.defaultLimit)
	all := h.service.List(r.Context())
	start, end := common.Window(len(all), page, perPage)
	w.Header().Set("X-Total-Count", strconv.Itoa(len(all)))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       all[start:end],
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(all)},
	})
}

// Get handles GET /api/v1/recipes/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	detail, err := h.service.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, detail)
}

// OpenDraft handles POST /api/v1/drafts.
func (h *Handler) OpenDraft(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req openDraftRequest
	if r.ContentLength != 0 {
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(w, err)
			return
		}
	}
	sessionID, err := h.service.OpenDraft(r.Context(), req.RecipeID)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	view, err := h.service.Draft(r.Context(), sessionID)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusCreated, view)
}

// Draft handles GET /api/v1/drafts/{id}.
func (h *Handler) Draft(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	view, err := h.service.Draft(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, view, err)
}

// Rename handles PATCH /api/v1/drafts/{id}.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req renameRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.service.RenameDraft(r.Context(), chi.URLParam(r, "id"), *req.Name)
	h.respond(w, view, err)
}

// AddLine handles POST /api/v1/drafts/{id}/lines.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req addLineRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.service.AddDraftLine(r.Context(), chi.URLParam(r, "id"), req.IngredientID, req.Amount)
	h.respond(w, view, err)
}

// SetAmount handles PATCH /api/v1/drafts/{id}/lines/{index}.
func (h *Handler) SetAmount(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	var req setAmountRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.service.SetDraftAmount(r.Context(), chi.URLParam(r, "id"), index, *req.Amount)
	h.respond(w, view, err)
}

// RemoveLine handles DELETE /api/v1/drafts/{id}/lines/{index}.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	index, ok := lineIndex(w, r)
	if !ok {
		return
	}
	view, err := h.service.RemoveDraftLine(r.Context(), chi.URLParam(r, "id"), index)
	h.respond(w, view, err)
}

// Save handles POST /api/v1/drafts/{id}/save.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	saved, err := h.service.CommitDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	detail, err := h.service.Detail(r.Context(), saved.ID)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, detail)
}

// Cancel handles DELETE /api/v1/drafts/{id}.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.service.CancelDraft(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "recipe service not configured", nil)
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, view DraftView, err error) {
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, view)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := common.DecodeJSON(r, dst); err != nil {
		common.WriteError(w, err)
		return false
	}
	if err := common.ValidateStruct(dst); err != nil {
		common.WriteError(w, err)
		return false
	}
	return true
}

func lineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		common.WriteError(w, common.BadRequest("invalid line index", err))
		return 0, false
	}
	return index, true
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NotFound("recipe not found", err)
	case errors.Is(err, ErrDraftNotFound):
		return common.NotFound("draft session not found or expired", err)
	case errors.Is(err, ErrLineNotFound):
		return common.NotFound("draft line not found", err)
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrNoValidLines),
		errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrUnknownIngredient):
		return common.Unprocessable(Notice(err), err)
	case errors.Is(err, ErrRejectedInput):
		return common.Rejected("amount must be a whole number", err)
	default:
		return err
	}
}
