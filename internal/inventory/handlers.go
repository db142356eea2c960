package inventory

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/smoothie-scribe/internal/common"
	"github.com/noah-isme/smoothie-scribe/internal/pricing"
)

// Handler exposes the ingredient JSON endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// IngredientView is an ingredient with its derived cost.
type IngredientView struct {
	Ingredient
	CostPerUnit      decimal.Decimal `json:"costPerUnit"`
	CostPerUnitLabel string          `json:"costPerUnitLabel"`
}

// View decorates an ingredient with its derived cost per unit.
func View(item Ingredient, cpu decimal.Decimal) IngredientView {
	return IngredientView{
		Ingredient:       item,
		CostPerUnit:      cpu,
		CostPerUnitLabel: pricing.FormatCostPerUnit(cpu, string(item.Unit)),
	}
}

type editRequest struct {
	Field Field  `json:"field" validate:"required,oneof=purchaseCost purchaseUnit"`
	Value string `json:"value"`
}

// List handles GET /api/v1/ingredients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "inventory service not configured", nil)
		return
	}
	costs := h.service.CostMap(r.Context())
	items := h.service.List(r.Context())
	out := make([]IngredientView, 0, len(items))
	for _, item := range items {
		out = append(out, View(item, costs.Lookup(item.ID)))
	}
	common.Data(w, http.StatusOK, out)
}

// Get handles GET /api/v1/ingredients/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "inventory service not configured", nil)
		return
	}
	item, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, View(item, item.CostPerUnit()))
}

// Create handles POST /api/v1/ingredients.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "inventory service not configured", nil)
		return
	}
	var req NewIngredient
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := h.service.Add(r.Context(), req)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusCreated, View(item, item.CostPerUnit()))
}

// Update handles PATCH /api/v1/ingredients/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "inventory service not configured", nil)
		return
	}
	var req editRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := h.service.Edit(r.Context(), chi.URLParam(r, "id"), req.Field, req.Value)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, View(item, item.CostPerUnit()))
}

// Costs handles GET /api/v1/costs.
func (h *Handler) Costs(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "inventory service not configured", nil)
		return
	}
	common.Data(w, http.StatusOK, h.service.CostMap(r.Context()))
}

func toAppError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return common.NotFound("ingredient not found", err)
	case errors.Is(err, ErrDuplicateName):
		return common.Conflict(Notice(err), err)
	case errors.Is(err, ErrInvalidInput):
		return common.Unprocessable(Notice(err), err)
	case errors.Is(err, ErrRejectedInput):
		return common.Rejected("value does not match the field format", err)
	case errors.Is(err, ErrUnknownField):
		return common.BadRequest("unknown field", err)
	default:
		return err
	}
}
