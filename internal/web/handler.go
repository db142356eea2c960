package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/smoothie-scribe/internal/inventory"
	"github.com/noah-isme/smoothie-scribe/internal/recipe"
	"github.com/noah-isme/smoothie-scribe/internal/security"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the server-rendered inventory and recipe editor pages.
type Handler struct {
	inventory *inventory.Service
	recipes   *recipe.Service
	csrfField string
	logger    zerolog.Logger
	index     *template.Template
	editor    *template.Template
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Inventory *inventory.Service
	Recipes   *recipe.Service
	CSRFField string
	Logger    *zerolog.Logger
}

// NewHandler parses the embedded templates and constructs a Handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Inventory == nil || cfg.Recipes == nil {
		return nil, errors.New("web: inventory and recipe services are required")
	}
	index, err := template.ParseFS(templateFS, "templates/layout.html", "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	editor, err := template.ParseFS(templateFS, "templates/layout.html", "templates/editor.html")
	if err != nil {
		return nil, fmt.Errorf("parse editor template: %w", err)
	}
	h := &Handler{
		inventory: cfg.Inventory,
		recipes:   cfg.Recipes,
		csrfField: cfg.CSRFField,
		logger:    zerolog.Nop(),
		index:     index,
		editor:    editor,
	}
	if h.csrfField == "" {
		h.csrfField = security.CSRF{}.FieldName()
	}
	if cfg.Logger != nil {
		h.logger = cfg.Logger.With().Str("component", "web").Logger()
	}
	return h, nil
}

// Register mounts the page routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/ingredients", h.AddIngredient)
	r.Post("/ingredients/{id}", h.EditIngredient)
	r.Post("/recipes/new", h.NewRecipe)
	r.Post("/recipes/{id}/edit", h.EditRecipe)
	r.Route("/editor/{session}", func(r chi.Router) {
		r.Get("/", h.Editor)
		r.Post("/name", h.Rename)
		r.Post("/lines", h.AddLine)
		r.Post("/lines/{index}", h.SetAmount)
		r.Post("/lines/{index}/remove", h.RemoveLine)
		r.Post("/save", h.Save)
		r.Post("/cancel", h.Cancel)
	})
}

type page struct {
	CSRFField string
	CSRFToken string
	Notice    string
}

type indexPage struct {
	page
	Ingredients []inventory.IngredientView
	Recipes     []recipe.Summary
	Units       []inventory.Unit
	Form        inventory.NewIngredient
}

type addLineForm struct {
	IngredientID string
	Amount       string
}

type editorPage struct {
	page
	Draft       recipe.DraftView
	Ingredients []inventory.Ingredient
	AddForm     addLineForm
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, http.StatusOK, "", inventory.NewIngredient{Unit: inventory.UnitGram})
}

// AddIngredient handles POST /ingredients.
func (h *Handler) AddIngredient(w http.ResponseWriter, r *http.Request) {
	in := inventory.NewIngredient{
		Name:         r.PostFormValue("name"),
		PurchaseCost: r.PostFormValue("purchaseCost"),
		PurchaseUnit: r.PostFormValue("purchaseUnit"),
		Unit:         inventory.Unit(r.PostFormValue("unit")),
	}
	item, err := h.inventory.Add(r.Context(), in)
	if err != nil {
		if notice := inventory.Notice(err); notice != "" {
			h.renderIndex(w, r, http.StatusUnprocessableEntity, notice, in)
			return
		}
		h.fail(w, r, err)
		return
	}
	redirect(w, r, "/#ingredient-"+item.ID)
}

// EditIngredient handles POST /ingredients/{id}. Values that do not match the
// field's pattern are dropped and the page is shown unchanged.
func (h *Handler) EditIngredient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	field := inventory.Field(r.PostFormValue("field"))
	_, err := h.inventory.Edit(r.Context(), id, field, r.PostFormValue("value"))
	switch {
	case err == nil, errors.Is(err, inventory.ErrRejectedInput), errors.Is(err, inventory.ErrUnknownField):
		redirect(w, r, "/#ingredient-"+id)
	case errors.Is(err, inventory.ErrNotFound):
		http.NotFound(w, r)
	default:
		h.fail(w, r, err)
	}
}

// NewRecipe handles POST /recipes/new.
func (h *Handler) NewRecipe(w http.ResponseWriter, r *http.Request) {
	h.open(w, r, "")
}

// EditRecipe handles POST /recipes/{id}/edit.
func (h *Handler) EditRecipe(w http.ResponseWriter, r *http.Request) {
	h.open(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request, recipeID string) {
	sid, err := h.recipes.OpenDraft(r.Context(), recipeID)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.fail(w, r, err)
		return
	}
	redirect(w, r, editorPath(sid))
}

// Editor handles GET /editor/{session}.
func (h *Handler) Editor(w http.ResponseWriter, r *http.Request) {
	view, err := h.recipes.Draft(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		h.draftError(w, r, err)
		return
	}
	h.renderEditor(w, r, http.StatusOK, "", view, addLineForm{})
}

// Rename handles POST /editor/{session}/name.
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "session")
	if _, err := h.recipes.RenameDraft(r.Context(), sid, r.PostFormValue("name")); err != nil {
		h.draftError(w, r, err)
		return
	}
	redirect(w, r, editorPath(sid))
}

// AddLine handles POST /editor/{session}/lines.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "session")
	form := addLineForm{IngredientID: r.PostFormValue("ingredientId"), Amount: r.PostFormValue("amount")}
	if _, err := h.recipes.AddDraftLine(r.Context(), sid, form.IngredientID, form.Amount); err != nil {
		h.editorNotice(w, r, sid, err, form)
		return
	}
	redirect(w, r, editorPath(sid))
}

// SetAmount handles POST /editor/{session}/lines/{index}. Non-integer amounts
// are dropped.
func (h *Handler) SetAmount(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "session")
	index, ok := lineIndex(r)
	if ok {
		_, err := h.recipes.SetDraftAmount(r.Context(), sid, index, r.PostFormValue("amount"))
		if err != nil && !errors.Is(err, recipe.ErrRejectedInput) && !errors.Is(err, recipe.ErrLineNotFound) {
			h.draftError(w, r, err)
			return
		}
	}
	redirect(w, r, editorPath(sid))
}

// RemoveLine handles POST /editor/{session}/lines/{index}/remove.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "session")
	index, ok := lineIndex(r)
	if ok {
		_, err := h.recipes.RemoveDraftLine(r.Context(), sid, index)
		if err != nil && !errors.Is(err, recipe.ErrLineNotFound) {
			h.draftError(w, r, err)
			return
		}
	}
	redirect(w, r, editorPath(sid))
}

// Save handles POST /editor/{session}/save. A submitted name is applied before
// the draft is committed.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "session")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if _, ok := r.PostForm["name"]; ok {
		if _, err := h.recipes.RenameDraft(r.Context(), sid, r.PostForm.Get("name")); err != nil {
			h.draftError(w, r, err)
			return
		}
	}
	if _, err := h.recipes.CommitDraft(r.Context(), sid); err != nil {
		h.editorNotice(w, r, sid, err, addLineForm{})
		return
	}
	redirect(w, r, "/")
}

// Cancel handles POST /editor/{session}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.recipes.CancelDraft(r.Context(), chi.URLParam(r, "session")); err != nil && !errors.Is(err, recipe.ErrDraftNotFound) {
		h.fail(w, r, err)
		return
	}
	redirect(w, r, "/")
}

func (h *Handler) editorNotice(w http.ResponseWriter, r *http.Request, sid string, err error, form addLineForm) {
	notice := recipe.Notice(err)
	if notice == "" {
		h.draftError(w, r, err)
		return
	}
	view, derr := h.recipes.Draft(r.Context(), sid)
	if derr != nil {
		h.draftError(w, r, derr)
		return
	}
	h.renderEditor(w, r, http.StatusUnprocessableEntity, notice, view, form)
}

func (h *Handler) draftError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, recipe.ErrDraftNotFound) {
		http.Error(w, "editor session not found or expired", http.StatusNotFound)
		return
	}
	h.fail(w, r, err)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("page request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) renderIndex(w http.ResponseWriter, r *http.Request, status int, notice string, form inventory.NewIngredient) {
	ctx := r.Context()
	costs := h.inventory.CostMap(ctx)
	items := h.inventory.List(ctx)
	views := make([]inventory.IngredientView, 0, len(items))
	for _, item := range items {
		views = append(views, inventory.View(item, costs.Lookup(item.ID)))
	}
	if form.Unit == "" {
		form.Unit = inventory.UnitGram
	}
	h.render(w, r, h.index, status, indexPage{
		page:        h.page(r, notice),
		Ingredients: views,
		Recipes:     h.recipes.List(ctx),
		Units:       []inventory.Unit{inventory.UnitGram, inventory.UnitMilliliter},
		Form:        form,
	})
}

func (h *Handler) renderEditor(w http.ResponseWriter, r *http.Request, status int, notice string, view recipe.DraftView, form addLineForm) {
	h.render(w, r, h.editor, status, editorPage{
		page:        h.page(r, notice),
		Draft:       view,
		Ingredients: h.inventory.List(r.Context()),
		AddForm:     form,
	})
}

func (h *Handler) page(r *http.Request, notice string) page {
	return page{CSRFField: h.csrfField, CSRFToken: security.CSRFToken(r.Context()), Notice: notice}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, t *template.Template, status int, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func editorPath(sid string) string {
	return "/editor/" + sid
}

func lineIndex(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
