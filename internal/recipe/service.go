package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/smoothie-scribe/internal/events"
	"github.com/noah-isme/smoothie-scribe/internal/inventory"
	"github.com/noah-isme/smoothie-scribe/internal/obs"
	"github.com/noah-isme/smoothie-scribe/internal/pricing"
)

// Catalog is the ingredient source recipes are priced against.
type Catalog interface {
	CostMap(ctx context.Context) pricing.CostMap
	Get(ctx context.Context, id string) (inventory.Ingredient, error)
}

type session struct {
	draft    Draft
	touched  time.Time
	existing bool
}

// Service owns the recipe store and the open editor sessions.
type Service struct {
	mu       sync.RWMutex
	recipes  []Recipe
	sessions map[string]*session

	catalog Catalog
	ttl     time.Duration
	now     func() time.Time
	events  events.Publisher
	metrics *obs.DomainMetrics
	logger  zerolog.Logger
	newID   func() string
}

// ServiceConfig groups Service dependencies. Catalog is required.
type ServiceConfig struct {
	Catalog    Catalog
	SessionTTL time.Duration
	Now        func() time.Time
	Events     events.Publisher
	Metrics    *obs.DomainMetrics
	Logger     *zerolog.Logger
	NewID      func() string
}

// NewService constructs an empty recipe store.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("recipe: catalog is required")
	}
	s := &Service{
		sessions: make(map[string]*session),
		catalog:  cfg.Catalog,
		ttl:      cfg.SessionTTL,
		now:      cfg.Now,
		events:   cfg.Events,
		metrics:  cfg.Metrics,
		logger:   zerolog.Nop(),
		newID:    cfg.NewID,
	}
	if s.ttl <= 0 {
		s.ttl = 30 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if cfg.Logger != nil {
		s.logger = cfg.Logger.With().Str("component", "recipe").Logger()
	}
	return s, nil
}

// Summary is a recipe card: name, line count and current total.
type Summary struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	IngredientCount int             `json:"ingredientCount"`
	Total           decimal.Decimal `json:"total"`
	TotalLabel      string          `json:"totalLabel"`
}

// LineView is a priced recipe or draft line. Warning is set when the
// ingredient no longer exists.
type LineView struct {
	Index        int             `json:"index"`
	IngredientID string          `json:"ingredientId"`
	Name         string          `json:"name,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Amount       string          `json:"amount"`
	CostPerUnit  decimal.Decimal `json:"costPerUnit"`
	LineCost     decimal.Decimal `json:"lineCost"`
	LineLabel    string          `json:"lineCostLabel"`
	Warning      string          `json:"warning,omitempty"`
}

// Detail is a committed recipe with priced lines.
type Detail struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Lines      []LineView      `json:"ingredients"`
	Total      decimal.Decimal `json:"total"`
	TotalLabel string          `json:"totalLabel"`
}

// DraftView is an open editor session with live prices.
type DraftView struct {
	SessionID  string          `json:"sessionId"`
	RecipeID   string          `json:"recipeId"`
	Name       string          `json:"name"`
	Existing   bool            `json:"existing"`
	Lines      []LineView      `json:"ingredients"`
	Total      decimal.Decimal `json:"total"`
	TotalLabel string          `json:"totalLabel"`
	ExpiresAt  time.Time       `json:"expiresAt"`
}

// List returns recipe summaries in insertion order.
func (s *Service) List(ctx context.Context) []Summary {
	costs := s.catalog.CostMap(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.recipes))
	for _, r := range s.recipes {
		total := r.Total(costs)
		out = append(out, Summary{
			ID:              r.ID,
			Name:            r.Name,
			IngredientCount: len(r.Lines),
			Total:           total,
			TotalLabel:      pricing.FormatCurrency(total),
		})
	}
	return out
}

// Get returns a copy of the recipe with the given id.
func (s *Service) Get(ctx context.Context, id string) (Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.recipes[i].clone(), nil
	}
	return Recipe{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Detail prices every line of a committed recipe.
func (s *Service) Detail(ctx context.Context, id string) (Detail, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	costs := s.catalog.CostMap(ctx)
	lines := make([]LineView, 0, len(r.Lines))
	for i, l := range r.Lines {
		lines = append(lines, s.lineView(ctx, costs, i, l.IngredientID, l.Amount.String(), l.Amount))
	}
	total := r.Total(costs)
	return Detail{ID: r.ID, Name: r.Name, Lines: lines, Total: total, TotalLabel: pricing.FormatCurrency(total)}, nil
}

// Save replaces the recipe with the same id, or appends it.
func (s *Service) Save(ctx context.Context, r Recipe) error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("recipe: id is required")
	}
	s.mu.Lock()
	s.saveLocked(r.clone())
	s.mu.Unlock()

	s.emit(ctx, events.TopicRecipeSaved, r.ID, map[string]any{"name": r.Name, "lines": len(r.Lines)})
	return nil
}

// Seed appends recipes in order. Duplicate ids reject the whole batch.
func (s *Service) Seed(ctx context.Context, recipes []Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(recipes))
	for _, r := range recipes {
		if strings.TrimSpace(r.ID) == "" {
			return errors.New("recipe: seed recipe requires an id")
		}
		if _, ok := seen[r.ID]; ok || s.indexLocked(r.ID) >= 0 {
			return fmt.Errorf("recipe: duplicate seed id %s", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	for _, r := range recipes {
		s.recipes = append(s.recipes, r.clone())
	}
	s.logger.Info().Int("count", len(recipes)).Msg("recipes seeded")
	return nil
}

// OpenDraft starts an editor session. An empty recipeID drafts a new recipe.
func (s *Service) OpenDraft(ctx context.Context, recipeID string) (string, error) {
	var (
		draft    Draft
		existing bool
	)
	if strings.TrimSpace(recipeID) == "" {
		draft = NewDraft(s.newID())
	} else {
		r, err := s.Get(ctx, recipeID)
		if err != nil {
			return "", err
		}
		draft = DraftOf(r)
		existing = true
	}

	sessionID := uuid.NewString()
	s.mu.Lock()
	s.pruneLocked()
	s.sessions[sessionID] = &session{draft: draft, touched: s.now(), existing: existing}
	open := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetOpenDrafts(open)
	s.emit(ctx, events.TopicDraftOpened, sessionID, map[string]any{"recipeId": draft.RecipeID, "existing": existing})
	return sessionID, nil
}

// Draft renders an open session with live prices.
func (s *Service) Draft(ctx context.Context, sessionID string) (DraftView, error) {
	s.mu.Lock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		s.mu.Unlock()
		return DraftView{}, err
	}
	draft := sess.draft.Clone()
	existing := sess.existing
	expires := sess.touched.Add(s.ttl)
	s.mu.Unlock()

	return s.draftView(ctx, sessionID, draft, existing, expires), nil
}

// RenameDraft sets the draft name.
func (s *Service) RenameDraft(ctx context.Context, sessionID, name string) (DraftView, error) {
	return s.mutate(ctx, sessionID, func(d *Draft) error {
		d.Rename(name)
		return nil
	})
}

// AddDraftLine adds an amount of a known ingredient to the draft.
func (s *Service) AddDraftLine(ctx context.Context, sessionID, ingredientID, amountText string) (DraftView, error) {
	return s.mutate(ctx, sessionID, func(d *Draft) error {
		if strings.TrimSpace(ingredientID) != "" {
			if _, err := s.catalog.Get(ctx, ingredientID); err != nil {
				return fmt.Errorf("%w: %s", ErrUnknownIngredient, ingredientID)
			}
		}
		return d.AddIngredient(ingredientID, amountText)
	})
}

// SetDraftAmount edits a line's amount text.
func (s *Service) SetDraftAmount(ctx context.Context, sessionID string, index int, text string) (DraftView, error) {
	return s.mutate(ctx, sessionID, func(d *Draft) error {
		return d.SetAmount(index, text)
	})
}

// RemoveDraftLine deletes a line from the draft.
func (s *Service) RemoveDraftLine(ctx context.Context, sessionID string, index int) (DraftView, error) {
	return s.mutate(ctx, sessionID, func(d *Draft) error {
		return d.RemoveLine(index)
	})
}

// CancelDraft discards the session without committing.
func (s *Service) CancelDraft(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	if _, err := s.sessionLocked(sessionID); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.sessions, sessionID)
	open := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetOpenDrafts(open)
	s.emit(ctx, events.TopicDraftDiscarded, sessionID, nil)
	return nil
}

// CommitDraft finalizes the draft and saves it. On failure nothing is
// committed and the session stays open.
func (s *Service) CommitDraft(ctx context.Context, sessionID string) (Recipe, error) {
	s.mu.Lock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		s.mu.Unlock()
		return Recipe{}, err
	}
	r, err := sess.draft.Finalize()
	if err != nil {
		sess.touched = s.now()
		s.mu.Unlock()
		s.metrics.ObserveRecipeSave(saveResult(err))
		return Recipe{}, err
	}
	s.saveLocked(r)
	delete(s.sessions, sessionID)
	open := len(s.sessions)
	s.mu.Unlock()

	s.metrics.ObserveRecipeSave("ok")
	s.metrics.SetOpenDrafts(open)
	s.emit(ctx, events.TopicRecipeSaved, r.ID, map[string]any{"name": r.Name, "lines": len(r.Lines)})
	return r.clone(), nil
}

// OpenDrafts reports the number of live sessions.
func (s *Service) OpenDrafts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.sessions)
}

func (s *Service) mutate(ctx context.Context, sessionID string, fn func(*Draft) error) (DraftView, error) {
	s.mu.Lock()
	sess, err := s.sessionLocked(sessionID)
	if err != nil {
		s.mu.Unlock()
		return DraftView{}, err
	}
	working := sess.draft.Clone()
	if err := fn(&working); err != nil {
		s.mu.Unlock()
		return DraftView{}, err
	}
	sess.draft = working
	sess.touched = s.now()
	existing := sess.existing
	expires := sess.touched.Add(s.ttl)
	s.mu.Unlock()

	return s.draftView(ctx, sessionID, working.Clone(), existing, expires), nil
}

// sessionLocked returns a live session, dropping it when expired.
func (s *Service) sessionLocked(id string) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	if s.now().Sub(sess.touched) > s.ttl {
		delete(s.sessions, id)
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return sess, nil
}

func (s *Service) pruneLocked() {
	now := s.now()
	for id, sess := range s.sessions {
		if now.Sub(sess.touched) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *Service) saveLocked(r Recipe) {
	if i := s.indexLocked(r.ID); i >= 0 {
		s.recipes[i] = r
		return
	}
	s.recipes = append(s.recipes, r)
}

func (s *Service) indexLocked(id string) int {
	for i, r := range s.recipes {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) draftView(ctx context.Context, sessionID string, d Draft, existing bool, expires time.Time) DraftView {
	costs := s.catalog.CostMap(ctx)
	lines := make([]LineView, 0, len(d.Lines))
	for i, l := range d.Lines {
		lines = append(lines, s.lineView(ctx, costs, i, l.IngredientID, l.Amount, lenientAmount(l.Amount)))
	}
	total := d.Total(costs)
	return DraftView{
		SessionID:  sessionID,
		RecipeID:   d.RecipeID,
		Name:       d.Name,
		Existing:   existing,
		Lines:      lines,
		Total:      total,
		TotalLabel: pricing.FormatCurrency(total),
		ExpiresAt:  expires,
	}
}

func (s *Service) lineView(ctx context.Context, costs pricing.CostMap, index int, ingredientID, text string, amount decimal.Decimal) LineView {
	view := LineView{Index: index, IngredientID: ingredientID, Amount: text}
	ing, err := s.catalog.Get(ctx, ingredientID)
	if err != nil {
		view.Warning = fmt.Sprintf("Ingredient data missing (ID: %s)", ingredientID)
		view.LineLabel = pricing.FormatCurrency(decimal.Zero)
		return view
	}
	cpu := costs.Lookup(ingredientID)
	view.Name = ing.Name
	view.Unit = string(ing.Unit)
	view.CostPerUnit = cpu
	view.LineCost = pricing.LineCost(cpu, amount)
	view.LineLabel = pricing.FormatCurrency(view.LineCost)
	return view
}

func (s *Service) emit(ctx context.Context, topic, id string, payload any) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Emit(ctx, topic, id, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Str("aggregate_id", id).Msg("emit event")
	}
}

func saveResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNameRequired):
		return "name_required"
	default:
		return "no_valid_lines"
	}
}
