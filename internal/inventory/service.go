package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/smoothie-scribe/internal/events"
	"github.com/noah-isme/smoothie-scribe/internal/obs"
	"github.com/noah-isme/smoothie-scribe/internal/pricing"
)

// Service owns the ingredient store and the derived cost map.
type Service struct {
	mu      sync.RWMutex
	items   map[string]Ingredient
	costs   pricing.CostMap
	version uint64

	events  events.Publisher
	metrics *obs.DomainMetrics
	logger  zerolog.Logger
	newID   func() string
}

// ServiceConfig groups Service dependencies. Every field is optional.
type ServiceConfig struct {
	Events  events.Publisher
	Metrics *obs.DomainMetrics
	Logger  *zerolog.Logger
	NewID   func() string
}

// NewService constructs an empty ingredient store.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		items:   make(map[string]Ingredient),
		costs:   pricing.CostMap{},
		events:  cfg.Events,
		metrics: cfg.Metrics,
		logger:  zerolog.Nop(),
		newID:   cfg.NewID,
	}
	if cfg.Logger != nil {
		s.logger = cfg.Logger.With().Str("component", "inventory").Logger()
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// List returns every ingredient sorted by name, case-insensitively.
func (s *Service) List(ctx context.Context) []Ingredient {
	s.mu.RLock()
	out := make([]Ingredient, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get returns the ingredient with the given id.
func (s *Service) Get(ctx context.Context, id string) (Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return Ingredient{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item, nil
}

// CostMap returns a copy of the current derived cost map.
func (s *Service) CostMap(ctx context.Context) pricing.CostMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.costs.Clone()
}

// CostPerUnit returns the derived cost per unit of one ingredient.
func (s *Service) CostPerUnit(ctx context.Context, id string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.items[id]; !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.costs.Lookup(id), nil
}

// Version increases by one on every accepted mutation.
func (s *Service) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Edit applies a keystroke-level change to the cost or quantity text. Text that
// does not match the field's pattern is rejected and the store is left unchanged.
func (s *Service) Edit(ctx context.Context, id string, field Field, value string) (Ingredient, error) {
	accepted, err := acceptEdit(field, value)
	if err != nil {
		s.metrics.ObserveIngredient("edit", resultLabel(err))
		return Ingredient{}, err
	}

	s.mu.Lock()
	item, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		s.metrics.ObserveIngredient("edit", "not_found")
		return Ingredient{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	switch field {
	case FieldPurchaseCost:
		item.PurchaseCost = accepted
	case FieldPurchaseUnit:
		item.PurchaseUnit = accepted
	}
	s.items[id] = item
	s.recomputeLocked()
	s.mu.Unlock()

	s.metrics.ObserveIngredient("edit", "ok")
	s.emit(ctx, events.TopicIngredientUpdated, id, map[string]any{
		"field": field,
		"value": accepted,
	})
	return item, nil
}

// Add validates and stores a new ingredient. Cost is normalised to two decimals.
func (s *Service) Add(ctx context.Context, in NewIngredient) (Ingredient, error) {
	item, err := s.normalise(in)
	if err != nil {
		s.metrics.ObserveIngredient("add", resultLabel(err))
		return Ingredient{}, err
	}

	s.mu.Lock()
	if s.nameTakenLocked(item.Name) {
		s.mu.Unlock()
		s.metrics.ObserveIngredient("add", "duplicate")
		return Ingredient{}, &DuplicateNameError{Name: item.Name}
	}
	item.ID = s.newID()
	s.items[item.ID] = item
	s.recomputeLocked()
	s.mu.Unlock()

	s.metrics.ObserveIngredient("add", "ok")
	s.emit(ctx, events.TopicIngredientAdded, item.ID, item)
	return item, nil
}

// Seed bulk loads ingredients. The batch is rejected as a whole when an id is
// missing or repeated, or when a name collides with an existing one.
func (s *Service) Seed(ctx context.Context, items []Ingredient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]struct{}, len(items))
	names := make(map[string]struct{}, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("%w: seed ingredient requires id and name", ErrInvalidInput)
		}
		if item.Unit != "" && !item.Unit.Valid() {
			return fmt.Errorf("%w: unit %q", ErrInvalidInput, item.Unit)
		}
		if _, ok := s.items[item.ID]; ok {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidInput, item.ID)
		}
		if _, ok := ids[item.ID]; ok {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidInput, item.ID)
		}
		key := strings.ToLower(strings.TrimSpace(item.Name))
		if _, ok := names[key]; ok || s.nameTakenLocked(item.Name) {
			return &DuplicateNameError{Name: strings.TrimSpace(item.Name)}
		}
		ids[item.ID] = struct{}{}
		names[key] = struct{}{}
	}
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Unit == "" {
			item.Unit = UnitGram
		}
		s.items[item.ID] = item
	}
	s.recomputeLocked()
	s.logger.Info().Int("count", len(items)).Msg("ingredients seeded")
	return nil
}

func (s *Service) normalise(in NewIngredient) (Ingredient, error) {
	name := strings.TrimSpace(in.Name)
	cost, okCost := pricing.ParseAmount(in.PurchaseCost)
	qty, okQty := pricing.ParseAmount(in.PurchaseUnit)
	if name == "" || !okCost || !okQty || !cost.IsPositive() || !qty.IsPositive() {
		return Ingredient{}, ErrInvalidInput
	}
	unit := in.Unit
	if unit == "" {
		unit = UnitGram
	}
	if !unit.Valid() {
		return Ingredient{}, fmt.Errorf("%w: unit %q", ErrInvalidInput, unit)
	}
	return Ingredient{
		Name:         name,
		PurchaseCost: cost.StringFixed(2),
		PurchaseUnit: qty.String(),
		Unit:         unit,
	}, nil
}

func (s *Service) nameTakenLocked(name string) bool {
	name = strings.TrimSpace(name)
	for _, item := range s.items {
		if strings.EqualFold(item.Name, name) {
			return true
		}
	}
	return false
}

// recomputeLocked rebuilds the whole cost map. Callers hold the write lock.
func (s *Service) recomputeLocked() {
	start := time.Now()
	costs := make(pricing.CostMap, len(s.items))
	for id, item := range s.items {
		costs[id] = item.CostPerUnit()
	}
	s.costs = costs
	s.version++
	s.metrics.ObserveRecompute(obs.DurationMillis(time.Since(start)))
}

func (s *Service) emit(ctx context.Context, topic, id string, payload any) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Emit(ctx, topic, id, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Str("ingredient_id", id).Msg("emit event")
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrRejectedInput):
		return "rejected"
	case errors.Is(err, ErrUnknownField):
		return "unknown_field"
	case errors.Is(err, ErrDuplicateName):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "invalid"
	}
}
