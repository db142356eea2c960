package obs

import "github.com/prometheus/client_golang/prometheus"

// DomainMetrics groups collectors describing ingredient and recipe activity.
type DomainMetrics struct {
	// IngredientMutations counts add/edit attempts by outcome.
	IngredientMutations *prometheus.CounterVec
	// RecipeSaves counts draft commits by outcome.
	RecipeSaves *prometheus.CounterVec
	// OpenDrafts tracks live editor sessions.
	OpenDrafts prometheus.Gauge
	// DomainEvents counts emitted domain events per topic.
	DomainEvents *prometheus.CounterVec
	// CostRecompute records cost map recomputation latency in milliseconds.
	CostRecompute prometheus.Histogram
}

// NewDomainMetrics creates and registers the domain collectors. Collectors that are
// already registered on reg are reused.
func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	return &DomainMetrics{
		IngredientMutations: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingredient_mutations_total",
			Help:      "Count of ingredient add and edit attempts by outcome.",
		}, []string{"operation", "result"})),
		RecipeSaves: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipe_saves_total",
			Help:      "Count of recipe draft commits by outcome.",
		}, []string{"result"})),
		OpenDrafts: registerOrReuse(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recipe_open_drafts",
			Help:      "Current number of open recipe editor sessions.",
		})),
		DomainEvents: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domain_events_total",
			Help:      "Count of emitted domain events by topic.",
		}, []string{"topic"})),
		CostRecompute: registerOrReuse(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cost_map_recompute_duration_ms",
			Help:      "Latency of cost map recomputation in milliseconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		})),
	}
}

// ObserveIngredient records an ingredient mutation outcome. Safe on a nil receiver.
func (m *DomainMetrics) ObserveIngredient(operation, result string) {
	if m == nil {
		return
	}
	m.IngredientMutations.WithLabelValues(operation, result).Inc()
}

// ObserveRecipeSave records a draft commit outcome. Safe on a nil receiver.
func (m *DomainMetrics) ObserveRecipeSave(result string) {
	if m == nil {
		return
	}
	m.RecipeSaves.WithLabelValues(result).Inc()
}

// SetOpenDrafts publishes the number of live editor sessions. Safe on a nil receiver.
func (m *DomainMetrics) SetOpenDrafts(n int) {
	if m == nil {
		return
	}
	m.OpenDrafts.Set(float64(n))
}

// ObserveEvent counts an emitted domain event. Safe on a nil receiver.
func (m *DomainMetrics) ObserveEvent(topic string) {
	if m == nil {
		return
	}
	m.DomainEvents.WithLabelValues(topic).Inc()
}

// ObserveRecompute records a cost map recomputation in milliseconds. Safe on a nil receiver.
func (m *DomainMetrics) ObserveRecompute(ms float64) {
	if m == nil {
		return
	}
	m.CostRecompute.Observe(ms)
}
