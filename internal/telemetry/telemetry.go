package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestEvent records one orchestrated request from plan to answer.
type RequestEvent struct {
	RequestID string
	Query     string
	Steps     int
	Success   bool
	Duration  time.Duration
	Timestamp time.Time
}

// StepEvent records a single executed plan step.
type StepEvent struct {
	RequestID  string
	Index      int
	Assistant  string
	SourceType string
	Success    bool
	Duration   time.Duration
}

// Metrics aggregates in-process counters and mirrors them to Prometheus.
type Metrics struct {
	mu       sync.RWMutex
	requests []RequestEvent
	steps    []StepEvent

	requestsTotal  *prometheus.CounterVec
	stepsTotal     *prometheus.CounterVec
	retrievalTier  *prometheus.CounterVec
	requestSeconds prometheus.Histogram
	llmCostDollars prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "askdocs_requests_total",
			Help: "Orchestrated requests by outcome.",
		}, []string{"outcome"}),
		stepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "askdocs_steps_total",
			Help: "Executed plan steps by assistant and outcome.",
		}, []string{"assistant", "outcome"}),
		retrievalTier: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "askdocs_retrieval_tier_total",
			Help: "Context selections by source tier.",
		}, []string{"tier"}),
		requestSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "askdocs_request_duration_seconds",
			Help:    "End to end request latency.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		llmCostDollars: factory.NewCounter(prometheus.CounterOpts{
			Name: "askdocs_llm_cost_dollars_total",
			Help: "Estimated cumulative LLM spend.",
		}),
	}
}

func (m *Metrics) RecordRequest(ev RequestEvent) {
	m.mu.Lock()
	m.requests = append(m.requests, ev)
	m.mu.Unlock()

	outcome := "success"
	if !ev.Success {
		outcome = "failure"
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
	m.requestSeconds.Observe(ev.Duration.Seconds())
}

func (m *Metrics) RecordStep(ev StepEvent) {
	m.mu.Lock()
	m.steps = append(m.steps, ev)
	m.mu.Unlock()

	outcome := "success"
	if !ev.Success {
		outcome = "failure"
	}
	m.stepsTotal.WithLabelValues(ev.Assistant, outcome).Inc()
}

func (m *Metrics) RecordRetrievalTier(tier string) {
	m.retrievalTier.WithLabelValues(tier).Inc()
}

func (m *Metrics) RecordCost(dollars float64) {
	if dollars > 0 {
		m.llmCostDollars.Add(dollars)
	}
}

func (m *Metrics) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

func (m *Metrics) StepCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.steps)
}

// CostTracker accumulates token usage per model.
type CostTracker struct {
	mu      sync.RWMutex
	byModel map[string]*ModelUsage
}

type ModelUsage struct {
	PromptTokens     int64
	CompletionTokens int64
	Cost             float64
	Calls            int64
}

func NewCostTracker() *CostTracker {
	return &CostTracker{byModel: make(map[string]*ModelUsage)}
}

func (c *CostTracker) Add(model string, promptTokens, completionTokens int64, cost float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.byModel[model]
	if !ok {
		u = &ModelUsage{}
		c.byModel[model] = u
	}
	u.PromptTokens += promptTokens
	u.CompletionTokens += completionTokens
	u.Cost += cost
	u.Calls++
}

func (c *CostTracker) Usage(model string) ModelUsage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if u, ok := c.byModel[model]; ok {
		return *u
	}
	return ModelUsage{}
}

func (c *CostTracker) TotalCost() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total float64
	for _, u := range c.byModel {
		total += u.Cost
	}
	return total
}
