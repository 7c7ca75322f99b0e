package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quill"

// Metrics holds the editor collectors.
type Metrics struct {
	StepEnters   *prometheus.CounterVec
	Saves        *prometheus.CounterVec
	SaveDuration *prometheus.HistogramVec
	Completions  prometheus.Counter
	Suggestions  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StepEnters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "step_enters_total",
				Help:      "Total number of times a wizard step was opened",
			},
			[]string{"step"},
		),
		Saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saves_total",
				Help:      "Total number of document saves",
			},
			[]string{"trigger", "result"},
		),
		SaveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "save_duration_seconds",
				Help:      "Duration of document saves",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"trigger"},
		),
		Completions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "essays_completed_total",
			Help:      "Total number of essays completed",
		}),
		Suggestions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "suggestion_requests_total",
				Help:      "Total number of rewrite suggestion requests",
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{m.StepEnters, m.Saves, m.SaveDuration, m.Completions, m.Suggestions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepEnters.WithLabelValues(e.Step.String()).Inc()
		},
		OnSave: func(_ context.Context, e *domain.SaveEvent) {
			m.Saves.WithLabelValues(string(e.Trigger), result(e.Err != nil)).Inc()
			m.SaveDuration.WithLabelValues(string(e.Trigger)).Observe(e.Duration.Seconds())
		},
		OnComplete: func(_ context.Context, _ *domain.EventBase) {
			m.Completions.Inc()
		},
		OnSuggestion: func(_ context.Context, e *domain.SuggestionEvent) {
			m.Suggestions.WithLabelValues(result(e.IsError)).Inc()
		},
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func result(failed bool) string {
	if failed {
		return "error"
	}
	return "ok"
}
