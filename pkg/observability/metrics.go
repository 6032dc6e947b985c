package observability

import (
	"fmt"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the playback collectors.
type Metrics struct {
	events     *prometheus.CounterVec
	generation *prometheus.HistogramVec
	steps      *prometheus.HistogramVec
	playing    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stepper_playback_events_total",
				Help: "Total number of playback transitions",
			},
			[]string{"algorithm", "event"},
		),
		generation: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stepper_generation_duration_seconds",
				Help:    "Duration of trace generation",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"algorithm"},
		),
		steps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stepper_trace_steps",
				Help:    "Number of steps in generated traces",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"algorithm"},
		),
		playing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stepper_sessions_playing",
			Help: "Number of controllers currently playing",
		}),
	}

	for _, c := range []prometheus.Collector{m.events, m.generation, m.steps, m.playing} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// Hooks returns playback hooks that record into m.
func (m *Metrics) Hooks() domain.PlaybackHooks {
	return domain.PlaybackHooks{OnChange: m.observe}
}

func (m *Metrics) observe(e *domain.PlaybackEvent) {
	m.events.WithLabelValues(e.Algorithm, string(e.Type)).Inc()

	switch e.Type {
	case domain.EventGenerated, domain.EventReinit:
		if e.Duration > 0 {
			m.generation.WithLabelValues(e.Algorithm).Observe(e.Duration.Seconds())
		}
		m.steps.WithLabelValues(e.Algorithm).Observe(float64(e.Total))
	}

	// One transition can emit several events sharing Before and After,
	// so only the event that starts or stops playback moves the gauge.
	switch e.Type {
	case domain.EventPlay:
		m.playing.Inc()
	case domain.EventPause, domain.EventAutoPause, domain.EventReset, domain.EventReinit, domain.EventClose:
		if e.Before.IsPlaying && !e.After.IsPlaying {
			m.playing.Dec()
		}
	}
}
