package game

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics Prometheus-метрики сессии.
//
// Метрики:
// * step_duration_seconds: histogram
// * ticks_total: counter
// * level_events_total{type}: counter
// * levels_finished_total: counter
// * level_attempt_ticks: gauge, тик текущей попытки
type Metrics struct {
	stepDuration prometheus.Histogram
	ticks        prometheus.Counter
	levelEvents  *prometheus.CounterVec
	levelsDone   prometheus.Counter
	attemptTicks prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "step_duration_seconds",
			Help:      "Длительность одного шага симуляции.",
			Buckets:   []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "ticks_total",
			Help:      "Общее число выполненных тиков симуляции.",
		}),
		levelEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "level",
			Name:      "events_total",
			Help:      "События уровней по типам.",
		}, []string{"type"}),
		levelsDone: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "level",
			Name:      "finished_total",
			Help:      "Число пройденных уровней.",
		}),
		attemptTicks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "level",
			Name:      "attempt_ticks",
			Help:      "Тик текущей попытки прохождения уровня.",
		}),
	}

	for _, c := range []prometheus.Collector{m.stepDuration, m.ticks, m.levelEvents, m.levelsDone, m.attemptTicks} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
