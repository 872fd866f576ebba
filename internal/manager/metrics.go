package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	modelLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voiced",
		Name:      "model_loaded",
		Help:      "1 while the model is loaded",
	})

	modelBusy = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "voiced",
		Name:      "model_busy",
		Help:      "1 while a synthesis is in flight",
	})

	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voiced",
			Name:      "loads_total",
			Help:      "Model loads by result",
		},
		[]string{"result"},
	)

	unloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voiced",
			Name:      "unloads_total",
			Help:      "Model unloads by reason",
		},
		[]string{"reason"},
	)

	idleTimeoutsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voiced",
		Name:      "idle_timeouts_total",
		Help:      "Idle timer expirations that unloaded the model",
	})

	loadDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voiced",
		Name:      "load_duration_seconds",
		Help:      "Duration of successful model loads",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	generateDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voiced",
			Name:      "generate_duration_seconds",
			Help:      "Duration of synthesis calls by result",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"result"},
	)

	lockWaitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "voiced",
		Name:      "lock_wait_seconds",
		Help:      "Time callers waited for the model lock",
		Buckets:   prometheus.DefBuckets,
	})

	queueRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voiced",
		Name:      "queue_rejected_total",
		Help:      "Callers rejected after waiting too long for the model lock",
	})

	eventsDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "voiced",
		Name:      "events_dropped_total",
		Help:      "Lifecycle events dropped for slow subscribers",
	})
)

func init() {
	prometheus.MustRegister(
		modelLoaded, modelBusy, loadsTotal, unloadsTotal, idleTimeoutsTotal,
		loadDurationSeconds, generateDurationSeconds, lockWaitSeconds,
		queueRejectedTotal, eventsDroppedTotal,
	)
}
