package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ClusteringMetrics holds the Prometheus metrics emitted by kmeans runs,
// registered through the same promauto wiring as Metrics.
type ClusteringMetrics struct {
	IterationsTotal        prometheus.Counter
	EmptyClusterRecoveries prometheus.Counter
	ConvergedTotal         *prometheus.CounterVec
	LastDistortion         prometheus.Gauge
	TrainDuration          prometheus.Histogram
}

// NewClusteringMetrics creates and registers the clustering metrics.
func NewClusteringMetrics() *ClusteringMetrics {
	return &ClusteringMetrics{
		IterationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vectordb_kmeans_iterations_total",
				Help: "Total number of outer k-means iterations executed",
			},
		),
		EmptyClusterRecoveries: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vectordb_kmeans_empty_cluster_recoveries_total",
				Help: "Total number of empty clusters recovered via the farthest observer",
			},
		),
		ConvergedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vectordb_kmeans_converged_total",
				Help: "Total number of clustering runs by stop reason",
			},
			[]string{"reason"},
		),
		LastDistortion: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "vectordb_kmeans_last_distortion",
				Help: "Distortion reported by the most recently completed clustering run",
			},
		),
		TrainDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vectordb_kmeans_train_duration_seconds",
				Help:    "Wall-clock duration of a clustering run",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
	}
}

// Observe records the outcome of one SimpleKMeans run.
func (m *ClusteringMetrics) Observe(iterations int, emptyRecoveries int, reason string, distortion float32, seconds float64) {
	m.IterationsTotal.Add(float64(iterations))
	m.EmptyClusterRecoveries.Add(float64(emptyRecoveries))
	m.ConvergedTotal.WithLabelValues(reason).Inc()
	m.LastDistortion.Set(float64(distortion))
	m.TrainDuration.Observe(seconds)
}
