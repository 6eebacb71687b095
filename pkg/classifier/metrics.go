package classifier

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	classifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shiertiertools_classify_duration_seconds",
		Help:    "Time spent enumerating and classifying checkpoints",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// Labels: model type
	modelsByType = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shiertiertools_checkpoints",
		Help: "Checkpoints per model type in the latest classification",
	}, []string{"type"})

	invalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shiertiertools_classifier_invalidations_total",
		Help: "Explicit classifier cache invalidations",
	})

	loadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shiertiertools_model_types_load_failures_total",
		Help: "Failed attempts to load the model type table",
	})
)

func observeClassification(c *Classified, took time.Duration) {
	classifyDuration.Observe(took.Seconds())

	modelsByType.Reset()
	for _, t := range c.Types() {
		modelsByType.WithLabelValues(t).Set(float64(len(c.Models(t))))
	}
}
