package sync

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	directionImport = "import"
	directionExport = "export"
)

var (
	identitiesTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "dirsync_sync_identities_total",
			Help: "Number of identities processed by sync runs, differentiated by direction and outcome.",
		},
		[]string{"direction", "outcome"},
	)

	runDuration = promauto.NewHistogramVec( //nolint:gochecknoglobals
		prometheus.HistogramOpts{
			Name:    "dirsync_sync_run_duration_seconds",
			Help:    "Duration of completed sync runs.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"direction"},
	)
)

func observe(direction string, o Outcome) {
	identitiesTotal.WithLabelValues(direction, o.String()).Inc()
}

func observeRun(direction string, elapsed time.Duration) {
	runDuration.WithLabelValues(direction).Observe(elapsed.Seconds())
}
