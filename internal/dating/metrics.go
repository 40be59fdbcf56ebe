// internal/dating/metrics.go

package dating

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dating_matches_created_total",
			Help: "Total number of match records created",
		},
	)

	regenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dating_match_regenerations_total",
			Help: "Create-or-regenerate calls by outcome",
		},
		[]string{"outcome"},
	)

	vetoesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dating_gating_vetoes_total",
			Help: "Pairs rejected by the intent filter or a dealbreaker",
		},
		[]string{"reason"},
	)

	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dating_decisions_total",
			Help: "Like and pass decisions recorded",
		},
		[]string{"kind"},
	)

	mutualMatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dating_mutual_matches_total",
			Help: "Pairs promoted to MATCHED",
		},
	)

	txConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dating_tx_conflicts_total",
			Help: "Match updates retried after a concurrent write",
		},
		[]string{"backend"},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dating_compatibility_scores",
			Help:    "Distribution of final compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	enumerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dating_enumeration_duration_seconds",
			Help:    "Time spent enumerating candidates for one viewer",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordTxConflict counts one optimistic-concurrency retry on the given backend
func RecordTxConflict(backend string) {
	txConflictsTotal.WithLabelValues(backend).Inc()
}

func countDecision(liked bool) {
	if liked {
		decisionsTotal.WithLabelValues("like").Inc()
		return
	}
	decisionsTotal.WithLabelValues("pass").Inc()
}

func observeEnumeration(start time.Time) {
	enumerationDuration.Observe(time.Since(start).Seconds())
}
