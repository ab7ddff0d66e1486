// Package telemetry exposes a running fuzzing search as Prometheus metrics
// and, optionally, a websocket feed of round events for a live dashboard.
// It is pull-based observability for the search itself — not the chaos
// experiment evaluation the metric names were originally used for.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jihwankim/legion-fuzz/pkg/reporting"
)

var (
	roundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "legion",
		Subsystem: "search",
		Name:      "rounds_total",
		Help:      "Total Selection/Simulation/Expansion/Propagation rounds run",
	})

	newPathsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "legion",
		Subsystem: "search",
		Name:      "new_paths_total",
		Help:      "Total new paths discovered across all rounds",
	})

	batchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "legion",
		Subsystem: "search",
		Name:      "batch_size",
		Help:      "Number of inputs sampled per round",
		Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
	})

	roundDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "legion",
		Subsystem: "search",
		Name:      "round_duration_seconds",
		Help:      "Wall-clock duration of one round",
		Buckets:   prometheus.DefBuckets,
	})

	treeSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "legion",
		Subsystem: "tree",
		Name:      "size",
		Help:      "Current number of nodes in the search tree, Gold children included",
	})

	nodesByColour = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "legion",
		Subsystem: "tree",
		Name:      "nodes_by_colour",
		Help:      "Current node count by colour (White, Red, Gold, Black)",
	}, []string{"colour"})

	bugFound = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "legion",
		Subsystem: "search",
		Name:      "bug_found",
		Help:      "1 once a sampled execution has returned the bug exit code, else 0",
	})
)

// RecordRound folds one round's summary into the counters and histograms.
// Call it once per Step/Init result, whether or not the round was aborted.
func RecordRound(summary reporting.RoundSummary) {
	roundsTotal.Inc()
	if summary.BatchSize > 0 {
		batchSize.Observe(float64(summary.BatchSize))
	}
	newPathsTotal.Add(float64(summary.NewPaths))
	roundDurationSeconds.Observe(summary.ElapsedSeconds)
	if summary.BugFound {
		bugFound.Set(1)
	}
}

// SetTreeSize updates the tree size gauge.
func SetTreeSize(n int) {
	treeSize.Set(float64(n))
}

// SetColourCounts replaces the nodes_by_colour gauge vector with fresh
// counts. Callers derive colourCounts from pkg/tree.Tree.Pretty-style
// traversal; this package has no tree dependency of its own.
func SetColourCounts(colourCounts map[string]int) {
	for _, colour := range []string{"White", "Red", "Gold", "Black"} {
		nodesByColour.WithLabelValues(colour).Set(float64(colourCounts[colour]))
	}
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
