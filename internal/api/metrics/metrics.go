// Package metrics defines and registers the custom Prometheus metrics of the
// directory core. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry at package init through
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "directory"

// ── Resolution metrics ────────────────────────────────────────────────────────

// ResolutionsTotal counts slug resolutions by outcome.
// Label:
//   - outcome: "canonical", "redirect", "not_found" or "unavailable"
var ResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_total",
		Help:      "Total number of slug resolutions, by outcome.",
	},
	[]string{"outcome"},
)

// ResolutionCacheTotal counts resolution cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var ResolutionCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolution_cache_total",
		Help:      "Total number of resolution cache lookups, labelled by result (hit/miss/error).",
	},
	[]string{"result"},
)

// LoopGuardServesTotal counts redirects suppressed because the target equalled
// the current path.
var LoopGuardServesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "loop_guard_serves_total",
		Help:      "Total number of redirects replaced by serve because the target equalled the current path.",
	},
)

// ResolutionDuration measures a resolution end to end, cache included.
var ResolutionDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "resolution_duration_seconds",
		Help:      "Duration of slug resolution including cache lookups.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ── Permission metrics ────────────────────────────────────────────────────────

// PermissionChecksTotal counts permission decisions.
// Labels:
//   - scope: the winning scope ("global", "site", "place", "none")
//   - allowed: "true" or "false"
var PermissionChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_checks_total",
		Help:      "Total number of permission checks, by winning scope and outcome.",
	},
	[]string{"scope", "allowed"},
)
