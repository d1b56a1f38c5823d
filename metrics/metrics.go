// Package metrics provides Prometheus metrics for mediaedge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RewriteDecisions counts media references resolved, by matched rule.
	RewriteDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mediaedge",
			Name:      "rewrite_decisions_total",
			Help:      "Media references resolved by rewrite rule",
		},
		[]string{"rule"},
	)

	// ResponseURLsRewritten counts url fields moved from the API host to the CDN.
	ResponseURLsRewritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mediaedge",
			Name:      "response_urls_rewritten_total",
			Help:      "url fields in proxied JSON responses rewritten to the CDN",
		},
	)

	// ResponsesRewritten counts proxied responses by outcome.
	ResponsesRewritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mediaedge",
			Name:      "responses_total",
			Help:      "Proxied GET responses inspected by the URL rewriter",
		},
		[]string{"outcome"},
	)

	// RedirectFetches counts redirect list refreshes.
	RedirectFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mediaedge",
			Name:      "redirect_fetches_total",
			Help:      "Redirect list fetches from the CMS",
		},
		[]string{"status"},
	)

	// RedirectRules reports the size of the active redirect table.
	RedirectRules = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mediaedge",
			Name:      "redirect_rules",
			Help:      "Redirect rules currently loaded",
		},
	)

	// Uploads counts media uploads by provider and status.
	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mediaedge",
			Name:      "uploads_total",
			Help:      "Media uploads by storage provider",
		},
		[]string{"provider", "status"},
	)

	// UploadDuration measures time spent writing to the storage provider.
	UploadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mediaedge",
			Name:      "upload_duration_seconds",
			Help:      "Duration of storage provider uploads in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

// RecordRewrite records a rewrite decision.
func RecordRewrite(rule string) {
	RewriteDecisions.WithLabelValues(rule).Inc()
}

// RecordResponse records the outcome of inspecting one proxied response.
func RecordResponse(outcome string, rewritten int) {
	ResponsesRewritten.WithLabelValues(outcome).Inc()
	if rewritten > 0 {
		ResponseURLsRewritten.Add(float64(rewritten))
	}
}

// RecordRedirectFetch records a redirect refresh and the resulting table size.
func RecordRedirectFetch(status string, rules int) {
	RedirectFetches.WithLabelValues(status).Inc()
	RedirectRules.Set(float64(rules))
}

// RecordUpload records an upload attempt.
func RecordUpload(provider, status string, seconds float64) {
	Uploads.WithLabelValues(provider, status).Inc()
	UploadDuration.WithLabelValues(provider).Observe(seconds)
}
