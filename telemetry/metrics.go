// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	TicksTotal          prometheus.Counter
	MatchesConsidered   prometheus.Counter
	MatchesPosted       prometheus.Counter
	MatchesSkippedDup   prometheus.Counter
	MatchesNotRegional  prometheus.Counter
	DeliveryFailures    prometheus.Counter
	FetchFailures       *prometheus.CounterVec // label: reason
	JobRuns             *prometheus.CounterVec // labels: job, result
	CommandsExecuted    *prometheus.CounterVec // labels: command, result
	PersistFailures     prometheus.Counter
	MirrorMessagesTotal prometheus.Counter

	// Histograms (seconds)
	TickDuration prometheus.Observer

	// Gauges
	PostedCacheSize prometheus.Gauge
	InFlightGauge   prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		TicksTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "ranked_ticks_total", Help: "Number of ranked watcher ticks"})
		MatchesConsidered = promauto.NewCounter(prometheus.CounterOpts{Name: "ranked_matches_considered_total", Help: "Matches with an id seen by the watcher"})
		MatchesPosted = promauto.NewCounter(prometheus.CounterOpts{Name: "ranked_matches_posted_total", Help: "Matches announced successfully"})
		MatchesSkippedDup = promauto.NewCounter(prometheus.CounterOpts{Name: "ranked_matches_skipped_duplicate_total", Help: "Matches skipped because already posted or in flight"})
		MatchesNotRegional = promauto.NewCounter(prometheus.CounterOpts{Name: "ranked_matches_not_regional_total", Help: "Matches skipped because no participant is in a watched region"})
		DeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "ranked_delivery_failures_total", Help: "Announcement deliveries that failed"})
		FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "ranked_fetch_failures_total", Help: "Feed fetches that produced no data, by reason"}, []string{"reason"})
		JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{Name: "job_runs_total", Help: "Interval job invocations by result"}, []string{"job", "result"})
		CommandsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{Name: "commands_executed_total", Help: "Slash commands executed by result"}, []string{"command", "result"})
		PersistFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "posted_cache_persist_failures_total", Help: "Best-effort dedup store writes that failed"})
		MirrorMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_mirror_messages_total", Help: "Announcements mirrored to Twitch chat"})
		TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "ranked_tick_duration_seconds", Help: "Ranked watcher tick duration seconds", Buckets: prometheus.DefBuckets})
		PostedCacheSize = promauto.NewGauge(prometheus.GaugeOpts{Name: "posted_cache_size", Help: "Match ids recorded as announced"})
		InFlightGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "ranked_in_flight", Help: "Matches currently being processed"})
	})
}

// IncFetchFailure counts a no-data fetch outcome.
func IncFetchFailure(reason string) {
	if FetchFailures != nil {
		FetchFailures.WithLabelValues(reason).Inc()
	}
}

// IncJobRun counts one job invocation.
func IncJobRun(job, result string) {
	if JobRuns != nil {
		JobRuns.WithLabelValues(job, result).Inc()
	}
}

// IncCommand counts one slash command execution.
func IncCommand(command, result string) {
	if CommandsExecuted != nil {
		CommandsExecuted.WithLabelValues(command, result).Inc()
	}
}

// SetPostedCacheSize records the number of remembered match ids.
func SetPostedCacheSize(n int) {
	if PostedCacheSize != nil {
		PostedCacheSize.Set(float64(n))
	}
}

// AddInFlight moves the in-flight gauge by delta.
func AddInFlight(delta int) {
	if InFlightGauge != nil {
		InFlightGauge.Add(float64(delta))
	}
}

// Inc increments c if it has been registered.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
