package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Event pool metrics
	PoolSlotsByQueue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "corefw_pool_slots",
			Help: "Event descriptor pool slots by queue (free, runnable, isr)",
		},
		[]string{"queue"},
	)

	PoolCapacity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "corefw_pool_capacity",
			Help: "Fixed capacity of the event descriptor pool",
		},
	)

	CookiesIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "corefw_cookies_issued_total",
			Help: "Total number of cookies assigned by put_event",
		},
	)

	// Dispatch metrics
	DispatchedEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corefw_dispatched_events_total",
			Help: "Total number of events dispatched, by result code",
		},
		[]string{"code"},
	)

	DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "corefw_dispatch_duration_seconds",
			Help:    "Time taken to process one runnable event",
			Buckets: prometheus.DefBuckets,
		},
	)

	DelayedResponsesOutstanding = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "corefw_delayed_responses_outstanding",
			Help: "Total event slots currently parked on a delayed-response list",
		},
	)

	// Module lifecycle metrics
	ModulesRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "corefw_modules_registered",
			Help: "Total number of modules registered in the table",
		},
	)

	BindRoundDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "corefw_bind_round_duration_seconds",
			Help:    "Time taken to complete one bind round across all modules",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"round"},
	)

	BootDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "corefw_boot_duration_seconds",
			Help:    "Time taken for Table.Boot to run every lifecycle phase",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Notification broker metrics
	NotifySubscriptionsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "corefw_notify_subscriptions",
			Help: "Total number of active notification subscriptions",
		},
	)

	NotifyFanOutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corefw_notify_fanout_total",
			Help: "Total number of notification events dispatched, by notification id",
		},
		[]string{"notification"},
	)

	// Diagnostics metrics
	DiagViolationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "corefw_diag_violations_total",
			Help: "Total number of structural invariant violations diag.Check has found",
		},
	)
)

func init() {
	prometheus.MustRegister(
		PoolSlotsByQueue,
		PoolCapacity,
		CookiesIssuedTotal,
		DispatchedEventsTotal,
		DispatchDuration,
		DelayedResponsesOutstanding,
		ModulesRegistered,
		BindRoundDuration,
		BootDuration,
		NotifySubscriptionsTotal,
		NotifyFanOutTotal,
		DiagViolationsTotal,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
