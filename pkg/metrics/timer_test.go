package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewTimer(t *testing.T) {
	timer := NewTimer()
	if timer.start.IsZero() {
		t.Error("NewTimer() start time is zero")
	}
	if time.Since(timer.start) > time.Second {
		t.Error("NewTimer() start time is not recent")
	}
}

func TestTimerDuration(t *testing.T) {
	timer := NewTimer()
	time.Sleep(20 * time.Millisecond)

	d := timer.Duration()
	if d < 20*time.Millisecond {
		t.Errorf("Duration() = %v, want >= 20ms", d)
	}

	d2 := timer.Duration()
	if d2 < d {
		t.Errorf("Duration() should be monotonically increasing: first=%v, second=%v", d, d2)
	}
}

// TestTimerObserve exercises the two observation paths dispatch.go and
// runtime.go actually use: a plain histogram (DispatchDuration's shape)
// and a labeled vec (BindRoundDuration's shape).
func TestTimerObserve(t *testing.T) {
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timer_test_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})
	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "timer_test_duration_vec_seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"round"},
	)

	timer := NewTimer()
	time.Sleep(10 * time.Millisecond)

	timer.ObserveDuration(histogram)
	timer.ObserveDurationVec(vec, "0")

	if timer.Duration() == 0 {
		t.Error("Timer.Duration() reported zero after sleeping")
	}
}
