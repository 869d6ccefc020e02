// Package metrics provides Prometheus metrics for the filesystem layer.
//
// A nil *Collector is valid and records nothing, so callers never need to
// guard metric updates.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "brackets"

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collector holds the filesystem collectors.
type Collector struct {
	writesInFlight    prometheus.Gauge
	readsTotal        *prometheus.CounterVec
	writesTotal       *prometheus.CounterVec
	changesDeferred   prometheus.Counter
	changesSuppressed prometheus.Counter
	changesDelivered  *prometheus.CounterVec
	handlesIndexed    prometheus.Gauge
	callbackPanics    prometheus.Counter
}

// New creates a Collector and registers it with reg. A nil reg leaves the
// collectors unregistered, which is useful in tests.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		writesInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "writes_in_flight",
			Help:      "Number of self-initiated writes currently holding the write barrier",
		}),
		readsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_reads_total",
			Help:      "Total number of file reads",
		}, []string{"result"}),
		writesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_writes_total",
			Help:      "Total number of file writes",
		}, []string{"result"}),
		changesDeferred: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_deferred_total",
			Help:      "External changes queued while writes were in flight",
		}),
		changesSuppressed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_suppressed_total",
			Help:      "External changes dropped because they matched the cached stat",
		}),
		changesDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_delivered_total",
			Help:      "Change events delivered to listeners",
		}, []string{"type"}),
		handlesIndexed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "handles_indexed",
			Help:      "Number of entry handles held by the registry",
		}),
		callbackPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_panics_total",
			Help:      "Panics recovered from caller callbacks",
		}),
	}
}

// SetWritesInFlight records the barrier count.
func (c *Collector) SetWritesInFlight(n int) {
	if c == nil {
		return
	}
	c.writesInFlight.Set(float64(n))
}

// ObserveRead counts a read by result.
func (c *Collector) ObserveRead(err error) {
	if c == nil {
		return
	}
	c.readsTotal.WithLabelValues(result(err)).Inc()
}

// ObserveWrite counts a write by result.
func (c *Collector) ObserveWrite(err error) {
	if c == nil {
		return
	}
	c.writesTotal.WithLabelValues(result(err)).Inc()
}

// ChangeDeferred counts a change queued behind the barrier.
func (c *Collector) ChangeDeferred() {
	if c == nil {
		return
	}
	c.changesDeferred.Inc()
}

// ChangeSuppressed counts a change dropped as a write echo.
func (c *Collector) ChangeSuppressed() {
	if c == nil {
		return
	}
	c.changesSuppressed.Inc()
}

// ChangeDelivered counts a delivered change event of the given type.
func (c *Collector) ChangeDelivered(eventType string) {
	if c == nil {
		return
	}
	c.changesDelivered.WithLabelValues(eventType).Inc()
}

// SetHandlesIndexed records the registry size.
func (c *Collector) SetHandlesIndexed(n int) {
	if c == nil {
		return
	}
	c.handlesIndexed.Set(float64(n))
}

// CallbackPanicked counts a recovered callback panic.
func (c *Collector) CallbackPanicked() {
	if c == nil {
		return
	}
	c.callbackPanics.Inc()
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
