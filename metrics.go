package relock

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	tasks         prometheus.Gauge
	renewals      prometheus.Counter
	renewErrors   prometheus.Counter
	timeouts      prometheus.Counter
	expirations   prometheus.Counter
	renewDuration prometheus.Histogram
}

func newMetrics(registerer prometheus.Registerer, namespace, subsystem string) *metrics {
	if registerer != nil {
		registerer = prometheus.WrapRegistererWith(
			prometheus.Labels{"component": "relock"},
			registerer,
		)
	}

	m := metrics{
		tasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks",
			Help:      "Number of registered renewal tasks not yet finished",
		}),
		renewals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "renewals",
			Help:      "Number of successful lock renewals",
		}),
		renewErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "renew_errors",
			Help:      "Number of failed lock renewals",
		}),
		timeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "timeouts",
			Help:      "Number of tasks ended by the max renewal duration",
		}),
		expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "expirations",
			Help:      "Number of tasks ended by silent lock expiry",
		}),
		renewDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "renew_duration",
			Help:      "Duration of renew calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.tasks,
			m.renewals,
			m.renewErrors,
			m.timeouts,
			m.expirations,
			m.renewDuration,
		)
	}

	return &m
}
