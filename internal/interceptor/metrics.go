package interceptor

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records per-invocation counters and latencies. Labels are bounded:
// kind and action come from the registry, status from the response code.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the invocation metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kubecall_requests_total",
			Help: "Total number of invocations by kind, action and status.",
		}, []string{"kind", "action", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kubecall_request_duration_seconds",
			Help:    "Invocation duration in seconds by kind and action.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"kind", "action"}),
	}
}

func (m *Metrics) observe(req *Request, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(req.Kind, req.Action, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(req.Kind, req.Action).Observe(duration.Seconds())
}
