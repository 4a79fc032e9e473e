package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RPC holds the Prometheus meters for forwarded endpoint operations. It is
// the metrics collaborator handed to trace/chain-check operations.
type RPC struct {
	Registry        *prometheus.Registry
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
}

func NewRPC() *RPC {
	reg := prometheus.NewRegistry()

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rpc_request_duration_seconds",
		Help:    "Duration of endpoint RPC operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "endpoint"})

	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_request_total",
		Help: "Total number of endpoint RPC operations.",
	}, []string{"operation", "endpoint", "status"})

	errors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_errors_total",
		Help: "Total number of failed endpoint RPC operations.",
	}, []string{"operation", "endpoint"})

	reg.MustRegister(duration, total, errors)

	return &RPC{
		Registry:        reg,
		RequestDuration: duration,
		RequestTotal:    total,
		ErrorsTotal:     errors,
	}
}

// ObserveRequest records one forwarded operation against one endpoint.
func (m *RPC) ObserveRequest(operation, endpoint string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		m.ErrorsTotal.WithLabelValues(operation, endpoint).Inc()
	}
	m.RequestTotal.WithLabelValues(operation, endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(operation, endpoint).Observe(elapsed.Seconds())
}
