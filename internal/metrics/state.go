package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var stateOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "embyplay_state_ops_total",
	Help: "Session state store operations by backend, op and result",
}, []string{"backend", "op", "result"})

// RecordStateOp counts one state store operation.
func RecordStateOp(backend, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	stateOps.WithLabelValues(backend, op, result).Inc()
}
