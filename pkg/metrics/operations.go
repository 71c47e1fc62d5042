package metrics

import (
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const OutcomeSuccess = "success"

// OperationMetrics records latency and outcome of inventory operations.
type OperationMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewOperationMetrics registers the operation metrics on the provided registerer.
// A nil registerer yields a recorder that drops everything.
func NewOperationMetrics(reg prometheus.Registerer) *OperationMetrics {
	if reg == nil {
		return &OperationMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inventory_operation_duration_seconds",
		Help:    "Duration of inventory operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_operation_total",
		Help: "Inventory operations by outcome (success or error code).",
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration, total)
	return &OperationMetrics{
		duration: duration,
		total:    total,
	}
}

// Observe records one finished operation. Typical use:
//
//	defer func(start time.Time) { m.Observe(op, time.Since(start), err) }(time.Now())
func (m *OperationMetrics) Observe(operation string, duration time.Duration, err error) {
	if m == nil || m.duration == nil {
		return
	}
	operation = normalizeLabel(operation)
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
	m.total.WithLabelValues(operation, Outcome(err)).Inc()
}

// Outcome maps an operation error onto the outcome label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return strings.ToLower(string(pkgerrors.CodeInternal))
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
