package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	ScopeProduct  = "product"
	ScopeCategory = "category"
	ScopeAll      = "all"
)

const (
	OutcomeRecalculated = "recalculated"
	OutcomeSkipped      = "skipped"
)

const (
	RecalcReasonDeadlineExceeded     = "deadline_exceeded"
	RecalcReasonDBLockTimeout        = "db_lock_timeout"
	RecalcReasonSerializationFailure = "serialization_failure"
	RecalcReasonConnection           = "connection"
	RecalcReasonUnknown              = "unknown"
)

// RecalculationMetrics captures price recompute throughput and failures.
type RecalculationMetrics struct {
	products      *prometheus.CounterVec
	batchDuration *prometheus.HistogramVec
	batchErrors   *prometheus.CounterVec
}

var (
	recalcMetricsOnce sync.Once
	recalcMetrics     *RecalculationMetrics
)

// RecalculationWithConfig returns the singleton registry using config labels.
func RecalculationWithConfig(cfg Config) *RecalculationMetrics {
	recalcMetricsOnce.Do(func() {
		recalcMetrics = newRecalculationMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return recalcMetrics
}

func newRecalculationMetrics(registerer prometheus.Registerer, cfg Config) *RecalculationMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName(cfg),
		"env":     environment,
	}

	products := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "storekeep_pricing_products_total",
		Help:        "Products visited by price recalculation, by scope and outcome.",
		ConstLabels: constLabels,
	}, []string{"scope", "outcome"})
	batchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "storekeep_pricing_recalculation_duration_seconds",
		Help:        "Wall time of one recalculation call.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		ConstLabels: constLabels,
	}, []string{"scope"})
	batchErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "storekeep_pricing_recalculation_errors_total",
		Help:        "Recalculations stopped by a storage error, by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"scope", "reason"})

	registerer.MustRegister(products, batchDuration, batchErrors)

	return &RecalculationMetrics{
		products:      products,
		batchDuration: batchDuration,
		batchErrors:   batchErrors,
	}
}

// IncProduct counts one product visited by a recalculation.
func (m *RecalculationMetrics) IncProduct(scope, outcome string) {
	if m == nil || m.products == nil {
		return
	}
	m.products.WithLabelValues(scope, outcome).Inc()
}

// ObserveDuration records the wall time of one recalculation call.
func (m *RecalculationMetrics) ObserveDuration(scope string, duration time.Duration) {
	if m == nil || m.batchDuration == nil {
		return
	}
	m.batchDuration.WithLabelValues(scope).Observe(duration.Seconds())
}

// IncError counts a recalculation stopped by err.
func (m *RecalculationMetrics) IncError(scope string, err error) {
	if m == nil || err == nil || m.batchErrors == nil {
		return
	}
	m.batchErrors.WithLabelValues(scope, ClassifyRecalculationReason(err)).Inc()
}

// ClassifyRecalculationReason maps storage errors to low-cardinality reasons.
func ClassifyRecalculationReason(err error) string {
	if err == nil {
		return RecalcReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return RecalcReasonDeadlineExceeded
	}
	if hasPGCode(err, "55P03") {
		return RecalcReasonDBLockTimeout
	}
	if hasPGCode(err, "40001") {
		return RecalcReasonSerializationFailure
	}
	if errors.Is(err, gorm.ErrInvalidDB) || hasPGCodePrefix(err, "08") {
		return RecalcReasonConnection
	}
	return RecalcReasonUnknown
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func hasPGCodePrefix(err error, prefix string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, prefix)
	}
	return false
}
