package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hudeditor/hudstore/internal/domain/entities"
	"github.com/hudeditor/hudstore/internal/infrastructure/logger"
	"github.com/hudeditor/hudstore/internal/ports"
)

// StorageMetrics holds Prometheus collectors for repository calls
type StorageMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
}

// NewStorageMetrics creates the collectors and registers them with registerer
func NewStorageMetrics(registerer prometheus.Registerer) *StorageMetrics {
	m := &StorageMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_operations_total",
				Help: "Total number of document repository operations",
			},
			[]string{"backend", "op", "outcome"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storage_operation_duration_seconds",
				Help:    "Document repository operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "op"},
		),
		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storage_bytes_total",
				Help: "Total document bytes written and read",
			},
			[]string{"backend", "op"},
		),
	}
	registerer.MustRegister(m.operationsTotal, m.operationDuration, m.bytesTotal)
	return m
}

// InstrumentedRepository decorates a DocumentRepository with metrics and logs
type InstrumentedRepository struct {
	next    ports.DocumentRepository
	backend string
	metrics *StorageMetrics
	logger  *logger.Logger
}

// NewInstrumentedRepository wraps next
func NewInstrumentedRepository(next ports.DocumentRepository, backend string, metrics *StorageMetrics, appLogger *logger.Logger) *InstrumentedRepository {
	return &InstrumentedRepository{
		next:    next,
		backend: backend,
		metrics: metrics,
		logger:  appLogger.WithComponent("storage"),
	}
}

func (r *InstrumentedRepository) Save(ctx context.Context, slot entities.Slot, content []byte) error {
	start := time.Now()
	err := r.next.Save(ctx, slot, content)
	r.observe("save", slot, len(content), start, err)
	return err
}

func (r *InstrumentedRepository) Load(ctx context.Context, slot entities.Slot) ([]byte, error) {
	start := time.Now()
	content, err := r.next.Load(ctx, slot)
	r.observe("load", slot, len(content), start, err)
	return content, err
}

func (r *InstrumentedRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func (r *InstrumentedRepository) Close() error {
	return r.next.Close()
}

// Stats forwards the wrapped backend's statistics, if it has any
func (r *InstrumentedRepository) Stats() map[string]interface{} {
	if s, ok := r.next.(ports.StatsProvider); ok {
		return s.Stats()
	}
	return nil
}

// Backend returns the name of the wrapped backend
func (r *InstrumentedRepository) Backend() string {
	return r.backend
}

func (r *InstrumentedRepository) observe(op string, slot entities.Slot, size int, start time.Time, err error) {
	duration := time.Since(start)

	outcome := "ok"
	switch {
	case errors.Is(err, entities.ErrDocumentNotFound):
		// not logged as an error
		outcome = "not_found"
		err = nil
	case err != nil:
		outcome = "error"
	}

	r.metrics.operationsTotal.WithLabelValues(r.backend, op, outcome).Inc()
	r.metrics.operationDuration.WithLabelValues(r.backend, op).Observe(duration.Seconds())
	if outcome == "ok" {
		r.metrics.bytesTotal.WithLabelValues(r.backend, op).Add(float64(size))
	}

	r.logger.LogStorageOperation(r.backend, op, slot.String(), size, float64(duration.Nanoseconds())/1000000, err)
}
