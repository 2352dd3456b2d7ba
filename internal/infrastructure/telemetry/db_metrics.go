package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetrics records query latency and connection pool state
type DBMetrics struct {
	queryDuration *Histogram
	queryErrors   *Counter
	registration  metric.Registration
	logger        *zap.Logger
}

// RegisterDBMetrics hooks query timing into db and observes the pool of sqlDB
// on every collection.
func RegisterDBMetrics(db *gorm.DB, sqlDB *sql.DB, meter metric.Meter, logger *zap.Logger) (*DBMetrics, error) {
	m := &DBMetrics{logger: logger}

	var err error
	m.queryDuration, err = NewHistogram(meter, "db.query.duration", "Database query latency", "s", LatencyBuckets)
	if err != nil {
		return nil, err
	}
	m.queryErrors, err = NewCounter(meter, "db.query.errors", "Failed database queries", "{query}")
	if err != nil {
		return nil, err
	}

	if sqlDB != nil {
		if err := m.observePool(meter, sqlDB); err != nil {
			return nil, err
		}
	}

	for _, hook := range gormHooks(db) {
		operation := hook.operation
		if err := hook.before("metrics:before_"+operation, markQueryStart); err != nil {
			return nil, err
		}
		if err := hook.after("metrics:after_"+operation, func(tx *gorm.DB) { m.record(tx, operation) }); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *DBMetrics) observePool(meter metric.Meter, sqlDB *sql.DB) error {
	connections, err := meter.Int64ObservableGauge("db.pool.connections",
		metric.WithDescription("Connections by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	maxOpen, err := meter.Int64ObservableGauge("db.pool.max_open",
		metric.WithDescription("Configured connection limit"), metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("db.pool.wait_count",
		metric.WithDescription("Total waits for a free connection"), metric.WithUnit("{wait}"))
	if err != nil {
		return fmt.Errorf("failed to create pool counter: %w", err)
	}

	m.registration, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := sqlDB.Stats()
		o.ObserveInt64(connections, int64(s.InUse), metric.WithAttributes(AttrPoolState.String("in_use")))
		o.ObserveInt64(connections, int64(s.Idle), metric.WithAttributes(AttrPoolState.String("idle")))
		o.ObserveInt64(maxOpen, int64(s.MaxOpenConnections))
		o.ObserveInt64(waits, s.WaitCount)
		return nil
	}, connections, maxOpen, waits)
	if err != nil {
		return fmt.Errorf("failed to register pool callback: %w", err)
	}
	return nil
}

func (m *DBMetrics) record(db *gorm.DB, operation string) {
	elapsed, ok := queryElapsed(db)
	if !ok {
		return
	}
	ctx := db.Statement.Context
	table := AttrTable.String(db.Statement.Table)
	m.queryDuration.RecordDuration(ctx, elapsed, AttrOperation.String(operation), table)
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		m.queryErrors.Inc(ctx, AttrOperation.String(operation), table)
	}
}

// Stop unregisters the pool callback
func (m *DBMetrics) Stop() {
	if m.registration == nil {
		return
	}
	if err := m.registration.Unregister(); err != nil {
		m.logger.Warn("failed to unregister pool metrics", zap.Error(err))
	}
}
