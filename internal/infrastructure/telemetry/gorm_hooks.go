package telemetry

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type contextKey string

const queryStartTimeKey contextKey = "telemetry.query_start"

type registerFunc func(name string, fn func(*gorm.DB)) error

// gormHook binds before/after registration for one GORM operation. Hooks run
// inside the otelgorm span window: after its before hook and ahead of its
// after hook, which ends the span and restores the parent context.
type gormHook struct {
	operation string
	before    registerFunc
	after     registerFunc
}

func gormHooks(db *gorm.DB) []gormHook {
	cb := db.Callback()
	return []gormHook{
		{
			operation: "create",
			before: func(n string, fn func(*gorm.DB)) error {
				return cb.Create().After("otel:before:create").Before("gorm:create").Register(n, fn)
			},
			after: func(n string, fn func(*gorm.DB)) error {
				return cb.Create().After("gorm:create").Before("otel:after:create").Register(n, fn)
			},
		},
		{
			operation: "query",
			before: func(n string, fn func(*gorm.DB)) error {
				return cb.Query().After("otel:before:select").Before("gorm:query").Register(n, fn)
			},
			after: func(n string, fn func(*gorm.DB)) error {
				return cb.Query().After("gorm:query").Before("otel:after:select").Register(n, fn)
			},
		},
		{
			operation: "update",
			before: func(n string, fn func(*gorm.DB)) error {
				return cb.Update().After("otel:before:update").Before("gorm:update").Register(n, fn)
			},
			after: func(n string, fn func(*gorm.DB)) error {
				return cb.Update().After("gorm:update").Before("otel:after:update").Register(n, fn)
			},
		},
		{
			operation: "delete",
			before: func(n string, fn func(*gorm.DB)) error {
				return cb.Delete().After("otel:before:delete").Before("gorm:delete").Register(n, fn)
			},
			after: func(n string, fn func(*gorm.DB)) error {
				return cb.Delete().After("gorm:delete").Before("otel:after:delete").Register(n, fn)
			},
		},
		{
			operation: "row",
			before: func(n string, fn func(*gorm.DB)) error {
				return cb.Row().After("otel:before:row").Before("gorm:row").Register(n, fn)
			},
			after: func(n string, fn func(*gorm.DB)) error {
				return cb.Row().After("gorm:row").Before("otel:after:row").Register(n, fn)
			},
		},
		{
			operation: "raw",
			before: func(n string, fn func(*gorm.DB)) error {
				return cb.Raw().After("otel:before:raw").Before("gorm:raw").Register(n, fn)
			},
			after: func(n string, fn func(*gorm.DB)) error {
				return cb.Raw().After("gorm:raw").Before("otel:after:raw").Register(n, fn)
			},
		},
	}
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
}

func queryElapsed(db *gorm.DB) (time.Duration, bool) {
	ctx := db.Statement.Context
	if ctx == nil {
		return 0, false
	}
	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}
