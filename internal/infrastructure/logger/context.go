package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	scopeKey
)

// Scope is the request-scoped identity attached to every log line.
type Scope struct {
	RequestID string
	TenantID  string
	UserID    string
}

func (s Scope) fields() []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if s.RequestID != "" {
		fields = append(fields, zap.String("request_id", s.RequestID))
	}
	if s.TenantID != "" {
		fields = append(fields, zap.String("tenant_id", s.TenantID))
	}
	if s.UserID != "" {
		fields = append(fields, zap.String("user_id", s.UserID))
	}
	return fields
}

// WithContext returns a new context carrying the logger.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// ScopeFrom returns the scope stored in ctx.
func ScopeFrom(ctx context.Context) Scope {
	s, _ := ctx.Value(scopeKey).(Scope)
	return s
}

// WithRequestID records the request id in ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	s := ScopeFrom(ctx)
	s.RequestID = requestID
	return context.WithValue(ctx, scopeKey, s)
}

// WithTenant records the tenant and user ids in ctx.
func WithTenant(ctx context.Context, tenantID, userID string) context.Context {
	s := ScopeFrom(ctx)
	s.TenantID = tenantID
	s.UserID = userID
	return context.WithValue(ctx, scopeKey, s)
}

// RequestID returns the request id recorded in ctx.
func RequestID(ctx context.Context) string {
	return ScopeFrom(ctx).RequestID
}

// TraceFields returns trace_id and span_id for the active span, if any.
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// L returns the context logger enriched with the request scope and trace ids.
//
//	logger.L(ctx).Info("lead routed", zap.String("rep_id", id))
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	fields := append(ScopeFrom(ctx).fields(), TraceFields(ctx)...)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
