// Package trace carries a run ID in the context; every log line from L carries it
// as trace_id so one fetch or flatten run can be grepped end to end.
package trace

import (
	"context"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type ctxKey int

const traceIDKey ctxKey = 0

const (
	fieldTraceID = "trace_id"
	noTraceID    = "-"
)

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

func TraceID(ctx context.Context) string {
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

func NewTraceID() string {
	return ulid.Make().String()
}

// Start returns ctx with a fresh trace ID unless it already has one.
func Start(ctx context.Context) context.Context {
	if TraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, NewTraceID())
}

// L returns the global zap logger tagged with the context's trace ID.
func L(ctx context.Context) *zap.Logger {
	id := TraceID(ctx)
	if id == "" {
		id = noTraceID
	}
	return zap.L().With(zap.String(fieldTraceID, id))
}
