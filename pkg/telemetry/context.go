package telemetry

import (
	"context"
)

type ctxKey int

const traceIDKey ctxKey = 1

const zeroTraceID = "00000000000000000000000000000000"

func SetTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(traceIDKey).(string)
	if !ok {
		return zeroTraceID
	}
	return traceID
}
