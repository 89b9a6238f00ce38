package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/hppanpaliya/FairShare-AI/internal/metrics"
)

// eventScoped is implemented by request messages that target one event.
type eventScoped interface {
	GetEventId() string
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// and records its latency. It logs the procedure name, event ID when the
// request carries one, duration, and any error codes/messages.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure
			attrs := []any{"procedure", procedure}
			if scoped, ok := req.Any().(eventScoped); ok && scoped.GetEventId() != "" {
				attrs = append(attrs, "event_id", scoped.GetEventId())
			}

			resp, err := next(ctx, req)

			elapsed := time.Since(start)
			attrs = append(attrs, "duration_ms", elapsed.Milliseconds())
			code := "ok"
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					code = connectErr.Code().String()
					slog.Warn("RPC error", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
				} else {
					code = connect.CodeUnknown.String()
					slog.Error("RPC error", append(attrs, "error", err)...)
				}
			} else {
				slog.Info("RPC ok", attrs...)
			}
			metrics.RPCDuration.WithLabelValues(procedure, code).Observe(elapsed.Seconds())

			return resp, err
		}
	}
}
