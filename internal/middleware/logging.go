package middleware

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	chimw "github.com/go-chi/chi/middleware"
)

// rpcAttrs collects the fields every RPC log line carries.
func rpcAttrs(ctx context.Context, req connect.AnyRequest, elapsed time.Duration) []any {
	attrs := []any{
		"procedure", req.Spec().Procedure,
		"user_id", GetUserID(ctx), // empty if anonymous
		"duration_ms", elapsed.Milliseconds(),
	}
	if id := chimw.GetReqID(ctx); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	return attrs
}

// LoggingInterceptor returns a Connect interceptor that logs one line per RPC.
// Client errors log at warn with their code; internal and unknown errors log
// at error. Place it after the auth interceptor so the user ID is known.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			attrs := rpcAttrs(ctx, req, time.Since(start))

			switch code := connect.CodeOf(err); {
			case err == nil:
				slog.InfoContext(ctx, "RPC ok", attrs...)
			case code == connect.CodeInternal || code == connect.CodeUnknown:
				slog.ErrorContext(ctx, "RPC failed", append(attrs, "error", err)...)
			default:
				slog.WarnContext(ctx, "RPC rejected", append(attrs, "code", code.String(), "error", err.Error())...)
			}

			return resp, err
		}
	}
}
