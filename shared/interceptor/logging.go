package interceptor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/IsaacNewtonTingo/nikopeshe-api/shared/utilities"
)

const requestIDHeader = "x-request-id"

// NewLoggingInterceptor logs every unary call with its status code and
// duration. Quiet methods, such as health checks polled by Consul, are only
// logged at debug level.
func NewLoggingInterceptor(logger *zerolog.Logger, quietMethods []string) grpc.UnaryServerInterceptor {
	quietMap := make(map[string]bool)
	for _, method := range quietMethods {
		quietMap[method] = true
	}

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		requestID := utilities.IncomingHeader(ctx, requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		requestLogger := logger.With().Str("request_id", requestID).Logger()
		ctx = requestLogger.WithContext(ctx)

		start := time.Now()
		resp, err := handler(ctx, req)

		event := requestLogger.Info()
		if quietMap[info.FullMethod] {
			event = requestLogger.Debug()
		}
		if err != nil {
			event = requestLogger.Warn().Err(err)
		}

		event.
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("grpc call handled")

		return resp, err
	}
}
