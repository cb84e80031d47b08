package interceptor

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
	intercept := NewLoggingInterceptor(&logger, []string{"/grpc.health.v1.Health/Check"})

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "req-1"))
	info := &grpc.UnaryServerInfo{FullMethod: "/auth.v1.Auth/Ping"}

	var sawLogger bool
	resp, err := intercept(ctx, "in", info, func(ctx context.Context, req any) (any, error) {
		sawLogger = zerolog.Ctx(ctx).GetLevel() != zerolog.Disabled
		return "out", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "out", resp)
	assert.True(t, sawLogger)

	entry := lastLine(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "/auth.v1.Auth/Ping", entry["method"])
	assert.Equal(t, "OK", entry["code"])
}

func TestLoggingInterceptor_ErrorAndQuiet(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
	intercept := NewLoggingInterceptor(&logger, []string{"/grpc.health.v1.Health/Check"})

	_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(context.Context, any) (any, error) { return nil, nil })
	require.NoError(t, err)
	assert.Zero(t, buf.Len(), "quiet methods log at debug level")

	_, err = intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/auth.v1.Auth/Ping"},
		func(context.Context, any) (any, error) { return nil, status.Error(codes.NotFound, "missing") })
	require.Error(t, err)

	entry := lastLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "NotFound", entry["code"])
	assert.NotEmpty(t, entry["request_id"])
}
