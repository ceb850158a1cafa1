package api

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func TestLoggingUnaryInterceptor(t *testing.T) {
	interceptor := LoggingUnaryInterceptor(nil)
	info := &grpc.UnaryServerInfo{FullMethod: "test"}

	resp, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
	assert.Equal(t, "ok", resp)

	t.Run("PassesErrorsThrough", func(t *testing.T) {
		want := status.Error(codes.NotFound, "doctor not found")
		_, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
			return nil, want
		})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})
}

func TestRecoveryUnaryInterceptor(t *testing.T) {
	logger := testLogger()
	interceptor := RecoveryUnaryInterceptor(logger)
	info := &grpc.UnaryServerInfo{FullMethod: methodListDoctors}

	resp, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		panic("boom")
	})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))

	resp, err = interceptor(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return nil, errors.New("plain")
	})
	assert.Nil(t, resp)
	assert.EqualError(t, err, "plain")
}

func TestRequestIDFromMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(requestIDMetadataKey, " abc "))
	assert.Equal(t, "abc", requestIDFromMetadata(ctx))
	assert.Len(t, requestIDFromMetadata(context.Background()), 36)
}
