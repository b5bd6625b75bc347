package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type fakeAddr struct{}

func (fakeAddr) Network() string { return "tcp" }
func (fakeAddr) String() string  { return "127.0.0.1:12345" }

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestUnaryObserver_LogsHealthStatus(t *testing.T) {
	t.Parallel()
	log, logs := observed()
	ic := unaryObserver(log)

	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr{}})
	info := &grpc.UnaryServerInfo{FullMethod: healthpb.Health_Check_FullMethodName}
	req := &healthpb.HealthCheckRequest{Service: "postgres"}
	h := func(context.Context, any) (any, error) {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}

	resp, err := ic(ctx, req, info, h)
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.(*healthpb.HealthCheckResponse).GetStatus())

	entries := logs.FilterMessage("probe").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "NOT_SERVING", fields["status"])
	require.Equal(t, "postgres", fields["service"])
	require.Equal(t, "127.0.0.1:12345", fields["peer"])
	require.Equal(t, codes.OK.String(), fields["code"])
}

func TestUnaryObserver_PassesErrors(t *testing.T) {
	t.Parallel()
	log, logs := observed()
	ic := unaryObserver(log)

	info := &grpc.UnaryServerInfo{FullMethod: healthpb.Health_Check_FullMethodName}
	h := func(context.Context, any) (any, error) { return nil, status.Error(codes.NotFound, "unknown service") }

	_, err := ic(context.Background(), &healthpb.HealthCheckRequest{}, info, h)
	require.Equal(t, codes.NotFound, status.Code(err))
	require.Equal(t, codes.NotFound.String(), logs.All()[0].ContextMap()["code"])
}

func TestUnaryObserver_RecoversPanic(t *testing.T) {
	t.Parallel()
	log, logs := observed()
	ic := unaryObserver(log)

	info := &grpc.UnaryServerInfo{FullMethod: healthpb.Health_Check_FullMethodName}
	_, err := ic(context.Background(), nil, info, func(context.Context, any) (any, error) { panic("oh no") })
	require.Equal(t, codes.Internal, status.Code(err))
	require.Equal(t, 1, logs.FilterMessage("probe handler panic").Len())
}

type fakeStream struct{ ctx context.Context }

func (s fakeStream) SetHeader(metadata.MD) error  { return nil }
func (s fakeStream) SendHeader(metadata.MD) error { return nil }
func (s fakeStream) SetTrailer(metadata.MD)       {}
func (s fakeStream) Context() context.Context     { return s.ctx }
func (s fakeStream) SendMsg(any) error            { return nil }
func (s fakeStream) RecvMsg(any) error            { return nil }

func TestStreamObserver(t *testing.T) {
	t.Parallel()
	log, logs := observed()
	ic := streamObserver(log)
	info := &grpc.StreamServerInfo{FullMethod: healthpb.Health_Watch_FullMethodName, IsServerStream: true}
	ss := fakeStream{ctx: context.Background()}

	boom := errors.New("boom")
	err := ic(nil, ss, info, func(any, grpc.ServerStream) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, logs.FilterMessage("probe stream").Len())

	err = ic(nil, ss, info, func(any, grpc.ServerStream) error { panic("watch") })
	require.Equal(t, codes.Internal, status.Code(err))
}
