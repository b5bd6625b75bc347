package probe

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}

// recovered turns a panic in a probe handler into codes.Internal.
func recovered(log *zap.Logger, method string, err *error) {
	if r := recover(); r != nil {
		log.Error("probe handler panic",
			zap.Any("reason", r),
			zap.ByteString("stack", debug.Stack()),
			zap.String("method", method),
		)
		*err = status.Error(codes.Internal, "internal")
	}
}

// unaryObserver logs each health check with the status it answered.
func unaryObserver(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		start := time.Now()
		defer recovered(log, info.FullMethod, &err)

		resp, err = next(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", peerAddr(ctx)),
		}
		if r, ok := resp.(*healthpb.HealthCheckResponse); ok {
			fields = append(fields, zap.String("status", r.GetStatus().String()))
		}
		if hc, ok := req.(*healthpb.HealthCheckRequest); ok && hc.GetService() != "" {
			fields = append(fields, zap.String("service", hc.GetService()))
		}
		log.Debug("probe", fields...)
		return resp, err
	}
}

// streamObserver logs health watches when they end.
func streamObserver(log *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) (err error) {
		start := time.Now()
		defer recovered(log, info.FullMethod, &err)

		err = next(srv, ss)
		log.Debug("probe stream",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", peerAddr(ss.Context())),
		)
		return err
	}
}
