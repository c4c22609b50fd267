package server

import (
	"context"
	"time"

	handler_grpc "guard-core/internal/handler/grpc"
	"guard-core/internal/server/routes"
	"guard-core/pkg/logger"
	"guard-core/pkg/monitor"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// NewGRPCServer 初始化并注册 gRPC 服务
func NewGRPCServer(hooks handler_grpc.Hooks) *grpc.Server {
	monitor.Init()
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(recoverInterceptor, logInterceptor))

	routes.RegisterGuardGRPC(s, hooks)

	// 标准健康检查
	hs := health.NewServer()
	hs.SetServingStatus(handler_grpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	// grpcurl 调试
	reflection.Register(s)

	return s
}

func logInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	elapsed := time.Since(start)
	code := status.Code(err).String()

	monitor.ObserveGRPC(info.FullMethod, code, elapsed)
	logger.Debug("[gRPC] call",
		zap.String("method", info.FullMethod),
		zap.Duration("latency", elapsed),
		zap.String("code", code))
	return resp, err
}

// recoverInterceptor handler panic 转为 Internal, 避免整个进程退出
func recoverInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[gRPC] panic", zap.String("method", info.FullMethod), zap.Any("panic", r), zap.Stack("stack"))
			err = status.Errorf(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}
