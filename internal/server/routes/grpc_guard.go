package routes

import (
	handler_grpc "guard-core/internal/handler/grpc"

	"google.golang.org/grpc"
)

// RegisterGuardGRPC 注册 Safe 执行钩子 gRPC 服务
func RegisterGuardGRPC(s *grpc.Server, hooks handler_grpc.Hooks) {
	handler_grpc.RegisterGuardServer(s, handler_grpc.NewGuardHandler(hooks))
}
