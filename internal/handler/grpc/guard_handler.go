package grpc

import (
	"context"
	"errors"

	"guard-core/internal/service"
	"guard-core/pkg/errno"
	"guard-core/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Safe 执行钩子走 gRPC, 供链下执行器在发交易前后调用

type CheckTransactionRequest struct {
	Fingerprint string
}

// CheckTransactionResponse Allowed 为 false 时 Code/Message 给出 errno 原因
type CheckTransactionResponse struct {
	Allowed bool
	Code    int
	Message string
}

type CheckAfterExecutionRequest struct {
	Fingerprint string
	Success     bool
}

type CheckAfterExecutionResponse struct{}

// GuardServer gRPC 服务接口
type GuardServer interface {
	CheckTransaction(ctx context.Context, req *CheckTransactionRequest) (*CheckTransactionResponse, error)
	CheckAfterExecution(ctx context.Context, req *CheckAfterExecutionRequest) (*CheckAfterExecutionResponse, error)
}

// Hooks 由 service.GuardService 实现
type Hooks interface {
	Check(ctx context.Context, fp common.Hash) error
	Executed(ctx context.Context, fp common.Hash, success bool) error
}

// GuardHandler implements GuardServer
type GuardHandler struct {
	hooks Hooks
}

var _ Hooks = (*service.GuardService)(nil)

func NewGuardHandler(hooks Hooks) *GuardHandler {
	return &GuardHandler{hooks: hooks}
}

func parseFingerprint(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, status.Error(codes.InvalidArgument, "fingerprint must be 0x-prefixed 32-byte hex")
	}
	return common.BytesToHash(b), nil
}

// guardErr 业务拒绝之外的错误映射为 gRPC 状态
func guardErr(err error) error {
	if errors.Is(err, errno.ErrUpstream) {
		return status.Error(codes.Unavailable, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func rejection(err error) bool {
	for _, target := range []error{
		errno.ErrNotQueued, errno.ErrDelayNotElapsed, errno.ErrVetoed, errno.ErrSystemFrozen,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (h *GuardHandler) CheckTransaction(ctx context.Context, req *CheckTransactionRequest) (*CheckTransactionResponse, error) {
	fp, err := parseFingerprint(req.Fingerprint)
	if err != nil {
		return nil, err
	}

	err = h.hooks.Check(ctx, fp)
	if err == nil {
		return &CheckTransactionResponse{Allowed: true, Code: errno.OK.Code, Message: errno.OK.Message}, nil
	}
	if rejection(err) {
		code, msg := errno.Decode(err)
		return &CheckTransactionResponse{Allowed: false, Code: code, Message: msg}, nil
	}
	logger.Error("[gRPC] CheckTransaction failed", logger.Fingerprint(fp), zap.Error(err))
	return nil, guardErr(err)
}

func (h *GuardHandler) CheckAfterExecution(ctx context.Context, req *CheckAfterExecutionRequest) (*CheckAfterExecutionResponse, error) {
	fp, err := parseFingerprint(req.Fingerprint)
	if err != nil {
		return nil, err
	}
	if err := h.hooks.Executed(ctx, fp, req.Success); err != nil {
		logger.Error("[gRPC] CheckAfterExecution failed", logger.Fingerprint(fp), zap.Error(err))
		return nil, guardErr(err)
	}
	return &CheckAfterExecutionResponse{}, nil
}

const ServiceName = "guard.v1.GuardService"

func checkTransactionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := dynamicpb.NewMessage(checkTransactionRequestDesc)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req any) (any, error) {
		resp, err := srv.(GuardServer).CheckTransaction(ctx, checkTransactionRequestFrom(req.(protoreflect.ProtoMessage).ProtoReflect()))
		if err != nil {
			return nil, err
		}
		return resp.toProto(), nil
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CheckTransaction"}
	return interceptor(ctx, in, info, handler)
}

func checkAfterExecutionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := dynamicpb.NewMessage(checkAfterExecutionRequestDesc)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req any) (any, error) {
		resp, err := srv.(GuardServer).CheckAfterExecution(ctx, checkAfterExecutionRequestFrom(req.(protoreflect.ProtoMessage).ProtoReflect()))
		if err != nil {
			return nil, err
		}
		return resp.toProto(), nil
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CheckAfterExecution"}
	return interceptor(ctx, in, info, handler)
}

// GuardServiceDesc 手写的服务描述, 消息类型来自 descriptor.go 中的 guard.proto 描述符, 走默认 proto codec
var GuardServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GuardServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CheckTransaction", Handler: checkTransactionHandler},
		{MethodName: "CheckAfterExecution", Handler: checkAfterExecutionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFile,
}

func RegisterGuardServer(s grpc.ServiceRegistrar, srv GuardServer) {
	s.RegisterService(&GuardServiceDesc, srv)
}

// GuardClient 调用方使用的客户端
type GuardClient struct {
	cc grpc.ClientConnInterface
}

func NewGuardClient(cc grpc.ClientConnInterface) *GuardClient {
	return &GuardClient{cc: cc}
}

func (c *GuardClient) CheckTransaction(ctx context.Context, in *CheckTransactionRequest, opts ...grpc.CallOption) (*CheckTransactionResponse, error) {
	out := dynamicpb.NewMessage(checkTransactionResponseDesc)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/CheckTransaction", in.toProto(), out, opts...); err != nil {
		return nil, err
	}
	return checkTransactionResponseFrom(out), nil
}

func (c *GuardClient) CheckAfterExecution(ctx context.Context, in *CheckAfterExecutionRequest, opts ...grpc.CallOption) (*CheckAfterExecutionResponse, error) {
	out := dynamicpb.NewMessage(checkAfterExecutionResponseDesc)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/CheckAfterExecution", in.toProto(), out, opts...); err != nil {
		return nil, err
	}
	return &CheckAfterExecutionResponse{}, nil
}
