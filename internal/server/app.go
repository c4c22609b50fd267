package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guard-core/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const defaultShutdownTimeout = 10 * time.Second

type Config struct {
	HttpPort        string
	GrpcPort        string
	ShutdownTimeout time.Duration
}

// App 同进程内运行 HTTP (管理/投票接口) 与 gRPC (Safe 执行钩子)
type App struct {
	httpServer      *http.Server
	httpListener    net.Listener
	grpcServer      *grpc.Server
	grpcListener    net.Listener
	shutdownTimeout time.Duration
}

// New 预先绑定两个端口, 端口被占用时直接返回错误
func New(cfg Config, httpHandler *gin.Engine, grpcServer *grpc.Server) (*App, error) {
	httpLis, err := net.Listen("tcp", ":"+cfg.HttpPort)
	if err != nil {
		return nil, fmt.Errorf("listen http port %s: %w", cfg.HttpPort, err)
	}
	grpcLis, err := net.Listen("tcp", ":"+cfg.GrpcPort)
	if err != nil {
		_ = httpLis.Close()
		return nil, fmt.Errorf("listen grpc port %s: %w", cfg.GrpcPort, err)
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &App{
		httpServer: &http.Server{
			Handler:           httpHandler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		httpListener:    httpLis,
		grpcServer:      grpcServer,
		grpcListener:    grpcLis,
		shutdownTimeout: timeout,
	}, nil
}

func (a *App) HTTPAddr() net.Addr { return a.httpListener.Addr() }
func (a *App) GRPCAddr() net.Addr { return a.grpcListener.Addr() }

// Run 阻塞直到收到退出信号, ctx 被取消或任一服务异常退出
// 正常关闭返回 nil
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	// 1. HTTP
	go func() {
		logger.Info("Starting HTTP Server", zap.String("addr", a.httpListener.Addr().String()))
		if err := a.httpServer.Serve(a.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// 2. gRPC
	go func() {
		logger.Info("Starting gRPC Server", zap.String("addr", a.grpcListener.Addr().String()))
		if err := a.grpcServer.Serve(a.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	// 3. 等待退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		logger.Info("Received signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	case runErr = <-errCh:
		logger.Error("Server failure", zap.Error(runErr))
	}
	logger.Info("Shutting down server...")

	// 4. 优雅关闭: 先停 HTTP, 再等待进行中的 gRPC 钩子调用结束
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	stopped := make(chan struct{})
	go func() {
		a.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		logger.Warn("gRPC graceful stop timed out, forcing")
		a.grpcServer.Stop()
	}

	logger.Info("Server exited properly")
	return runErr
}
