package handler

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"guard-core/internal/handler/response"
	"guard-core/pkg/errno"

	"github.com/gin-gonic/gin"
)

// Version 由构建时 -ldflags "-X guard-core/internal/handler.Version=..." 注入
var Version = "dev"

// Checker 依赖可用性检查, nil 表示可用
type Checker func(ctx context.Context) error

// CheckResult 单个依赖的检查结果
type CheckResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Latency string `json:"latency"`
	Error   string `json:"error,omitempty"`
}

type HealthHandler struct {
	checkers map[string]Checker
	timeout  time.Duration
}

// NewHealthHandler checkers 如 postgres / redis / rpc
func NewHealthHandler(checkers map[string]Checker) *HealthHandler {
	return &HealthHandler{checkers: checkers, timeout: 2 * time.Second}
}

// Live 存活检查
func (h *HealthHandler) Live(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"version": Version,
		"service": "guard-server",
	})
}

// Ready 并发检查全部依赖; 任一不可用时返回 503, 供负载均衡摘除实例
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	results := h.check(ctx)
	ready := true
	for _, r := range results {
		if r.Status != "UP" {
			ready = false
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, response.Response{
			Code:    errno.ErrUpstream.Code,
			Message: "DOWN",
			Data:    results,
		})
		return
	}
	response.Success(c, results)
}

func (h *HealthHandler) check(ctx context.Context) []CheckResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make([]CheckResult, 0, len(h.checkers))
	)
	for name, checker := range h.checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()
			start := time.Now()
			err := checker(ctx)

			r := CheckResult{Name: name, Status: "UP", Latency: time.Since(start).Round(time.Microsecond).String()}
			if err != nil {
				r.Status = "DOWN"
				r.Error = err.Error()
			}
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}
