package response

import (
	"net/http"

	"guard-core/pkg/errno"
	"guard-core/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一返回结构, HTTP 状态码恒为 200, 结果以 code 区分
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Data    any    `json:"data"`
}

// ErrorData 失败时附带的信息
// Retryable 为 true 表示条件会随时间满足 (延迟未到, 系统冻结中), 客户端可稍后重试
type ErrorData struct {
	Retryable bool `json:"retryable"`
}

func Success(c *gin.Context, data any) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(http.StatusOK, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// Error 业务错误返回稳定的 reason string; 系统错误记录日志, 未归类的错误不向外暴露细节
func Error(c *gin.Context, err error) {
	code, msg := errno.Decode(err)
	if systemCode(code) {
		logger.Warn("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("code", code),
			zap.Error(err),
		)
		if code == errno.InternalServerError.Code {
			msg = errno.InternalServerError.Message
		}
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: msg,
		Data:    ErrorData{Retryable: errno.Retryable(err)},
	})
}

func systemCode(code int) bool {
	return code >= errno.InternalServerError.Code && code < 20000 && code != errno.ErrBind.Code
}
