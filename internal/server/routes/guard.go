package routes

import (
	"guard-core/internal/handler"

	"github.com/gin-gonic/gin"
)

// RegisterGuardRoutes 注册交易队列与 Guard 路由
func RegisterGuardRoutes(rg *gin.RouterGroup, h *handler.GuardHandler) {
	tx := rg.Group("/transactions")
	{
		tx.POST("/fingerprint", h.Fingerprint)
		tx.POST("/queue", h.Queue)
		tx.GET("/:fingerprint", h.Status)
		tx.POST("/:fingerprint/votes", h.Vote)
	}

	g := rg.Group("/guard")
	{
		g.POST("/check", h.Check)
		g.POST("/executed", h.Executed)
		g.GET("/freeze", h.Freeze)
		g.GET("/config", h.Config)
	}
}
