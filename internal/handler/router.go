package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vakeelhq/vakeel/internal/middleware"
)

type RouterDeps struct {
	Search         *SearchHandler
	Chat           *ChatHandler
	Health         *HealthHandler
	Resources      *ResourceHandler
	ChatRateWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", deps.Health.Health)
	api.POST("/search", deps.Search.Search)
	api.POST("/chat", middleware.RateLimit(deps.ChatRateWindow), deps.Chat.Chat)
	api.GET("/resources", deps.Resources.List)
	api.GET("/resources/:id", deps.Resources.Get)
	api.DELETE("/resources/:id", deps.Resources.Delete)
}
