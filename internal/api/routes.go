package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jiangnanwaw/AIdialogue/internal/api/handlers"
)

// SetupRoutes 配置所有API路由
func SetupRoutes(r *gin.Engine, chatHandler *handlers.ChatHandler) {
	// 使用gin-contrib/cors库配置CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "Accept", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	apiRoutes := r.Group("/api")
	{
		apiRoutes.POST("/chat", chatHandler.Chat)
		apiRoutes.GET("/health", chatHandler.Health)
		apiRoutes.GET("/tables", chatHandler.Tables)
	}
}
