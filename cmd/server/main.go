package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jiangnanwaw/AIdialogue/config"
	"github.com/jiangnanwaw/AIdialogue/internal/api"
	"github.com/jiangnanwaw/AIdialogue/internal/api/handlers"
	"github.com/jiangnanwaw/AIdialogue/internal/database"
	"github.com/jiangnanwaw/AIdialogue/internal/services/chat"
	"github.com/jiangnanwaw/AIdialogue/internal/services/conversation"
	"github.com/jiangnanwaw/AIdialogue/internal/services/deepseek"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 连接经营数据库
	store, err := database.NewSQLServer(database.SQLServerConfig{
		Host:         cfg.SQLServer.Host,
		Port:         cfg.SQLServer.Port,
		User:         cfg.SQLServer.User,
		Password:     cfg.SQLServer.Password,
		Database:     cfg.SQLServer.Database,
		QueryTimeout: cfg.SQLServer.QueryTimeout,
	})
	if err != nil {
		log.Fatalf("连接SQL Server失败: %v", err)
	}
	defer store.Close()

	// 模型客户端
	model := deepseek.NewClient(deepseek.Config{
		APIKey:  cfg.DeepSeek.APIKey,
		BaseURL: cfg.DeepSeek.BaseURL,
		Model:   cfg.DeepSeek.Model,
		Timeout: cfg.DeepSeek.Timeout,
		Enabled: cfg.DeepSeek.Enabled,
	})

	// 对话服务
	service := chat.NewService(store, model)
	service.SetWindowProvider(database.NewValidityCache(store, cfg.Validity.TTL, nil))

	// 对话留痕（可选，连不上只降级不退出）
	if cfg.MongoDB.Enabled {
		mongoDB, err := database.NewMongoDB(database.MongoConfig{
			URI:         cfg.MongoDB.URI,
			DBName:      cfg.MongoDB.Database,
			Timeout:     cfg.MongoDB.Timeout,
			MaxPoolSize: cfg.MongoDB.MaxPoolSize,
		})
		if err != nil {
			log.Printf("连接MongoDB失败，对话留痕关闭: %v", err)
		} else {
			defer mongoDB.Close()
			recorder, err := conversation.NewService(mongoDB)
			if err != nil {
				log.Printf("初始化对话留痕失败: %v", err)
			} else {
				service.SetRecorder(recorder)
			}
		}
	}

	// 设置API路由
	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	api.SetupRoutes(router, handlers.NewChatHandler(service, store, model))

	// 启动HTTP服务器
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("启动服务器失败: %v", err)
		}
	}()

	log.Printf("服务器已启动，监听地址: %s", cfg.Server.Address)

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	// kill (无参数) 默认发送 syscall.SIGTERM
	// kill -2 发送 syscall.SIGINT
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务器强制关闭: %v", err)
	}
	log.Println("服务器已退出")
}
