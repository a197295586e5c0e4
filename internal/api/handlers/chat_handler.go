package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jiangnanwaw/AIdialogue/internal/models/catalog"
	chatmodel "github.com/jiangnanwaw/AIdialogue/internal/models/chat"
	"github.com/jiangnanwaw/AIdialogue/internal/services/chat"
)

// Pinger 健康检查探测接口
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChatHandler 处理对话相关请求
type ChatHandler struct {
	service   *chat.Service
	storePing Pinger
	modelPing Pinger
}

// NewChatHandler 创建新的对话处理器
// storePing/modelPing 可以为nil，健康检查相应项跳过
func NewChatHandler(service *chat.Service, storePing, modelPing Pinger) *ChatHandler {
	return &ChatHandler{service: service, storePing: storePing, modelPing: modelPing}
}

// Chat 处理一次问答请求
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatmodel.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "无效的请求数据: " + err.Error()})
		return
	}

	resp := h.service.Answer(c.Request.Context(), req.Question, req.SessionID)
	c.JSON(http.StatusOK, resp)
}

// Health 健康检查：数据库和模型各探测一次
func (h *ChatHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)}
	healthy := true

	if h.storePing != nil {
		if err := h.storePing.Ping(ctx); err != nil {
			status["database"] = "unreachable: " + err.Error()
			healthy = false
		} else {
			status["database"] = "ok"
		}
	}
	if h.modelPing != nil {
		if err := h.modelPing.Ping(ctx); err != nil {
			// 模型不可用不算服务不健康，规则路径仍然能答
			status["model"] = "unreachable: " + err.Error()
		} else {
			status["model"] = "ok"
		}
	}

	if !healthy {
		status["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Tables 返回可查询的数据表目录
func (h *ChatHandler) Tables(c *gin.Context) {
	type tableInfo struct {
		Name     string   `json:"name"`
		Fields   []string `json:"fields"`
		HasSite  bool     `json:"hasSite"`
		Terminal bool     `json:"terminal"`
	}

	var tables []tableInfo
	for _, name := range catalog.Names() {
		src, ok := catalog.Get(name)
		if !ok {
			continue
		}
		tables = append(tables, tableInfo{
			Name:     src.Name,
			Fields:   src.AliasesByLength(),
			HasSite:  src.Site != nil,
			Terminal: src.HasTerminal(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(tables),
		"tables":  tables,
	})
}
