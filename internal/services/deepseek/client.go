package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jiangnanwaw/AIdialogue/internal/services/tableresolver"
)

// ErrUnavailable 模型服务不可达、超时或返回异常
var ErrUnavailable = errors.New("模型服务不可用")

// ErrDisabled 配置中关闭了模型功能
var ErrDisabled = errors.New("模型功能已关闭")

// Config DeepSeek接入配置
type Config struct {
	APIKey  string
	BaseURL string        // 默认 https://api.deepseek.com/v1
	Model   string        // 默认 deepseek-chat
	Timeout time.Duration // 单次调用超时，必须短于请求整体预算
	Enabled bool
}

// Client DeepSeek对话接口客户端
// 模型返回的查询文本一律视为不可信输入，执行前必须净化
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient 创建DeepSeek客户端
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.deepseek.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek-chat"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 25 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled 模型功能是否开启
func (c *Client) Enabled() bool {
	return c.cfg.Enabled
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// chat 发起一次对话补全调用
func (c *Client) chat(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	if !c.cfg.Enabled {
		return "", ErrDisabled
	}

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: 读取响应失败: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: 状态码 %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: 响应格式不正确: %v", ErrUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: 响应没有choices", ErrUnavailable)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// GenerateSQL 把目录、公式示例和方言约束发给模型，
// 由模型对规则覆盖不了的问题自由生成查询文本
func (c *Client) GenerateSQL(ctx context.Context, question string, tables []string, meta tableresolver.Metadata) (string, error) {
	system := BuildSQLPrompt(tables, meta)
	user := fmt.Sprintf("根据以下问题生成SQL查询语句：%s\n\n涉及的表：%s",
		question, strings.Join(tables, ", "))

	log.Printf("调用DeepSeek生成SQL: %s", question)
	reply, err := c.chat(ctx, system, user, 0.1, 1000)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// AnswerGeneral 通用问答：与数据库无关的问题直接转给模型
func (c *Client) AnswerGeneral(ctx context.Context, question string) (string, error) {
	if !c.cfg.Enabled {
		return DisabledReply, nil
	}
	reply, err := c.chat(ctx, GeneralSystemPrompt, question, 0.7, 800)
	if err != nil {
		log.Printf("DeepSeek通用问答失败: %v", err)
		return "", err
	}
	return reply, nil
}

// Ping 探测模型服务可达性
func (c *Client) Ping(ctx context.Context) error {
	if !c.cfg.Enabled {
		return ErrDisabled
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: 状态码 %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}
