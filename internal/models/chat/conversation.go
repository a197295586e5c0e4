package chat

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request 对话接口的请求体
type Request struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"sessionId"`
}

// Response 对话接口的响应体
type Response struct {
	Success   bool   `json:"success"`
	Reply     string `json:"reply"`
	SQL       string `json:"sql,omitempty"`
	Method    string `json:"method,omitempty"`
	SessionID string `json:"sessionId"`
}

// ConversationLog 一次问答的留痕记录
// 写入失败不影响答复，只用于排障和复盘
type ConversationLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID  string             `bson:"session_id" json:"sessionId"`
	Question   string             `bson:"question" json:"question"`
	Method     string             `bson:"method" json:"method"`
	SQL        string             `bson:"sql,omitempty" json:"sql,omitempty"`
	Reply      string             `bson:"reply" json:"reply"`
	RowCount   int                `bson:"row_count" json:"rowCount"`
	DurationMS int64              `bson:"duration_ms" json:"durationMs"`
	Error      string             `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}
