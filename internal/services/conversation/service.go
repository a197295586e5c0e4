package conversation

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jiangnanwaw/AIdialogue/internal/database"
	"github.com/jiangnanwaw/AIdialogue/internal/models/chat"
)

// collectionName 对话日志集合名称
const collectionName = "conversation_logs"

// Service 提供对话日志的存取功能
type Service struct {
	collection *mongo.Collection
}

// NewService 创建对话日志服务
// 参数:
//   - db: MongoDB连接
//
// 返回:
//   - 服务实例和可能的错误
func NewService(db *database.MongoDB) (*Service, error) {
	if err := db.EnsureCollection(collectionName); err != nil {
		return nil, fmt.Errorf("初始化对话日志集合失败: %w", err)
	}

	coll := db.Collection(collectionName)

	// 按会话和时间建索引，Recent查询走索引
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "session_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("创建对话日志索引失败: %w", err)
	}

	return &Service{collection: coll}, nil
}

// Save 写入一条对话记录
func (s *Service) Save(ctx context.Context, record *chat.ConversationLog) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("写入对话记录失败: %w", err)
	}
	return nil
}

// Recent 查询指定会话最近的若干条记录，按时间倒序
func (s *Service) Recent(ctx context.Context, sessionID string, limit int64) ([]chat.ConversationLog, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, fmt.Errorf("查询对话记录失败: %w", err)
	}
	defer cursor.Close(ctx)

	var records []chat.ConversationLog
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("解析对话记录失败: %w", err)
	}
	return records, nil
}
