package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB 结构体封装了MongoDB连接相关功能
// 这里只存对话日志，经营数据都在SQL Server里
type MongoDB struct {
	// Client 是MongoDB客户端连接
	Client *mongo.Client

	// Database 是当前使用的数据库
	Database *mongo.Database

	// DBName 是数据库名称
	DBName string
}

// MongoConfig 表示MongoDB配置选项
type MongoConfig struct {
	// URI 是MongoDB连接字符串，例如"mongodb://localhost:27017"
	URI string

	// DBName 是要使用的数据库名称
	DBName string

	// Timeout 是连接超时时间
	Timeout time.Duration

	// MaxPoolSize 是连接池的最大大小
	MaxPoolSize uint64
}

// NewMongoDB 创建并初始化一个新的MongoDB连接
// 参数:
//   - cfg: MongoDB连接配置
//
// 返回:
//   - MongoDB实例和可能的错误
func NewMongoDB(cfg MongoConfig) (*MongoDB, error) {
	// 如果没有设置超时，使用默认10秒
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		clientOptions.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("连接MongoDB失败: %w", err)
	}

	// 验证连接是否成功
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("无法ping MongoDB: %w", err)
	}

	log.Printf("已成功连接到MongoDB数据库: %s", cfg.DBName)

	return &MongoDB{
		Client:   client,
		Database: client.Database(cfg.DBName),
		DBName:   cfg.DBName,
	}, nil
}

// Close 关闭MongoDB连接
// 应在应用程序结束时调用此方法以释放资源
func (m *MongoDB) Close() error {
	if m.Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.Client.Disconnect(ctx); err != nil {
			return fmt.Errorf("关闭MongoDB连接失败: %w", err)
		}
		log.Print("MongoDB连接已关闭")
	}
	return nil
}

// Collection 获取指定名称的集合
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.Database.Collection(name)
}

// EnsureCollection 确保集合存在，如不存在则创建
// 参数:
//   - name: 集合名称
//
// 返回:
//   - 可能出现的错误
func (m *MongoDB) EnsureCollection(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	collections, err := m.Database.ListCollectionNames(ctx, map[string]interface{}{"name": name})
	if err != nil {
		return fmt.Errorf("列出集合失败: %w", err)
	}
	for _, coll := range collections {
		if coll == name {
			return nil
		}
	}

	if err := m.Database.CreateCollection(ctx, name); err != nil {
		return fmt.Errorf("创建集合 %s 失败: %w", name, err)
	}
	log.Printf("已成功创建集合: %s", name)
	return nil
}
