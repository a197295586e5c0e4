package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
)

// SQLServerConfig SQL Server连接配置
type SQLServerConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	QueryTimeout time.Duration // 单条查询超时，必须短于请求整体预算
}

// SQLServer 封装经营数据库（SQL Server 2008 R2）连接
// 查询文本由上层生成，这里只负责执行和行集转换
type SQLServer struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewSQLServer 创建SQL Server连接
func NewSQLServer(cfg SQLServerConfig) (*SQLServer, error) {
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = 25 * time.Second
	}

	// 构建DSN
	dsn := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		RawQuery: url.Values{
			"database": {cfg.Database},
			"encrypt":  {"disable"},
		}.Encode(),
	}

	db, err := sql.Open("sqlserver", dsn.String())
	if err != nil {
		return nil, fmt.Errorf("连接SQL Server失败: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Minute * 3)

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("SQL Server无响应: %w", err)
	}

	log.Printf("已成功连接到SQL Server数据库: %s", cfg.Database)
	return &SQLServer{db: db, queryTimeout: cfg.QueryTimeout}, nil
}

// Close 关闭连接
func (s *SQLServer) Close() error {
	return s.db.Close()
}

// Ping 探测数据库可达性
func (s *SQLServer) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Query 执行一条查询，返回行集和列顺序
// 超时或被引擎拒绝时返回错误，由调用方决定如何向用户解释；
// 这里不做任何重试
func (s *SQLServer) Query(ctx context.Context, query string) ([]map[string]interface{}, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("数据库查询失败: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("读取结果列失败: %w", err)
	}

	var result []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, nil, fmt.Errorf("读取结果行失败: %w", err)
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			// 驱动把NVARCHAR返回为[]byte，统一转成string
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("遍历结果失败: %w", err)
	}

	return result, columns, nil
}
