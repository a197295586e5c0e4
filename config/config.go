package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 包含应用程序的所有配置
type Config struct {
	// Server 包含HTTP服务器配置
	Server struct {
		Address string `mapstructure:"address"` // 服务器监听地址，如 :8080
		Mode    string `mapstructure:"mode"`    // Gin模式: debug, release, test
	} `mapstructure:"server"`

	// SQLServer 包含经营数据库连接配置
	SQLServer struct {
		Host         string        `mapstructure:"host"`
		Port         int           `mapstructure:"port"`
		User         string        `mapstructure:"user"`
		Password     string        `mapstructure:"password"`
		Database     string        `mapstructure:"database"`
		QueryTimeout time.Duration `mapstructure:"query_timeout"` // 单条查询超时(秒)
	} `mapstructure:"sqlserver"`

	// MongoDB 包含对话日志存储配置
	MongoDB struct {
		URI         string        `mapstructure:"uri"`           // MongoDB连接URI
		Database    string        `mapstructure:"database"`      // 数据库名称
		Timeout     time.Duration `mapstructure:"timeout"`       // 连接超时(秒)
		MaxPoolSize uint64        `mapstructure:"max_pool_size"` // 最大连接池大小
		Enabled     bool          `mapstructure:"enabled"`       // 关闭时不留痕
	} `mapstructure:"mongodb"`

	// DeepSeek 包含模型兜底配置
	DeepSeek struct {
		APIKey  string        `mapstructure:"api_key"`
		BaseURL string        `mapstructure:"base_url"`
		Model   string        `mapstructure:"model"`
		Timeout time.Duration `mapstructure:"timeout"` // 单次调用超时(秒)
		Enabled bool          `mapstructure:"enabled"`
	} `mapstructure:"deepseek"`

	// Validity 数据有效期探测配置
	Validity struct {
		TTL time.Duration `mapstructure:"ttl"` // 缓存时长(分钟)
	} `mapstructure:"validity"`
}

// Load 从配置文件加载配置
func Load() (*Config, error) {
	// 设置默认值
	setDefaults()

	// 设置配置文件名
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// 添加配置文件路径
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("../config")

	// 读取环境变量
	viper.AutomaticEnv()

	// 读取配置文件，没有配置文件时全部使用默认值
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 时长字段按约定单位换算
	config.SQLServer.QueryTimeout *= time.Second
	config.MongoDB.Timeout *= time.Second
	config.DeepSeek.Timeout *= time.Second
	config.Validity.TTL *= time.Minute

	return &config, nil
}

// setDefaults 设置配置默认值
func setDefaults() {
	// 服务器默认设置
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.mode", "release")

	// SQL Server默认设置
	viper.SetDefault("sqlserver.host", "localhost")
	viper.SetDefault("sqlserver.port", 1433)
	viper.SetDefault("sqlserver.database", "chargingdata")
	viper.SetDefault("sqlserver.query_timeout", 25) // 25秒

	// MongoDB默认设置
	viper.SetDefault("mongodb.uri", "mongodb://localhost:27017/?directConnection=true")
	viper.SetDefault("mongodb.database", "aidialogue")
	viper.SetDefault("mongodb.timeout", 20) // 20秒
	viper.SetDefault("mongodb.max_pool_size", 100)
	viper.SetDefault("mongodb.enabled", true)

	// DeepSeek默认设置
	viper.SetDefault("deepseek.base_url", "https://api.deepseek.com/v1")
	viper.SetDefault("deepseek.model", "deepseek-chat")
	viper.SetDefault("deepseek.timeout", 25) // 25秒
	viper.SetDefault("deepseek.enabled", true)

	// 有效期缓存默认设置
	viper.SetDefault("validity.ttl", 60) // 60分钟
}
