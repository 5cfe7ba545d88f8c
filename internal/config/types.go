// Package config 统一配置管理
//
// 配置加载优先级（高→低）：
//  1. 环境变量（通过 .env 文件或 shell/systemd 注入）
//  2. YAML 配置文件（common.yaml → {env}.yaml）
//  3. 代码硬编码默认值
//
// 凭据单一数据源：
//
//	JWT 密钥、邮件 API Key、数据库密码只从环境变量读取，YAML 中不存储任何密钥。
//
// 环境：
//   - 开发: APP_ENV=dev → configs/dev.yaml + .env.dev
//   - 测试: APP_ENV=test → configs/test.yaml + .env.test
//   - 生产: APP_ENV=prod → /etc/auth-server/prod.yaml
package config

import "time"

// Environment 环境类型
type Environment string

const (
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
	EnvDevelopment Environment = "dev"
)

// YAMLConfig YAML 配置文件结构
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Mail     MailConfig     `yaml:"mail"`

	loadedFrom string // 最后成功解析的文件路径
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port      string `yaml:"port"`
	ClientURL string `yaml:"client_url"` // 前端地址，用于拼接激活/重置链接
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver  string `yaml:"driver"` // mongodb（默认）/ sqlite / postgres
	URI     string `yaml:"uri"`    // 完整连接串，优先于 host/port
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	User    string `yaml:"user"`
	Name    string `yaml:"name"`
	SSLMode string `yaml:"sslmode"`
	Path    string `yaml:"path"` // sqlite 文件路径
}

// RedisConfig Redis 配置（可选，用于邮件节流）
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       int    `yaml:"db"`
	Password string `yaml:"-"`
}

// AuthConfig 认证配置
// 注意：三个签名密钥与管理员凭据只从环境变量读取
type AuthConfig struct {
	SessionSecret    string `yaml:"-"` // JWT_SECRET
	ActivationSecret string `yaml:"-"` // JWT_ACCOUNT_ACTIVATION
	ResetSecret      string `yaml:"-"` // JWT_RESET_PASSWORD

	SessionTTL    time.Duration `yaml:"session_ttl"`
	ActivationTTL time.Duration `yaml:"activation_ttl"`
	ResetTTL      time.Duration `yaml:"reset_ttl"`

	AdminEmail    string `yaml:"-"` // ADMIN_EMAIL
	AdminPassword string `yaml:"-"` // ADMIN_PASSWORD
}

// MailConfig 邮件配置
type MailConfig struct {
	Driver        string        `yaml:"driver"` // sendgrid / smtp / log
	From          string        `yaml:"from"`
	Cooldown      time.Duration `yaml:"cooldown"`
	SMTPHost      string        `yaml:"smtp_host"`
	SMTPPort      int           `yaml:"smtp_port"`
	SMTPUser      string        `yaml:"smtp_user"`
	SMTPPassword  string        `yaml:"-"`
	SendGridToken string        `yaml:"-"` // SENDGRID_API_KEY
}

// Config 应用配置（最终使用的配置）
type Config struct {
	Env            Environment
	Port           string
	ClientURL      string
	DatabaseDriver string
	DatabaseURL    string
	DatabaseName   string
	RedisURL       string // 为空表示不启用 Redis
	Auth           AuthConfig
	Mail           MailConfig
	ConfigFile     string // 最后生效的 YAML 文件，为空表示仅使用默认值
}
