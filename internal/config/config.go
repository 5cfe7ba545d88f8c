package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load 加载配置
// 1. 加载 .env.{env}（敏感信息）
// 2. 加载 common.yaml → {env}.yaml
// 3. 环境变量覆盖并构建最终配置
func Load() *Config {
	env := parseEnv(getEnv("APP_ENV", "dev"))
	loadEnvFiles(env)
	return build(env, loadYAMLConfig(env))
}

// build 合并 YAML 与环境变量
func build(env Environment, y *YAMLConfig) *Config {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		y.Database.Driver = v
	}
	databaseURL := firstEnv("DATABASE", "DATABASE_URL", "MONGO_URI")
	driver := detectDatabaseDriver(y.Database.Driver, databaseURL)
	y.Database.Driver = driver
	if databaseURL == "" {
		databaseURL = buildDatabaseURL(y.Database, os.Getenv("DB_PASSWORD"))
	}

	y.Redis.Password = os.Getenv("REDIS_PASSWORD")
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" && y.Redis.Enabled {
		redisURL = buildRedisURL(y.Redis)
	}

	auth := y.Auth
	auth.SessionSecret = os.Getenv("JWT_SECRET")
	auth.ActivationSecret = os.Getenv("JWT_ACCOUNT_ACTIVATION")
	auth.ResetSecret = os.Getenv("JWT_RESET_PASSWORD")
	auth.AdminEmail = os.Getenv("ADMIN_EMAIL")
	auth.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	auth.validate()

	mail := y.Mail
	if v := os.Getenv("MAILER"); v != "" {
		mail.Driver = v
	}
	mail.From = getEnv("EMAIL_FROM", mail.From)
	mail.SendGridToken = os.Getenv("SENDGRID_API_KEY")
	mail.SMTPHost = getEnv("SMTP_HOST", mail.SMTPHost)
	if p, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
		mail.SMTPPort = p
	}
	mail.SMTPUser = getEnv("SMTP_USER", mail.SMTPUser)
	mail.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	if mail.Driver == "" {
		mail.Driver = "log"
		if mail.SendGridToken != "" {
			mail.Driver = "sendgrid"
		}
	}

	return &Config{
		Env:            env,
		Port:           getEnv("PORT", y.Server.Port),
		ClientURL:      getEnv("CLIENT_URL", y.Server.ClientURL),
		DatabaseDriver: driver,
		DatabaseURL:    databaseURL,
		DatabaseName:   getEnv("DATABASE_NAME", y.Database.Name),
		RedisURL:       redisURL,
		Auth:           auth,
		Mail:           mail,
		ConfigFile:     y.loadedFrom,
	}
}

// defaultYAMLConfig 代码默认值
func defaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Server:   ServerConfig{Port: "8000", ClientURL: "http://localhost:3000"},
		Database: DatabaseConfig{Host: "localhost", Port: 27017, Name: "auth_server", SSLMode: "disable"},
		Redis:    RedisConfig{Host: "localhost", Port: 6379, DB: 0},
		Auth: AuthConfig{
			SessionTTL:    7 * 24 * time.Hour,
			ActivationTTL: 10 * time.Minute,
			ResetTTL:      10 * time.Minute,
		},
		Mail: MailConfig{From: "noreply@localhost", Cooldown: 60 * time.Second, SMTPPort: 587},
	}
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → common.yaml → {env}.yaml
func loadYAMLConfig(env Environment) *YAMLConfig {
	cfg := defaultYAMLConfig()

	for _, name := range []string{"common.yaml", fmt.Sprintf("%s.yaml", env)} {
		for _, base := range effectiveConfigPaths(env) {
			path := filepath.Join(base, name)
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				log.Printf("[config] WARNING: failed to parse %s: %v", path, err)
			} else {
				cfg.loadedFrom = path
			}
			break
		}
	}

	return cfg
}

// validate 填充认证默认值
func (a *AuthConfig) validate() {
	if a.SessionTTL <= 0 {
		a.SessionTTL = 7 * 24 * time.Hour
	}
	if a.ActivationTTL <= 0 {
		a.ActivationTTL = 10 * time.Minute
	}
	if a.ResetTTL <= 0 {
		a.ResetTTL = 10 * time.Minute
	}
}

// Validate 检查启动必需项
func (c *Config) Validate() error {
	if c.Auth.SessionSecret == "" || c.Auth.ActivationSecret == "" || c.Auth.ResetSecret == "" {
		return fmt.Errorf("config: JWT_SECRET, JWT_ACCOUNT_ACTIVATION and JWT_RESET_PASSWORD are required")
	}
	if c.Auth.SessionSecret == c.Auth.ActivationSecret || c.Auth.SessionSecret == c.Auth.ResetSecret ||
		c.Auth.ActivationSecret == c.Auth.ResetSecret {
		return fmt.Errorf("config: token signing secrets must be distinct")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: database url is empty")
	}
	return nil
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	redis := c.RedisURL
	if redis == "" {
		redis = "disabled"
	}
	file := c.ConfigFile
	if file == "" {
		file = "defaults"
	}
	return fmt.Sprintf("Config{Env: %s, File: %s, Driver: %s, DB: %s, Redis: %s, Mailer: %s}",
		c.Env, file, c.DatabaseDriver, maskPassword(c.DatabaseURL), maskPassword(redis), c.Mail.Driver)
}
