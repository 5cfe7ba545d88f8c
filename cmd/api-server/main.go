// Package main API Server 入口
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auth-server/internal/apiserver/auth"
	"auth-server/internal/apiserver/server"
	"auth-server/internal/config"
	"auth-server/internal/mailer"
	"auth-server/internal/shared/infra"
)

func main() {
	configDir := flag.String("config", "", "配置文件目录（覆盖 CONFIG_DIR）")
	flag.Parse()
	if *configDir != "" {
		config.SetConfigDir(*configDir)
	}

	// 加载配置（.env → YAML → 环境变量）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// 初始化存储与邮件节流
	inf, err := infra.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize infrastructure: %v", err)
	}
	defer inf.Close()

	mail, err := mailer.New(mailer.Config{
		Driver:         mailer.Driver(cfg.Mail.Driver),
		SendGridAPIKey: cfg.Mail.SendGridToken,
		SMTP: mailer.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Username: cfg.Mail.SMTPUser,
			Password: cfg.Mail.SMTPPassword,
		},
	})
	if err != nil {
		log.Fatalf("Failed to initialize mailer: %v", err)
	}
	log.Printf("Mailer: %s", cfg.Mail.Driver)

	authCfg := auth.Config{
		SessionSecret:    cfg.Auth.SessionSecret,
		ActivationSecret: cfg.Auth.ActivationSecret,
		ResetSecret:      cfg.Auth.ResetSecret,
		SessionTTL:       cfg.Auth.SessionTTL,
		ActivationTTL:    cfg.Auth.ActivationTTL,
		ResetTTL:         cfg.Auth.ResetTTL,
		ClientURL:        cfg.ClientURL,
		EmailFrom:        cfg.Mail.From,
	}

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = auth.EnsureAdminUser(bootCtx, inf.Users, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
	bootCancel()
	if err != nil {
		log.Fatalf("Failed to bootstrap admin user: %v", err)
	}

	h := server.NewHandler(inf.Users, mail, inf.Throttle, authCfg, nil)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
