package config

import (
	"fmt"
	"os"
	"strings"
)

// 环境标识，控制是否允许演示数据等开发期行为
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string
	Port          string
	DatabasePath  string
	SessionSecret string
	GinMode       string
	Environment   string
	TemplateGlob  string
	StaticDir     string
	AdminUsername string
	AdminPassword string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "gametracker.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = "gametracker-dev-secret"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	environment := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))
	if environment != EnvDevelopment {
		environment = EnvProduction
	}

	templateGlob := strings.TrimSpace(os.Getenv("TEMPLATE_GLOB"))
	if templateGlob == "" {
		templateGlob = "web/template/*.html"
	}

	staticDir := strings.TrimSpace(os.Getenv("STATIC_DIR"))
	if staticDir == "" {
		staticDir = "web/static"
	}

	adminUsername := strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))
	adminPassword := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))

	return AppConfig{
		ListenAddr:    listenAddr,
		Port:          port,
		DatabasePath:  databasePath,
		SessionSecret: sessionSecret,
		GinMode:       ginMode,
		Environment:   environment,
		TemplateGlob:  templateGlob,
		StaticDir:     staticDir,
		AdminUsername: adminUsername,
		AdminPassword: adminPassword,
	}
}
