package main

import (
	"log"

	"github.com/gametracker/internal/config"
	"github.com/gametracker/internal/db"
	"github.com/gametracker/internal/handler"
	"github.com/gametracker/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env 仅本地开发使用，缺失不算错误
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	gdb, err := db.Init(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	// 通过环境变量引导首个管理员（可选）
	if err := db.EnsureAdmin(gdb, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to ensure admin user: %v", err)
	}

	// 设置并运行 Gin 服务器
	api := handler.NewAPI(gdb)
	r := router.Setup(api, cfg.SessionSecret, cfg.TemplateGlob, cfg.StaticDir)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
