package main

import (
	"fmt"
	"log"

	"github.com/gametracker/internal/config"
	"github.com/gametracker/internal/db"
	"github.com/gametracker/internal/service"
	"github.com/joho/godotenv"
)

// 演示数据生成器：创建默认管理员与测试玩家并铺一些进度。
// 只在显式运行本工具时写入，服务启动路径不会自动造数据。
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()
	if cfg.Environment != config.EnvDevelopment {
		log.Fatal("seeding is only allowed with APP_ENV=development")
	}

	gdb, err := db.Init(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close(gdb)

	auth := service.NewAuthService(gdb)
	game := service.NewGameService(gdb)

	fmt.Println("开始生成演示数据...")

	createDemoUsers(auth)
	createDemoProgress(auth, game)

	fmt.Println("演示数据生成完成！")
	fmt.Println("管理员: admin (密码: admin123)")
	fmt.Println("玩家: ertbert / mzatt / tinastina (密码: player123)")
}

func createDemoUsers(auth *service.AuthService) {
	accounts := []service.UserInput{
		{Username: "admin", Password: "admin123", Name: "Admin User", Role: db.RoleAdmin},
		{Username: "ertbert", Password: "player123", Name: "Ertbert", Role: db.RolePlayer},
		{Username: "mzatt", Password: "player123", Name: "Mzatt", Role: db.RolePlayer},
		{Username: "tinastina", Password: "player123", Name: "Tinastina", Role: db.RolePlayer},
	}

	for _, account := range accounts {
		if _, err := auth.CreateUser(account); err != nil {
			// 已存在的账号直接跳过，重复执行保持幂等
			log.Printf("skip %s: %v", account.Username, err)
		}
	}
}

func createDemoProgress(auth *service.AuthService, game *service.GameService) {
	categories, err := game.Categories()
	if err != nil {
		log.Fatalf("failed to load categories: %v", err)
	}

	targets := make(map[string]int, len(categories))
	amounts := []int{6, 12, 18, 24}
	for i, category := range categories {
		targets[category.Name] = amounts[i%len(amounts)]
	}

	for _, username := range []string{"ertbert", "mzatt", "tinastina"} {
		if err := game.SetCommitments(username, targets); err != nil {
			log.Printf("skip commitments for %s: %v", username, err)
			continue
		}
		if len(categories) > 0 {
			if _, err := game.AddProgress(username, categories[0].Name, 3, nil); err != nil {
				log.Printf("skip progress for %s: %v", username, err)
			}
		}
	}
}
