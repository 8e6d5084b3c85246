package router

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/gametracker/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// 会话 cookie 固定 7 天有效，与服务端会话过期时间一致
const sessionCookieMaxAge = 7 * 24 * 60 * 60

// Setup 配置 Gin 引擎和路由。
// templateGlob/staticDir 为空时跳过对应装载，便于测试注入自己的模板。
func Setup(api *handler.API, sessionSecret, templateGlob, staticDir string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件：cookie 只携带不透明 token，属性按规范固定
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("session", store))
	r.Use(api.LoadUser())

	// 加载模板并添加自定义函数
	r.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"clampPercent": func(p float64) float64 {
			if p < 0 {
				return 0
			}
			if p > 100 {
				return 100
			}
			return p
		},
		"formatPercent": func(p float64) string {
			return fmt.Sprintf("%.1f", p)
		},
		"rankClass": func(rank int) string {
			switch rank {
			case 1:
				return "rank-gold"
			case 2:
				return "rank-silver"
			case 3:
				return "rank-bronze"
			default:
				return "rank-default"
			}
		},
	})
	if templateGlob != "" {
		r.LoadHTMLGlob(templateGlob)
	}

	// 静态文件服务
	if staticDir != "" {
		r.Static("/static", staticDir)
	}

	// 公共页面
	r.GET("/", api.ShowHome)
	r.GET("/dashboard", api.ShowDashboard)
	r.GET("/unauthorized", api.ShowUnauthorized)

	// 登录注册
	r.GET("/login", api.ShowLogin)
	r.POST("/login", api.Login)
	r.GET("/register", api.ShowRegister)
	r.POST("/register", api.Register)
	r.GET("/logout", api.Logout)
	r.POST("/logout", api.Logout)

	// 玩家个人页：查看公开，提交需要登录
	r.GET("/player/:username", api.ShowPlayer)
	authed := r.Group("")
	authed.Use(api.RequireUser())
	{
		authed.POST("/player/:username/progress", api.SubmitProgress)
		authed.POST("/player/:username/commitments", api.SubmitCommitments)
	}

	// 后台管理路由
	admin := r.Group("/admin")
	admin.Use(api.RequireAdmin())
	{
		admin.GET("", api.ShowAdmin)
		admin.GET("/users", api.ShowAdminUsers)
		admin.POST("/users", api.CreateUser)
		admin.POST("/categories", api.CreateCategory)
		admin.GET("/settings", api.ShowSettings)
		admin.POST("/settings", api.UpdateSettings)
	}

	return r
}
