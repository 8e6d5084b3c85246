package handler

import (
	"errors"
	"net/http"

	"github.com/gametracker/internal/db"
	"github.com/gametracker/internal/service"
	"github.com/gin-gonic/gin"
)

// ShowAdmin 渲染后台总览：玩家、分类与排行榜预览
func (a *API) ShowAdmin(c *gin.Context) {
	users, err := a.auth.ListUsers()
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "admin.html", gin.H{
			"title": "Admin",
			"error": "Could not load users",
		})
		return
	}

	players := make([]db.User, 0, len(users))
	for _, user := range users {
		if user.Role == db.RolePlayer {
			players = append(players, user)
		}
	}

	categories, err := a.game.Categories()
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "admin.html", gin.H{
			"title": "Admin",
			"error": "Could not load categories",
		})
		return
	}

	leaderboard, err := a.game.SummaryUsers()
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "admin.html", gin.H{
			"title": "Admin",
			"error": "Could not load leaderboard",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "admin.html", gin.H{
		"title":       "Admin",
		"players":     players,
		"categories":  categories,
		"leaderboard": leaderboard,
	})
}

// ShowAdminUsers 渲染后台用户管理页
func (a *API) ShowAdminUsers(c *gin.Context) {
	a.renderAdminUsers(c, http.StatusOK, "", "")
}

// CreateUser 处理后台建号表单，管理员可以创建任意角色
func (a *API) CreateUser(c *gin.Context) {
	input := service.UserInput{
		Username: trimmedPostForm(c, "username"),
		Password: c.PostForm("password"),
		Name:     trimmedPostForm(c, "name"),
		Role:     trimmedPostForm(c, "role"),
	}

	user, err := a.auth.CreateUser(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateUsername):
			a.renderAdminUsers(c, http.StatusBadRequest, "Username is already taken", "")
		case errors.Is(err, service.ErrUserInvalid):
			a.renderAdminUsers(c, http.StatusBadRequest, "Check the form: all fields are required, password needs 6+ characters", "")
		default:
			a.renderAdminUsers(c, http.StatusInternalServerError, "Could not create user", "")
		}
		return
	}

	a.renderAdminUsers(c, http.StatusOK, "", "Created "+user.Username)
}

// CreateCategory 处理后台新增分类表单
func (a *API) CreateCategory(c *gin.Context) {
	name := trimmedPostForm(c, "name")
	unit := trimmedPostForm(c, "unit")

	if _, err := a.game.CreateCategory(name, unit); err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateCategory):
			a.renderHTML(c, http.StatusBadRequest, "admin.html", gin.H{
				"title": "Admin",
				"error": "Category already exists",
			})
		case errors.Is(err, service.ErrCategoryInvalid):
			a.renderHTML(c, http.StatusBadRequest, "admin.html", gin.H{
				"title": "Admin",
				"error": "Category name and unit are required",
			})
		default:
			a.renderHTML(c, http.StatusInternalServerError, "admin.html", gin.H{
				"title": "Admin",
				"error": "Could not create category",
			})
		}
		return
	}

	c.Redirect(http.StatusFound, "/admin")
}

// ShowSettings 渲染站点设置页：站点名称与玩法说明 Markdown
func (a *API) ShowSettings(c *gin.Context) {
	settings, err := a.settings.GetSettings()
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "admin_settings.html", gin.H{
			"title": "Settings",
			"error": "Could not load settings",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "admin_settings.html", gin.H{
		"title":    "Settings",
		"settings": settings,
	})
}

// UpdateSettings 保存站点设置
func (a *API) UpdateSettings(c *gin.Context) {
	updated, err := a.settings.UpdateSettings(service.SiteSettingsInput{
		SiteName:      trimmedPostForm(c, "siteName"),
		RulesMarkdown: c.PostForm("rulesMarkdown"),
	})
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "admin_settings.html", gin.H{
			"title": "Settings",
			"error": "Could not save settings",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "admin_settings.html", gin.H{
		"title":    "Settings",
		"settings": updated,
		"success":  "Settings saved",
	})
}

func (a *API) renderAdminUsers(c *gin.Context, status int, formError, success string) {
	users, err := a.auth.ListUsers()
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "admin_users.html", gin.H{
			"title": "Users",
			"error": "Could not load users",
		})
		return
	}

	a.renderHTML(c, status, "admin_users.html", gin.H{
		"title":     "Users",
		"users":     users,
		"formError": formError,
		"success":   success,
	})
}
