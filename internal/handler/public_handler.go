package handler

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// renderMarkdown 将玩法说明的 Markdown 原文渲染为净化后的 HTML
func renderMarkdown(source string) template.HTML {
	if source == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return ""
	}

	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

// ShowHome 渲染首页：玩家列表与玩法说明
func (a *API) ShowHome(c *gin.Context) {
	users, err := a.auth.ListUsers()
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "home.html", gin.H{
			"title": "Home",
			"error": "Could not load players",
		})
		return
	}

	settings := a.siteSettings(c)

	a.renderHTML(c, http.StatusOK, "home.html", gin.H{
		"title":     "Home",
		"players":   users,
		"rulesHTML": renderMarkdown(settings.RulesMarkdown),
	})
}

// ShowDashboard 渲染排行榜：玩家按总体完成率降序
func (a *API) ShowDashboard(c *gin.Context) {
	summaries, err := a.game.SummaryUsers()
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "dashboard.html", gin.H{
			"title": "Leaderboard",
			"error": "Could not load leaderboard",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "dashboard.html", gin.H{
		"title":   "Leaderboard",
		"players": summaries,
	})
}

// ShowUnauthorized 渲染无权限提示页
func (a *API) ShowUnauthorized(c *gin.Context) {
	a.renderHTML(c, http.StatusForbidden, "unauthorized.html", gin.H{
		"title": "Unauthorized",
	})
}

// renderNotFound 渲染 404 错误页
func (a *API) renderNotFound(c *gin.Context, message string) {
	a.renderHTML(c, http.StatusNotFound, "error.html", gin.H{
		"title":   "Not found",
		"status":  http.StatusNotFound,
		"message": message,
	})
}
