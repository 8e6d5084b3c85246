package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gametracker/internal/service"
	"github.com/gin-gonic/gin"
)

// ShowPlayer 渲染玩家个人页：分类完成状况、总进度与历史记录。
// 尚未设置目标时展示目标设置表单。
func (a *API) ShowPlayer(c *gin.Context) {
	a.renderPlayerPage(c, c.Param("username"), http.StatusOK, "")
}

// SubmitProgress 处理个人页的进度提交。
// 只有本人或管理员可以录入，管理员代录会记下操作人。
func (a *API) SubmitProgress(c *gin.Context) {
	username := c.Param("username")

	viewer, ok := a.currentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	owner, err := a.auth.GetUser(username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			a.renderNotFound(c, fmt.Sprintf("Player %q not found", username))
			return
		}
		a.renderPlayerPage(c, username, http.StatusInternalServerError, "Something went wrong, try again")
		return
	}

	if !a.auth.CanEditUser(viewer, owner.ID) {
		c.Redirect(http.StatusFound, "/unauthorized")
		return
	}

	category := trimmedPostForm(c, "category")
	amount, err := parseIntForm(c, "amount")
	if category == "" || err != nil {
		a.renderPlayerPage(c, username, http.StatusBadRequest, "Pick a category and a whole number amount")
		return
	}

	var addedBy *uint
	if viewer.ID != owner.ID {
		addedBy = &viewer.ID
	}

	if _, err := a.game.AddProgress(username, category, amount, addedBy); err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			a.renderPlayerPage(c, username, http.StatusBadRequest, fmt.Sprintf("Unknown category %q", category))
		case errors.Is(err, service.ErrUserNotFound):
			a.renderNotFound(c, fmt.Sprintf("Player %q not found", username))
		default:
			a.renderPlayerPage(c, username, http.StatusInternalServerError, "Could not save progress")
		}
		return
	}

	c.Redirect(http.StatusFound, "/player/"+username)
}

// SubmitCommitments 处理目标设置表单：每个分类一个输入框，整组一起生效
func (a *API) SubmitCommitments(c *gin.Context) {
	username := c.Param("username")

	viewer, ok := a.currentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	owner, err := a.auth.GetUser(username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			a.renderNotFound(c, fmt.Sprintf("Player %q not found", username))
			return
		}
		a.renderPlayerPage(c, username, http.StatusInternalServerError, "Something went wrong, try again")
		return
	}

	if !a.auth.CanEditUser(viewer, owner.ID) {
		c.Redirect(http.StatusFound, "/unauthorized")
		return
	}

	categories, err := a.game.Categories()
	if err != nil {
		a.renderPlayerPage(c, username, http.StatusInternalServerError, "Could not load categories")
		return
	}

	targets := make(map[string]int, len(categories))
	for _, category := range categories {
		raw := trimmedPostForm(c, category.Name)
		if raw == "" {
			continue // 留给服务层按缺失分类拒绝
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			a.renderPlayerPage(c, username, http.StatusBadRequest,
				fmt.Sprintf("Target for %s must be a whole number", category.Name))
			return
		}
		targets[category.Name] = value
	}

	if err := a.game.SetCommitments(username, targets); err != nil {
		switch {
		case errors.Is(err, service.ErrCommitmentInvalid), errors.Is(err, service.ErrCategoryNotFound):
			a.renderPlayerPage(c, username, http.StatusBadRequest, "Every category needs a positive target")
		case errors.Is(err, service.ErrUserNotFound):
			a.renderNotFound(c, fmt.Sprintf("Player %q not found", username))
		default:
			a.renderPlayerPage(c, username, http.StatusInternalServerError, "Could not save commitments")
		}
		return
	}

	c.Redirect(http.StatusFound, "/player/"+username)
}

func (a *API) renderPlayerPage(c *gin.Context, username string, status int, formError string) {
	owner, err := a.auth.GetUser(username)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			a.renderNotFound(c, fmt.Sprintf("Player %q not found", username))
			return
		}
		a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{
			"title":   "Error",
			"status":  http.StatusInternalServerError,
			"message": "Something went wrong, try again",
		})
		return
	}

	statuses, err := a.game.UserStatuses(username)
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{
			"title":   "Error",
			"status":  http.StatusInternalServerError,
			"message": "Could not load player status",
		})
		return
	}

	categories, err := a.game.Categories()
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "error.html", gin.H{
			"title":   "Error",
			"status":  http.StatusInternalServerError,
			"message": "Could not load categories",
		})
		return
	}

	entries, err := a.game.ProgressLog(username, 30)
	if err != nil {
		entries = nil
	}

	totalScore := 0
	totalMax := 0
	for _, row := range statuses {
		totalScore += row.CurrentProgress
		totalMax += row.TargetAmount
	}

	overallPercent := 0.0
	if totalMax > 0 {
		overallPercent = float64(totalScore) * 100.0 / float64(totalMax)
	}

	canEdit := false
	if viewer, ok := a.currentUser(c); ok {
		canEdit = a.auth.CanEditUser(viewer, owner.ID)
	}

	a.renderHTML(c, status, "player.html", gin.H{
		"title":          owner.Name,
		"player":         owner,
		"statuses":       statuses,
		"categories":     categories,
		"entries":        entries,
		"totalScore":     totalScore,
		"totalMax":       totalMax,
		"overallPercent": overallPercent,
		"canEdit":        canEdit,
		"hasCommitments": len(statuses) > 0,
		"formError":      formError,
	})
}
