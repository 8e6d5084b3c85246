package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gametracker/internal/db"
	"github.com/gametracker/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// ShowLogin 渲染登录页面，已登录用户直接回首页
func (a *API) ShowLogin(c *gin.Context) {
	if _, ok := a.currentUser(c); ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{"title": "Login"})
}

// Login 处理登录表单：校验口令、签发会话并写入 cookie
func (a *API) Login(c *gin.Context) {
	username := trimmedPostForm(c, "username")
	password := c.PostForm("password")

	if username == "" || password == "" {
		a.renderHTML(c, http.StatusBadRequest, "login.html", gin.H{
			"title": "Login",
			"error": "Username and password are required",
		})
		return
	}

	user, err := a.auth.Authenticate(username, password)
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{
			"title": "Login",
			"error": "Something went wrong, try again",
		})
		return
	}
	if user == nil {
		// 口令不匹配不区分用户是否存在
		a.renderHTML(c, http.StatusUnauthorized, "login.html", gin.H{
			"title": "Login",
			"error": "Invalid username or password",
		})
		return
	}

	if err := a.signIn(c, user.ID); err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{
			"title": "Login",
			"error": "Could not save session",
		})
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// ShowRegister 渲染注册页面
func (a *API) ShowRegister(c *gin.Context) {
	if _, ok := a.currentUser(c); ok {
		c.Redirect(http.StatusFound, "/")
		return
	}
	a.renderHTML(c, http.StatusOK, "register.html", gin.H{"title": "Register"})
}

// Register 处理自助注册：仅允许 player 角色，成功后直接登录
func (a *API) Register(c *gin.Context) {
	username := trimmedPostForm(c, "username")
	name := trimmedPostForm(c, "name")
	password := c.PostForm("password")
	confirm := c.PostForm("confirmPassword")

	renderError := func(status int, message string) {
		a.renderHTML(c, status, "register.html", gin.H{
			"title":    "Register",
			"error":    message,
			"username": username,
			"name":     name,
		})
	}

	if username == "" || name == "" || password == "" || confirm == "" {
		renderError(http.StatusBadRequest, "All fields are required")
		return
	}
	if password != confirm {
		renderError(http.StatusBadRequest, "Passwords do not match")
		return
	}

	user, err := a.auth.CreateUser(service.UserInput{
		Username: username,
		Password: password,
		Name:     name,
		Role:     db.RolePlayer,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateUsername):
			renderError(http.StatusBadRequest, "Username is already taken")
		case errors.Is(err, service.ErrUserInvalid):
			renderError(http.StatusBadRequest, "Password must be at least 6 characters long")
		default:
			renderError(http.StatusInternalServerError, "Something went wrong, try again")
		}
		return
	}

	if err := a.signIn(c, user.ID); err != nil {
		renderError(http.StatusInternalServerError, "Account created, but login failed")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// Logout 删除服务端会话并清空 cookie
func (a *API) Logout(c *gin.Context) {
	cookie := sessions.Default(c)
	if token, ok := cookie.Get(sessionTokenKey).(string); ok && token != "" {
		if err := a.sessions.Delete(token); err != nil {
			log.Printf("session delete failed: %v", err)
		}
	}
	cookie.Clear()
	if err := cookie.Save(); err != nil {
		log.Printf("session cookie clear failed: %v", err)
	}
	c.Redirect(http.StatusFound, "/login")
}

func (a *API) signIn(c *gin.Context, userID uint) error {
	session, err := a.sessions.Create(userID)
	if err != nil {
		return err
	}

	cookie := sessions.Default(c)
	cookie.Set(sessionTokenKey, session.Token)
	return cookie.Save()
}
