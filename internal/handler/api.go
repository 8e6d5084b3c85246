package handler

import (
	"log"
	"net/http"

	"github.com/gametracker/internal/db"
	"github.com/gametracker/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db       *gorm.DB
	auth     *service.AuthService
	sessions *service.SessionService
	game     *service.GameService
	settings *service.SiteSettingService
}

// sessionTokenKey is the key of the server session token inside the cookie session.
const sessionTokenKey = "session_token"

const (
	currentUserContextKey  = "__current_user"
	siteSettingsContextKey = "__site_settings"
)

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB) *API {
	return &API{
		db:       gdb,
		auth:     service.NewAuthService(gdb),
		sessions: service.NewSessionService(gdb),
		game:     service.NewGameService(gdb),
		settings: service.NewSiteSettingService(gdb),
	}
}

// DB exposes the underlying gorm instance for the seeding tool and tests.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Sessions exposes the session service for tests.
func (a *API) Sessions() *service.SessionService {
	return a.sessions
}

// LoadUser resolves the current user from the session cookie on every request.
// Expired sessions are purged opportunistically here; cleanup failures are
// logged and ignored so they never block a page load.
func (a *API) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie := sessions.Default(c)
		token, _ := cookie.Get(sessionTokenKey).(string)
		if token == "" {
			c.Next()
			return
		}

		if _, err := a.sessions.CleanupExpired(); err != nil {
			log.Printf("session cleanup failed: %v", err)
		}

		session, err := a.sessions.Get(token)
		if err != nil {
			log.Printf("session lookup failed: %v", err)
			c.Next()
			return
		}

		if session == nil {
			// 过期或已删除，顺手清掉浏览器侧的残留 cookie
			cookie.Delete(sessionTokenKey)
			if err := cookie.Save(); err != nil {
				log.Printf("session cookie clear failed: %v", err)
			}
			c.Next()
			return
		}

		c.Set(currentUserContextKey, session.User)
		c.Next()
	}
}

// RequireUser redirects anonymous requests to the login page.
func (a *API) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := a.currentUser(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin allows only signed-in admins through.
func (a *API) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := a.currentUser(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if user.Role != db.RoleAdmin {
			c.Redirect(http.StatusFound, "/unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *API) currentUser(c *gin.Context) (db.User, bool) {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return db.User{}, false
	}
	user, ok := value.(db.User)
	return user, ok
}

func (a *API) siteSettings(c *gin.Context) service.SiteSettings {
	if cached, exists := c.Get(siteSettingsContextKey); exists {
		if view, ok := cached.(service.SiteSettings); ok {
			return view
		}
	}

	settings, err := a.settings.GetSettings()
	if err != nil {
		c.Error(err)
	}

	c.Set(siteSettingsContextKey, settings)
	return settings
}

// renderHTML attaches the site name and the signed-in user to every template payload.
func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	settings := a.siteSettings(c)

	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = settings.SiteName
	}
	if _, exists := payload["user"]; !exists {
		if user, ok := a.currentUser(c); ok {
			payload["user"] = user
		}
	}

	c.HTML(status, template, payload)
}
