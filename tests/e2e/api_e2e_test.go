package e2e

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gametracker/internal/db"
	"github.com/gametracker/internal/handler"
	"github.com/gametracker/internal/router"
	"github.com/gametracker/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type e2eSuite struct {
	handler http.Handler
	gdb     *gorm.DB
	public  httpClient
	alice   httpClient
	bob     httpClient
	admin   httpClient
	baseURL string
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

func TestE2E_ChallengeFlow(t *testing.T) {
	suite := newE2ESuite(t)

	t.Run("register and commit", suite.testRegisterAndCommit)
	t.Run("record progress", suite.testRecordProgress)
	t.Run("leaderboard", suite.testLeaderboard)
	t.Run("authorization", suite.testAuthorization)
	t.Run("admin panel", suite.testAdminPanel)
	t.Run("logout", suite.testLogout)
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:e2e-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.User{},
		&db.Session{},
		&db.Category{},
		&db.Commitment{},
		&db.ProgressEntry{},
		&db.Setting{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	categories := []db.Category{
		{Name: "Donuts", Unit: "stk"},
		{Name: "Øl", Unit: "stk"},
		{Name: "Løping", Unit: "km"},
	}
	if err := gdb.Create(&categories).Error; err != nil {
		t.Fatalf("failed to seed categories: %v", err)
	}

	if _, err := service.NewAuthService(gdb).CreateUser(service.UserInput{
		Username: "boss",
		Password: "admin-secret",
		Name:     "Boss",
		Role:     db.RoleAdmin,
	}); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	api := handler.NewAPI(gdb)
	engine := router.Setup(api, "e2e-session-secret", "../../web/template/*.html", "../../web/static")

	return &e2eSuite{
		handler: engine,
		gdb:     gdb,
		public:  newLocalClient(engine, false),
		alice:   newLocalClient(engine, true),
		bob:     newLocalClient(engine, true),
		admin:   newLocalClient(engine, true),
		baseURL: "http://example.test",
	}
}

func (s *e2eSuite) testRegisterAndCommit(t *testing.T) {
	// 注册即登录
	resp := s.postForm(t, s.alice, "/register", url.Values{
		"username":        {"alice"},
		"password":        {"player-secret"},
		"confirmPassword": {"player-secret"},
		"name":            {"Alice"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("register expected 302, got %d", resp.StatusCode)
	}

	// 重名注册被拒
	resp = s.postForm(t, s.public, "/register", url.Values{
		"username":        {"alice"},
		"password":        {"other-secret"},
		"confirmPassword": {"other-secret"},
		"name":            {"Alice Clone"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register expected 400, got %d", resp.StatusCode)
	}

	// 设定整组目标
	resp = s.postForm(t, s.alice, "/player/alice/commitments", url.Values{
		"Donuts": {"12"},
		"Øl":     {"6"},
		"Løping": {"18"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("commitments expected 302, got %d", resp.StatusCode)
	}

	// 目标提交必须完整，缺分类整组拒绝
	resp = s.postForm(t, s.bob, "/register", url.Values{
		"username":        {"bob"},
		"password":        {"player-secret"},
		"confirmPassword": {"player-secret"},
		"name":            {"Bob"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("register bob expected 302, got %d", resp.StatusCode)
	}

	resp = s.postForm(t, s.bob, "/player/bob/commitments", url.Values{
		"Donuts": {"10"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("partial commitments expected 400, got %d", resp.StatusCode)
	}

	resp = s.postForm(t, s.bob, "/player/bob/commitments", url.Values{
		"Donuts": {"10"},
		"Øl":     {"10"},
		"Løping": {"10"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("full commitments expected 302, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testRecordProgress(t *testing.T) {
	addProgress := func(client httpClient, username, category, amount string) {
		t.Helper()
		resp := s.postForm(t, client, "/player/"+username+"/progress", url.Values{
			"category": {category},
			"amount":   {amount},
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("progress %s %s expected 302, got %d", category, amount, resp.StatusCode)
		}
	}

	// 两笔进度叠加到同一分类
	addProgress(s.alice, "alice", "Donuts", "3")
	addProgress(s.alice, "alice", "Donuts", "4")
	addProgress(s.alice, "alice", "Øl", "5")
	addProgress(s.bob, "bob", "Løping", "6")

	body := s.getBody(t, s.public, "/player/alice", http.StatusOK)
	if !strings.Contains(body, "7 / 12") {
		t.Fatalf("profile missing donut progress, body=%s", body)
	}
	if !strings.Contains(body, "58.3") {
		t.Fatalf("profile missing donut percentage, body=%s", body)
	}
}

func (s *e2eSuite) testLeaderboard(t *testing.T) {
	// alice 12/36 = 33.3% 排在 bob 6/30 = 20% 前面
	body := s.getBody(t, s.public, "/dashboard", http.StatusOK)

	aliceAt := strings.Index(body, "Alice")
	bobAt := strings.Index(body, "Bob")
	if aliceAt < 0 || bobAt < 0 {
		t.Fatalf("leaderboard missing players, body=%s", body)
	}
	if aliceAt > bobAt {
		t.Fatal("expected alice ranked above bob")
	}
	if !strings.Contains(body, "33.3") {
		t.Fatalf("leaderboard missing alice percentage, body=%s", body)
	}
	// 管理员不上榜
	if strings.Contains(body, "Boss") {
		t.Fatal("expected admin to be excluded from the leaderboard")
	}
}

func (s *e2eSuite) testAuthorization(t *testing.T) {
	// 未登录提交重定向到登录页
	resp := s.postForm(t, s.public, "/player/alice/progress", url.Values{
		"category": {"Donuts"},
		"amount":   {"1"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("anonymous progress expected 302 to /login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	// 玩家不能替别人录进度
	resp = s.postForm(t, s.bob, "/player/alice/progress", url.Values{
		"category": {"Donuts"},
		"amount":   {"1"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/unauthorized" {
		t.Fatalf("cross-player progress expected 302 to /unauthorized, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	// 玩家进不了后台
	resp = s.mustRequest(t, s.bob, http.MethodGet, "/admin", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/unauthorized" {
		t.Fatalf("player admin access expected 302 to /unauthorized, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func (s *e2eSuite) testAdminPanel(t *testing.T) {
	resp := s.postForm(t, s.admin, "/login", url.Values{
		"username": {"boss"},
		"password": {"admin-secret"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("admin login expected 302, got %d", resp.StatusCode)
	}

	for _, path := range []string{"/admin", "/admin/users", "/admin/settings"} {
		body := s.getBody(t, s.admin, path, http.StatusOK)
		if body == "" {
			t.Fatalf("%s returned empty body", path)
		}
	}

	// 管理员代录会在历史里记下操作人
	resp = s.postForm(t, s.admin, "/player/alice/progress", url.Values{
		"category": {"Løping"},
		"amount":   {"2"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("admin progress expected 302, got %d", resp.StatusCode)
	}

	body := s.getBody(t, s.public, "/player/alice", http.StatusOK)
	if !strings.Contains(body, "Boss") {
		t.Fatalf("expected history to attribute admin entry, body=%s", body)
	}

	// 后台新增分类
	resp = s.postForm(t, s.admin, "/admin/categories", url.Values{
		"name": {"Svømming"},
		"unit": {"m"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("create category expected 302, got %d", resp.StatusCode)
	}

	var count int64
	if err := s.gdb.Model(&db.Category{}).Where("name = ?", "Svømming").Count(&count).Error; err != nil {
		t.Fatalf("failed to count categories: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected new category, got %d rows", count)
	}
}

func (s *e2eSuite) testLogout(t *testing.T) {
	resp := s.mustRequest(t, s.alice, http.MethodGet, "/logout", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("logout expected 302, got %d", resp.StatusCode)
	}

	resp = s.postForm(t, s.alice, "/player/alice/progress", url.Values{
		"category": {"Donuts"},
		"amount":   {"1"},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Fatalf("post-logout progress expected 302 to /login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func (s *e2eSuite) postForm(t *testing.T, client httpClient, path string, form url.Values) *http.Response {
	t.Helper()
	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	return s.mustRequest(t, client, http.MethodPost, path, strings.NewReader(form.Encode()), headers)
}

func (s *e2eSuite) getBody(t *testing.T, client httpClient, path string, expectStatus int) string {
	t.Helper()
	resp := s.mustRequest(t, client, http.MethodGet, path, nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != expectStatus {
		t.Fatalf("%s expected %d, got %d", path, expectStatus, resp.StatusCode)
	}
	return readBody(t, resp)
}

func (s *e2eSuite) mustRequest(t *testing.T, client httpClient, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("failed to build request %s %s: %v", method, path, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(data)
}
