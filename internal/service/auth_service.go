package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gametracker/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateUsername 在用户名已被占用时返回
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrUserInvalid 在注册/建号输入不合法时返回
	ErrUserInvalid = errors.New("invalid user input")
	// ErrUserNotFound 在指定用户不存在时返回
	ErrUserNotFound = errors.New("user not found")
)

// 密码最短长度，与注册表单提示保持一致
const minPasswordLength = 6

// AuthService 负责账号创建、口令校验与编辑权限判定
type AuthService struct {
	db *gorm.DB
}

// UserInput 定义创建用户时可配置字段
type UserInput struct {
	Username string
	Password string
	Name     string
	Role     string
}

// NewAuthService 构造 AuthService
func NewAuthService(gdb *gorm.DB) *AuthService {
	return &AuthService{db: gdb}
}

// CreateUser 校验输入并创建 bcrypt 哈希的用户。
// 用户名冲突通过 gorm.ErrDuplicatedKey 识别，返回 ErrDuplicateUsername。
func (s *AuthService) CreateUser(input UserInput) (*db.User, error) {
	username := strings.TrimSpace(input.Username)
	name := strings.TrimSpace(input.Name)
	role := strings.TrimSpace(strings.ToLower(input.Role))
	if role == "" {
		role = db.RolePlayer
	}

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrUserInvalid)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrUserInvalid)
	}
	if len(input.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrUserInvalid, minPasswordLength)
	}
	if !db.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %s", ErrUserInvalid, role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		Username: username,
		Name:     name,
		Password: string(hashed),
		Role:     role,
	}

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

// Authenticate 校验用户名与口令。
// 口令不匹配不是错误，返回 (nil, nil)，由调用方决定提示文案。
func (s *AuthService) Authenticate(username, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil
	}

	return &user, nil
}

// GetUser 按用户名获取用户
func (s *AuthService) GetUser(username string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// GetUserByID 按主键获取用户
func (s *AuthService) GetUserByID(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// ListUsers 返回全部用户，按用户名排序，供后台用户管理页使用
func (s *AuthService) ListUsers() ([]db.User, error) {
	var users []db.User
	if err := s.db.Order("username ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// CanEditUser 判断 actor 能否修改 targetID 的数据：管理员或本人
func (s *AuthService) CanEditUser(actor db.User, targetID uint) bool {
	if actor.Role == db.RoleAdmin {
		return true
	}
	return actor.ID == targetID
}
