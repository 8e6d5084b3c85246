package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 用户角色枚举，数据库中以字符串存储
const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

// User 定义了用户模型
// Name 为展示名，Username 用于登录与个人页 URL
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Name     string `gorm:"not null"`
	Password string `gorm:"not null"`
	Role     string `gorm:"not null;default:player"`
}

// ValidRole 判断角色是否属于固定枚举
func ValidRole(role string) bool {
	return role == RolePlayer || role == RoleAdmin
}

// EnsureAdmin 存在性检查：若提供的用户名与密码均非空且不存在对应账号，
// 则创建一个 bcrypt 哈希的管理员。用于通过环境变量引导首个管理员。
func EnsureAdmin(gdb *gorm.DB, username, password string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}

	if gdb == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := gdb.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return gdb.Create(&User{
			Username: trimmedUser,
			Name:     trimmedUser,
			Password: string(hashed),
			Role:     RoleAdmin,
		}).Error
	}

	return nil
}
