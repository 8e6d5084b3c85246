package db

import (
	"time"

	"gorm.io/gorm"
)

// Session 记录服务端会话
// Token 为下发给浏览器的不透明随机串，ExpiresAt 在读取时强制校验，
// 登出时整行删除，过期行由认证中间件顺手清理
type Session struct {
	gorm.Model
	Token     string    `gorm:"uniqueIndex;not null"`
	UserID    uint      `gorm:"index;not null"`
	User      User      `gorm:"constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"index;not null"`
}
