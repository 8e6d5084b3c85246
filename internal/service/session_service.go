package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/gametracker/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionTTL 为会话固定有效期
const SessionTTL = 7 * 24 * time.Hour

// SessionService 负责服务端会话的签发、解析与清理
type SessionService struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewSessionService 构造 SessionService，使用固定 7 天有效期
func NewSessionService(gdb *gorm.DB) *SessionService {
	return &SessionService{db: gdb, ttl: SessionTTL, now: time.Now}
}

// SetClock 覆盖时间源，仅用于测试过期行为
func (s *SessionService) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Create 为用户签发一个随机 token 的会话
func (s *SessionService) Create(userID uint) (*db.Session, error) {
	session := db.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl),
	}

	if err := s.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &session, nil
}

// Get 按 token 解析会话并携带用户。
// token 不存在或已过期均返回 (nil, nil)，过期判断以读取时刻为准。
func (s *SessionService) Get(token string) (*db.Session, error) {
	if token == "" {
		return nil, nil
	}

	var session db.Session
	if err := s.db.Preload("User").Where("token = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find session: %w", err)
	}

	if !session.ExpiresAt.After(s.now()) {
		return nil, nil
	}

	return &session, nil
}

// Delete 删除指定 token 的会话（登出）
func (s *SessionService) Delete(token string) error {
	if token == "" {
		return nil
	}
	if err := s.db.Where("token = ?", token).Delete(&db.Session{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanupExpired 删除所有已过期会话，返回删除行数。
// 由认证中间件顺手调用，失败只记日志不阻断请求。
func (s *SessionService) CleanupExpired() (int64, error) {
	result := s.db.Where("expires_at <= ?", s.now()).Delete(&db.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
