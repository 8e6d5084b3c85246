package db

import (
	"time"

	"gorm.io/gorm"
)

// ProgressEntry 记录一次进度增量，只追加不修改
// Amount 允许为负数，作为人工修正手段
// AddedByUserID 记录实际录入人（可能是管理员代录），为空表示本人录入
type ProgressEntry struct {
	gorm.Model
	UserID        uint      `gorm:"index;not null"`
	User          User      `gorm:"constraint:OnDelete:CASCADE"`
	CategoryID    uint      `gorm:"index;not null"`
	Category      Category  `gorm:"constraint:OnDelete:CASCADE"`
	Amount        int       `gorm:"not null"`
	RecordedAt    time.Time `gorm:"index;not null"`
	AddedByUserID *uint
	AddedByUser   *User `gorm:"foreignKey:AddedByUserID"`
}
