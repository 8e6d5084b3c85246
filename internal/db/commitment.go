package db

import "gorm.io/gorm"

// Commitment 记录用户对某分类承诺的目标量
// UserID + CategoryID 采用唯一索引，重复设置走 upsert
type Commitment struct {
	gorm.Model
	UserID       uint     `gorm:"index:idx_commitment_unique,unique;not null"`
	User         User     `gorm:"constraint:OnDelete:CASCADE"`
	CategoryID   uint     `gorm:"index:idx_commitment_unique,unique;not null"`
	Category     Category `gorm:"constraint:OnDelete:CASCADE"`
	TargetAmount int      `gorm:"not null"`
}
