package db

import "gorm.io/gorm"

// 站点设置键名
const (
	SettingKeySiteName      = "site_name"
	SettingKeyRulesMarkdown = "rules_markdown"
)

// Setting 以 key/value 形式存储后台可编辑的站点配置
type Setting struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex;not null"`
	Value string
}
