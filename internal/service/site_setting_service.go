package service

import (
	"fmt"
	"strings"

	"github.com/gametracker/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultSiteName 为未配置站点名称时的回退值
const DefaultSiteName = "6-12-18-24"

// SiteSettings 描述后台可配置的站点信息。
// RulesMarkdown 为首页展示的玩法说明，Markdown 原文入库，渲染在展示层完成。
type SiteSettings struct {
	SiteName      string
	RulesMarkdown string
}

// SiteSettingsInput 用于更新站点设置。
type SiteSettingsInput struct {
	SiteName      string
	RulesMarkdown string
}

// SiteSettingService 提供站点设置的读取与更新能力。
type SiteSettingService struct {
	db *gorm.DB
}

// NewSiteSettingService 构造 SiteSettingService。
func NewSiteSettingService(gdb *gorm.DB) *SiteSettingService {
	return &SiteSettingService{db: gdb}
}

var settingKeys = []string{
	db.SettingKeySiteName,
	db.SettingKeyRulesMarkdown,
}

// GetSettings 读取站点设置，如未设置将返回默认值。
func (s *SiteSettingService) GetSettings() (SiteSettings, error) {
	result := SiteSettings{SiteName: DefaultSiteName}

	var records []db.Setting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load site settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeySiteName:
			if strings.TrimSpace(record.Value) != "" {
				result.SiteName = record.Value
			}
		case db.SettingKeyRulesMarkdown:
			result.RulesMarkdown = record.Value
		}
	}

	return result, nil
}

// UpdateSettings 保存站点设置，未填写站点名称时回退默认值。
func (s *SiteSettingService) UpdateSettings(input SiteSettingsInput) (SiteSettings, error) {
	sanitized := SiteSettings{
		SiteName:      strings.TrimSpace(input.SiteName),
		RulesMarkdown: strings.TrimSpace(input.RulesMarkdown),
	}

	if sanitized.SiteName == "" {
		sanitized.SiteName = DefaultSiteName
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := upsertSetting(tx, db.SettingKeySiteName, sanitized.SiteName); err != nil {
			return err
		}
		if err := upsertSetting(tx, db.SettingKeyRulesMarkdown, sanitized.RulesMarkdown); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return SiteSettings{}, fmt.Errorf("update site settings: %w", err)
	}

	return sanitized, nil
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.Setting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
