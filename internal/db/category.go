package db

import "gorm.io/gorm"

// Category 定义了挑战分类
// Unit 为进度单位（stk/km 等），仅用于展示
type Category struct {
	gorm.Model
	Name string `gorm:"unique;not null"`
	Unit string `gorm:"not null"`
}

// defaultCategories 为首次启动时的默认分类集合
var defaultCategories = []Category{
	{Name: "Donuts", Unit: "stk"},
	{Name: "Øl", Unit: "stk"},
	{Name: "Løping", Unit: "km"},
	{Name: "Situps", Unit: "stk"},
}

// seedDefaultCategories 在分类表为空时写入默认分类
func seedDefaultCategories(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return gdb.Create(&defaultCategories).Error
}
