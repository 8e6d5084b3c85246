package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Init 打开数据库连接并执行自动迁移。
// databasePath 为空时将回退到默认值 gametracker.db。
// 连接以 TranslateError 模式打开，唯一约束冲突会转换为 gorm.ErrDuplicatedKey，
// 调用方不需要解析驱动错误文本。
func Init(databasePath string) (*gorm.DB, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "gametracker.db"
	}

	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// 自动迁移模式，为核心模型创建表
	if err = gdb.AutoMigrate(
		&User{},
		&Session{},
		&Category{},
		&Commitment{},
		&ProgressEntry{},
		&Setting{},
	); err != nil {
		return nil, err
	}

	// 分类表为空时写入默认分类，属于表结构层面的约定
	if err := seedDefaultCategories(gdb); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Close 关闭底层连接，进程退出前调用。
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
