package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gametracker/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrCategoryNotFound 在指定分类不存在时返回
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryInvalid 在分类输入不合法时返回
	ErrCategoryInvalid = errors.New("invalid category input")
	// ErrDuplicateCategory 在分类名称已存在时返回
	ErrDuplicateCategory = errors.New("category already exists")
	// ErrCommitmentInvalid 在目标设置缺失或非正时返回，错误文本点名问题分类
	ErrCommitmentInvalid = errors.New("invalid commitment")
)

// GameService 负责分类、目标承诺与进度的读写及聚合查询
type GameService struct {
	db *gorm.DB
}

// CategoryStatus 描述单个用户在单个分类下的完成状况
type CategoryStatus struct {
	CategoryID           uint
	Category             string
	Unit                 string
	TargetAmount         int
	CurrentProgress      int
	CompletionPercentage float64
}

// UserSummary 为排行榜中的一行：进度总分、目标总分与总体完成率
type UserSummary struct {
	UserID               uint
	Username             string
	Name                 string
	CompletionScore      int
	MaxCompletionScore   int
	CompletionPercentage float64
}

// NewGameService 构造 GameService
func NewGameService(gdb *gorm.DB) *GameService {
	return &GameService{db: gdb}
}

// Categories 返回全部分类，按名称排序
func (s *GameService) Categories() ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory 新建分类，名称冲突返回 ErrDuplicateCategory
func (s *GameService) CreateCategory(name, unit string) (*db.Category, error) {
	trimmedName := strings.TrimSpace(name)
	trimmedUnit := strings.TrimSpace(unit)
	if trimmedName == "" || trimmedUnit == "" {
		return nil, fmt.Errorf("%w: name and unit are required", ErrCategoryInvalid)
	}

	category := db.Category{Name: trimmedName, Unit: trimmedUnit}
	if err := s.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCategory, trimmedName)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &category, nil
}

// SetCommitments 一次性设置用户在全部分类下的目标量。
// 每个分类都必须给出正整数目标，缺失或非正即整体拒绝；
// 写入在单个事务内逐分类 upsert，要么全部生效要么全部回滚。
func (s *GameService) SetCommitments(username string, targets map[string]int) error {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return fmt.Errorf("find user: %w", err)
	}

	categories, err := s.Categories()
	if err != nil {
		return err
	}

	known := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		known[category.Name] = struct{}{}
		target, ok := targets[category.Name]
		if !ok {
			return fmt.Errorf("%w: missing target for %s", ErrCommitmentInvalid, category.Name)
		}
		if target <= 0 {
			return fmt.Errorf("%w: target for %s must be positive", ErrCommitmentInvalid, category.Name)
		}
	}

	for name := range targets {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, category := range categories {
			commitment := db.Commitment{
				UserID:       user.ID,
				CategoryID:   category.ID,
				TargetAmount: targets[category.Name],
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "category_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"target_amount", "updated_at"}),
			}).Create(&commitment).Error; err != nil {
				return fmt.Errorf("upsert commitment for %s: %w", category.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set commitments: %w", err)
	}

	return nil
}

// AddProgress 追加一条进度记录。
// amount 允许为负（人工修正），addedBy 记录代录人，可为空。
// 不校验是否超出目标量，超额完成由展示层截断。
func (s *GameService) AddProgress(username, categoryName string, amount int, addedBy *uint) (*db.ProgressEntry, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	var category db.Category
	if err := s.db.Where("name = ?", strings.TrimSpace(categoryName)).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, categoryName)
		}
		return nil, fmt.Errorf("find category: %w", err)
	}

	entry := db.ProgressEntry{
		UserID:        user.ID,
		CategoryID:    category.ID,
		Amount:        amount,
		RecordedAt:    s.db.NowFunc(),
		AddedByUserID: addedBy,
	}

	if err := s.db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("add progress: %w", err)
	}

	return &entry, nil
}

// UserStatuses 返回用户每个已承诺分类的目标、当前累计与完成率。
// 进度走 LEFT JOIN，尚无进度的分类也会出现，完成率保留一位小数。
func (s *GameService) UserStatuses(username string) ([]CategoryStatus, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	var rows []CategoryStatus
	if err := s.db.Model(&db.Commitment{}).
		Select(`categories.id AS category_id,
			categories.name AS category,
			categories.unit AS unit,
			commitments.target_amount AS target_amount,
			COALESCE(SUM(progress_entries.amount), 0) AS current_progress,
			ROUND(CASE WHEN commitments.target_amount > 0
				THEN COALESCE(SUM(progress_entries.amount), 0) * 100.0 / commitments.target_amount
				ELSE 0 END, 1) AS completion_percentage`).
		Joins("JOIN categories ON categories.id = commitments.category_id").
		Joins(`LEFT JOIN progress_entries ON progress_entries.user_id = commitments.user_id
			AND progress_entries.category_id = commitments.category_id
			AND progress_entries.deleted_at IS NULL`).
		Where("commitments.user_id = ?", user.ID).
		Group("commitments.id, categories.id, categories.name, categories.unit, commitments.target_amount").
		Order("categories.name ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list user statuses: %w", err)
	}

	return rows, nil
}

// ProgressLog 返回用户最近的进度记录，按时间倒序
func (s *GameService) ProgressLog(username string, limit int) ([]db.ProgressEntry, error) {
	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}

	var entries []db.ProgressEntry
	if err := s.db.Preload("Category").Preload("AddedByUser").
		Where("user_id = ?", user.ID).
		Order("recorded_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list progress entries: %w", err)
	}

	return entries, nil
}

// SummaryUsers 返回排行榜数据：每个已设目标的玩家一行，
// 总分为承诺分类下的进度之和，满分为目标之和，按完成率降序。
// 管理员账号不参与排行。
func (s *GameService) SummaryUsers() ([]UserSummary, error) {
	var rows []UserSummary
	if err := s.db.Raw(`
		SELECT users.id AS user_id,
			users.username AS username,
			users.name AS name,
			COALESCE(SUM(prog.total), 0) AS completion_score,
			SUM(commitments.target_amount) AS max_completion_score,
			ROUND(CASE WHEN SUM(commitments.target_amount) > 0
				THEN COALESCE(SUM(prog.total), 0) * 100.0 / SUM(commitments.target_amount)
				ELSE 0 END, 1) AS completion_percentage
		FROM users
		JOIN commitments ON commitments.user_id = users.id AND commitments.deleted_at IS NULL
		LEFT JOIN (
			SELECT user_id, category_id, SUM(amount) AS total
			FROM progress_entries
			WHERE deleted_at IS NULL
			GROUP BY user_id, category_id
		) prog ON prog.user_id = commitments.user_id AND prog.category_id = commitments.category_id
		WHERE users.role = ? AND users.deleted_at IS NULL
		GROUP BY users.id, users.username, users.name
		ORDER BY completion_percentage DESC, users.username ASC`, db.RolePlayer).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list summary users: %w", err)
	}

	return rows, nil
}
