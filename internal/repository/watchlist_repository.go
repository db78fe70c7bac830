package repository

import (
	"later-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WatchlistRepository 定义了对 user_watchlist 表的数据操作接口。
type WatchlistRepository interface {
	Add(userID, toolID string) error
	Remove(userID, toolID string) error
	IsWatching(userID, toolID string) (bool, error)
	ListToolIDsByUser(userID string) ([]string, error)
	// ListUserIDsByTool 返回关注某个工具的全部用户，刷新后重关联用。
	ListUserIDsByTool(toolID string) ([]string, error)
	// AllWatchedToolIDs 返回被任意用户关注的工具 ID 去重集合，周期刷新扫描用。
	AllWatchedToolIDs() ([]string, error)
}

type watchlistRepository struct {
	db *gorm.DB
}

// NewWatchlistRepository 创建一个新的 WatchlistRepository 实例。
func NewWatchlistRepository(db *gorm.DB) WatchlistRepository {
	return &watchlistRepository{db: db}
}

// Add 添加关注，重复关注幂等。
func (r *watchlistRepository) Add(userID, toolID string) error {
	entry := model.UserWatchlist{UserID: userID, ToolID: toolID}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}

// Remove 取消关注。
func (r *watchlistRepository) Remove(userID, toolID string) error {
	return r.db.Where("user_id = ? AND tool_id = ?", userID, toolID).Delete(&model.UserWatchlist{}).Error
}

// IsWatching 判断用户是否关注了某个工具。
func (r *watchlistRepository) IsWatching(userID, toolID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.UserWatchlist{}).
		Where("user_id = ? AND tool_id = ?", userID, toolID).
		Count(&count).Error
	return count > 0, err
}

// ListToolIDsByUser 返回用户关注的全部工具 ID。
func (r *watchlistRepository) ListToolIDsByUser(userID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.UserWatchlist{}).
		Where("user_id = ?", userID).
		Pluck("tool_id", &ids).Error
	return ids, err
}

// ListUserIDsByTool 返回关注某个工具的全部用户 ID。
func (r *watchlistRepository) ListUserIDsByTool(toolID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.UserWatchlist{}).
		Where("tool_id = ?", toolID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// AllWatchedToolIDs 返回所有被关注的工具 ID，去重后用于周期刷新。
func (r *watchlistRepository) AllWatchedToolIDs() ([]string, error) {
	var ids []string
	err := r.db.Model(&model.UserWatchlist{}).
		Distinct("tool_id").
		Pluck("tool_id", &ids).Error
	return ids, err
}
