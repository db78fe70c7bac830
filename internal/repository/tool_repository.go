package repository

import (
	"errors"
	"strings"

	"later-go/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ToolRepository 定义了对 tools 及其附属表的数据操作接口。
type ToolRepository interface {
	Create(tool *model.Tool) error
	FindByID(id string) (*model.Tool, error)
	FindByCanonicalURL(canonicalURL string) (*model.Tool, error)
	// FindByAlias 对别名做小写精确匹配，返回别名指向的工具。
	FindByAlias(aliasValue string) (*model.Tool, error)
	List(offset, limit int) ([]*model.Tool, error)
	UpdateName(id, name string) error
	UpdateStatus(id, status string) error
	UpdateOnePager(id, onePagerJSON string) error
	UpdateCategoryTags(id, tags string) error

	BatchCreateAliases(aliases []*model.ToolAlias) error
	CreateUpdate(update *model.ToolUpdate) error
	ListUpdates(toolID string, limit int) ([]*model.ToolUpdate, error)

	// DeleteTree 在一个事务里删除工具及其全部附属数据。
	DeleteTree(toolID string) error
}

type toolRepository struct {
	db *gorm.DB
}

// NewToolRepository 创建一个新的 ToolRepository 实例。
func NewToolRepository(db *gorm.DB) ToolRepository {
	return &toolRepository{db: db}
}

// Create 创建工具记录，ID 为空时自动生成。
func (r *toolRepository) Create(tool *model.Tool) error {
	if tool.ID == "" {
		tool.ID = uuid.NewString()
	}
	return r.db.Create(tool).Error
}

// FindByID 根据主键查找工具，不存在时返回 nil 而不是错误。
func (r *toolRepository) FindByID(id string) (*model.Tool, error) {
	var tool model.Tool
	err := r.db.Where("id = ?", id).First(&tool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tool, nil
}

// FindByCanonicalURL 根据规范化 URL 查找工具。
func (r *toolRepository) FindByCanonicalURL(canonicalURL string) (*model.Tool, error) {
	var tool model.Tool
	err := r.db.Where("canonical_url = ?", canonicalURL).First(&tool).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tool, nil
}

// FindByAlias 根据别名查找工具，匹配前先做小写归一。
func (r *toolRepository) FindByAlias(aliasValue string) (*model.Tool, error) {
	var alias model.ToolAlias
	err := r.db.Where("alias_value = ?", strings.ToLower(strings.TrimSpace(aliasValue))).First(&alias).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.FindByID(alias.ToolID)
}

// List 按更新时间倒序分页列出工具。
func (r *toolRepository) List(offset, limit int) ([]*model.Tool, error) {
	var tools []*model.Tool
	err := r.db.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&tools).Error
	return tools, err
}

// UpdateName 更新工具名。
func (r *toolRepository) UpdateName(id, name string) error {
	return r.db.Model(&model.Tool{}).Where("id = ?", id).Update("name", name).Error
}

// UpdateStatus 更新工具状态。
func (r *toolRepository) UpdateStatus(id, status string) error {
	return r.db.Model(&model.Tool{}).Where("id = ?", id).Update("status", status).Error
}

// UpdateOnePager 更新工具上冗余存储的最新情报页。
func (r *toolRepository) UpdateOnePager(id, onePagerJSON string) error {
	return r.db.Model(&model.Tool{}).Where("id = ?", id).Update("one_pager", onePagerJSON).Error
}

// UpdateCategoryTags 更新工具的分类标签。
func (r *toolRepository) UpdateCategoryTags(id, tags string) error {
	return r.db.Model(&model.Tool{}).Where("id = ?", id).Update("category_tags", tags).Error
}

// BatchCreateAliases 批量创建别名记录，写入前统一小写。
func (r *toolRepository) BatchCreateAliases(aliases []*model.ToolAlias) error {
	if len(aliases) == 0 {
		return nil
	}
	for _, alias := range aliases {
		alias.AliasValue = strings.ToLower(strings.TrimSpace(alias.AliasValue))
	}
	return r.db.CreateInBatches(aliases, 100).Error
}

// CreateUpdate 写入一条审计记录。
func (r *toolRepository) CreateUpdate(update *model.ToolUpdate) error {
	return r.db.Create(update).Error
}

// ListUpdates 按时间倒序列出某个工具的审计记录。
func (r *toolRepository) ListUpdates(toolID string, limit int) ([]*model.ToolUpdate, error) {
	var updates []*model.ToolUpdate
	err := r.db.Where("tool_id = ?", toolID).Order("created_at DESC").Limit(limit).Find(&updates).Error
	return updates, err
}

// DeleteTree 整树删除：先清版本的关联表，再清版本、媒体、审计、别名、
// 文档和关注记录，最后删工具本身。任何一步失败整个事务回滚。
func (r *toolRepository) DeleteTree(toolID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		versionIDs := tx.Model(&model.ToolVersion{}).Select("id").Where("tool_id = ?", toolID)

		if err := tx.Where("tool_version_id IN (?)", versionIDs).Delete(&model.UserToolVersion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_version_id IN (?)", versionIDs).Delete(&model.ToolVersionDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_id = ? OR tool_version_id IN (?)", toolID, versionIDs).Delete(&model.MediaItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_id = ?", toolID).Delete(&model.ToolVersion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_id = ?", toolID).Delete(&model.ToolUpdate{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_id = ?", toolID).Delete(&model.ToolAlias{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_id = ?", toolID).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_id = ?", toolID).Delete(&model.UserWatchlist{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", toolID).Delete(&model.Tool{}).Error
	})
}
