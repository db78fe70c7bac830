package repository

import (
	"errors"

	"later-go/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VersionRepository 定义了对版本快照及其附属表的数据操作接口。
type VersionRepository interface {
	// CreateNewLatest 在一个事务里把旧的最新版本翻转掉，并以递增的版本号插入新版本。
	CreateNewLatest(version *model.ToolVersion) error
	FindByID(id string) (*model.ToolVersion, error)
	FindLatestByToolID(toolID string) (*model.ToolVersion, error)
	// FindUserLinkedByToolID 返回用户在该工具下最近关联的版本，没有时返回 nil。
	FindUserLinkedByToolID(userID, toolID string) (*model.ToolVersion, error)
	ListByToolID(toolID string) ([]*model.ToolVersion, error)
	// DeleteLatest 删除最新版本，并把上一个版本重新标记为最新（若存在）。
	DeleteLatest(toolID string) error
	// CountOtherLinkedUsers 统计除指定用户外还关联着该工具任一版本的用户数。
	CountOtherLinkedUsers(toolID, excludeUserID string) (int64, error)
	// UnlinkUserFromTool 解除用户与该工具所有版本的关联。
	UnlinkUserFromTool(userID, toolID string) error

	// LinkDocuments 把证据文档冻结到版本上，重复关联幂等。
	LinkDocuments(versionID string, documentIDs []uint) error
	ListDocumentIDs(versionID string) ([]uint, error)
	// LinkUser 把用户关联到版本，重复关联静默忽略。
	LinkUser(userID, versionID string) error

	BatchCreateMediaItems(items []*model.MediaItem) error
	// FindMediaItems 优先返回版本挂载的媒体，没有时回退到工具挂载的遗留数据。
	FindMediaItems(versionID, toolID string) ([]*model.MediaItem, error)
}

type versionRepository struct {
	db *gorm.DB
}

// NewVersionRepository 创建一个新的 VersionRepository 实例。
func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &versionRepository{db: db}
}

// CreateNewLatest 翻转旧版本并插入新版本，两步在同一事务里完成，
// 保证任何时刻同一工具至多只有一条 is_latest=true 的记录。
func (r *versionRepository) CreateNewLatest(version *model.ToolVersion) error {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var prev model.ToolVersion
		err := tx.Where("tool_id = ? AND is_latest = ?", version.ToolID, true).First(&prev).Error
		if err == nil {
			prevID := prev.ID
			version.SupersedesID = &prevID
			if err := tx.Model(&prev).Update("is_latest", false).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var maxNo int
		if err := tx.Model(&model.ToolVersion{}).
			Where("tool_id = ?", version.ToolID).
			Select("COALESCE(MAX(version_no), 0)").
			Scan(&maxNo).Error; err != nil {
			return err
		}

		version.VersionNo = maxNo + 1
		version.IsLatest = true
		return tx.Create(version).Error
	})
}

// FindByID 根据主键查找版本，不存在时返回 nil。
func (r *versionRepository) FindByID(id string) (*model.ToolVersion, error) {
	var version model.ToolVersion
	err := r.db.Where("id = ?", id).First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// FindLatestByToolID 返回某个工具的最新版本，没有任何版本时返回 nil。
func (r *versionRepository) FindLatestByToolID(toolID string) (*model.ToolVersion, error) {
	var version model.ToolVersion
	err := r.db.Where("tool_id = ? AND is_latest = ?", toolID, true).First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// FindUserLinkedByToolID 通过 user_tool_versions 关联表找用户在该工具下
// 最近关联的版本，找不到时返回 nil。
func (r *versionRepository) FindUserLinkedByToolID(userID, toolID string) (*model.ToolVersion, error) {
	var version model.ToolVersion
	err := r.db.
		Joins("JOIN user_tool_versions utv ON utv.tool_version_id = tool_versions.id").
		Where("utv.user_id = ? AND tool_versions.tool_id = ?", userID, toolID).
		Order("utv.linked_at DESC").
		First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// ListByToolID 按版本号倒序列出某个工具的全部版本。
func (r *versionRepository) ListByToolID(toolID string) ([]*model.ToolVersion, error) {
	var versions []*model.ToolVersion
	err := r.db.Where("tool_id = ?", toolID).Order("version_no DESC").Find(&versions).Error
	return versions, err
}

// DeleteLatest 删除最新版本及其附属关联，并把上一个版本提升为最新。
func (r *versionRepository) DeleteLatest(toolID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var latest model.ToolVersion
		err := tx.Where("tool_id = ? AND is_latest = ?", toolID, true).First(&latest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Where("tool_version_id = ?", latest.ID).Delete(&model.ToolVersionDocument{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_version_id = ?", latest.ID).Delete(&model.UserToolVersion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_version_id = ?", latest.ID).Delete(&model.MediaItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&latest).Error; err != nil {
			return err
		}

		// 把剩下的最高版本号重新标记为最新
		var previous model.ToolVersion
		err = tx.Where("tool_id = ?", toolID).Order("version_no DESC").First(&previous).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&previous).Update("is_latest", true).Error
	})
}

// CountOtherLinkedUsers 统计除 excludeUserID 外还引用着该工具版本的用户数。
func (r *versionRepository) CountOtherLinkedUsers(toolID, excludeUserID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.UserToolVersion{}).
		Joins("JOIN tool_versions tv ON tv.id = user_tool_versions.tool_version_id").
		Where("tv.tool_id = ? AND user_tool_versions.user_id <> ?", toolID, excludeUserID).
		Distinct("user_tool_versions.user_id").
		Count(&count).Error
	return count, err
}

// UnlinkUserFromTool 删除用户与该工具所有版本的关联行。
func (r *versionRepository) UnlinkUserFromTool(userID, toolID string) error {
	subQuery := r.db.Model(&model.ToolVersion{}).Select("id").Where("tool_id = ?", toolID)
	return r.db.
		Where("user_id = ? AND tool_version_id IN (?)", userID, subQuery).
		Delete(&model.UserToolVersion{}).Error
}

// LinkDocuments 幂等地把文档冻结到版本上。
func (r *versionRepository) LinkDocuments(versionID string, documentIDs []uint) error {
	if len(documentIDs) == 0 {
		return nil
	}
	links := make([]*model.ToolVersionDocument, 0, len(documentIDs))
	for _, docID := range documentIDs {
		links = append(links, &model.ToolVersionDocument{
			ToolVersionID: versionID,
			DocumentID:    docID,
		})
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(links, 100).Error
}

// ListDocumentIDs 返回某个版本冻结的全部文档 ID。
func (r *versionRepository) ListDocumentIDs(versionID string) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.ToolVersionDocument{}).
		Where("tool_version_id = ?", versionID).
		Pluck("document_id", &ids).Error
	return ids, err
}

// LinkUser 把用户关联到版本，重复关联不算错误。
func (r *versionRepository) LinkUser(userID, versionID string) error {
	link := model.UserToolVersion{
		UserID:        userID,
		ToolVersionID: versionID,
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error
}

// BatchCreateMediaItems 批量创建媒体条目。
func (r *versionRepository) BatchCreateMediaItems(items []*model.MediaItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.CreateInBatches(items, 100).Error
}

// FindMediaItems 优先取版本挂载的媒体，空时回退到工具挂载的遗留行。
func (r *versionRepository) FindMediaItems(versionID, toolID string) ([]*model.MediaItem, error) {
	var items []*model.MediaItem
	if versionID != "" {
		if err := r.db.Where("tool_version_id = ?", versionID).Order("score DESC").Find(&items).Error; err != nil {
			return nil, err
		}
		if len(items) > 0 {
			return items, nil
		}
	}
	err := r.db.Where("tool_id = ?", toolID).Order("score DESC").Find(&items).Error
	return items, err
}
