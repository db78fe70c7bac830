package repository

import (
	"later-go/internal/model"

	"gorm.io/gorm"
)

// DocumentRepository 定义了对 documents 表的数据操作接口。
type DocumentRepository interface {
	Create(doc *model.Document) error
	BatchCreate(docs []*model.Document) error
	// FindRecentByToolID 按写入顺序倒序返回最近的文档，limit <= 0 时不限制条数。
	FindRecentByToolID(toolID string, limit int) ([]*model.Document, error)
	FindByIDs(ids []uint) ([]*model.Document, error)
	// DeleteByToolAndSource 删除某个工具下来自指定来源的文档，返回被删文档的 ID。
	DeleteByToolAndSource(toolID, sourceURL string) ([]uint, error)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create 创建单条文档记录。
func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// BatchCreate 批量创建文档记录。
func (r *documentRepository) BatchCreate(docs []*model.Document) error {
	if len(docs) == 0 {
		return nil
	}
	return r.db.CreateInBatches(docs, 100).Error
}

// FindRecentByToolID 返回某个工具最近的文档，自增主键倒序即写入倒序。
func (r *documentRepository) FindRecentByToolID(toolID string, limit int) ([]*model.Document, error) {
	var docs []*model.Document
	query := r.db.Where("tool_id = ?", toolID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&docs).Error
	return docs, err
}

// FindByIDs 根据主键集合查找文档。
func (r *documentRepository) FindByIDs(ids []uint) ([]*model.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var docs []*model.Document
	err := r.db.Where("id IN ?", ids).Find(&docs).Error
	return docs, err
}

// DeleteByToolAndSource 删除工具+来源 URL 对应的文档，强制刷新时只重采这一个来源。
// 先取出主键再删，调用方用返回的 ID 同步清理向量块。
func (r *documentRepository) DeleteByToolAndSource(toolID, sourceURL string) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.Document{}).
		Where("tool_id = ? AND source_url = ?", toolID, sourceURL).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	err := r.db.Where("id IN ?", ids).Delete(&model.Document{}).Error
	return ids, err
}
