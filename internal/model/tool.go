// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Tool 状态流转：pending_research -> partially_verified。
const (
	StatusPendingResearch   = "pending_research"
	StatusPartiallyVerified = "partially_verified"
)

// Tool 是一个被研究的实体，是整棵数据树的根。
// CanonicalURL 非空时全表唯一。
type Tool struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	CanonicalURL *string   `gorm:"type:varchar(768);uniqueIndex" json:"canonicalUrl"`
	Status       string    `gorm:"type:varchar(32);not null;default:'pending_research'" json:"status"`
	OnePager     string    `gorm:"type:json" json:"onePager"`
	CategoryTags string    `gorm:"type:varchar(512)" json:"categoryTags"`
	Watchlist    bool      `gorm:"not null;default:false" json:"watchlist"` // 遗留字段，已由 user_watchlist 取代
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Tool) TableName() string {
	return "tools"
}

// ToolAlias 是指向 Tool 的别名记录，查找时对 alias_value 做小写精确匹配。
type ToolAlias struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	ToolID     string  `gorm:"type:varchar(36);not null;index" json:"toolId"`
	AliasValue string  `gorm:"type:varchar(512);not null;index" json:"aliasValue"`
	AliasType  string  `gorm:"type:varchar(16);not null" json:"aliasType"` // name | domain
	Confidence float64 `gorm:"not null;default:0" json:"confidence"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ToolAlias) TableName() string {
	return "tool_aliases"
}

// ToolUpdate 是陪审阶段写入的审计行，未验证的论断带 UNVERIFIED: 前缀。
type ToolUpdate struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ToolID         string    `gorm:"type:varchar(36);not null;index" json:"toolId"`
	FieldChanged   string    `gorm:"type:varchar(64);not null" json:"fieldChanged"`
	NewValue       string    `gorm:"type:text" json:"newValue"`
	CitationSource string    `gorm:"type:varchar(1024)" json:"citationSource"`
	SourceAgent    string    `gorm:"type:varchar(32)" json:"sourceAgent"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ToolUpdate) TableName() string {
	return "tool_updates"
}
