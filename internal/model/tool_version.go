package model

import "time"

// ToolVersion 是一次研究产物的不可变快照，同一工具下 IsLatest=true 的行至多一条。
type ToolVersion struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ToolID         string    `gorm:"type:varchar(36);not null;index" json:"toolId"`
	VersionNo      int       `gorm:"not null;default:1" json:"versionNo"`
	IsLatest       bool      `gorm:"not null;default:true;index" json:"isLatest"`
	SupersedesID   *string   `gorm:"type:varchar(36)" json:"supersedesId"`
	OnePager       string    `gorm:"type:json" json:"onePager"`
	ResearcherNote string    `gorm:"type:text" json:"researcherNote"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ToolVersion) TableName() string {
	return "tool_versions"
}

// ToolVersionDocument 把一批证据文档冻结到某个版本上，幂等插入。
type ToolVersionDocument struct {
	ToolVersionID string `gorm:"primaryKey;type:varchar(36)" json:"toolVersionId"`
	DocumentID    uint   `gorm:"primaryKey" json:"documentId"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ToolVersionDocument) TableName() string {
	return "tool_version_documents"
}

// UserToolVersion 把用户和某个版本关联起来，重复关联静默忽略。
type UserToolVersion struct {
	UserID        string    `gorm:"primaryKey;type:varchar(64)" json:"userId"`
	ToolVersionID string    `gorm:"primaryKey;type:varchar(36)" json:"toolVersionId"`
	LinkedAt      time.Time `gorm:"autoCreateTime" json:"linkedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UserToolVersion) TableName() string {
	return "user_tool_versions"
}

// UserWatchlist 记录用户关注的工具，关注中的工具会被周期性刷新。
type UserWatchlist struct {
	UserID    string    `gorm:"primaryKey;type:varchar(64)" json:"userId"`
	ToolID    string    `gorm:"primaryKey;type:varchar(36)" json:"toolId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UserWatchlist) TableName() string {
	return "user_watchlist"
}
