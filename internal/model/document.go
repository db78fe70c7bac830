package model

import "time"

// Document 来源类型。
const (
	SourceTypeScreenshot = "screenshot"
	SourceTypeWebSearch  = "web_search"
	SourceTypeWebScrape  = "web_scrape"
	SourceTypeTranscript = "transcript"
)

// Document 是一份挂在 Tool 下的原始素材，正文切块向量化后写入 ES。
type Document struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ToolID     string    `gorm:"type:varchar(36);not null;index" json:"toolId"`
	SourceType string    `gorm:"type:varchar(32);not null" json:"sourceType"`
	SourceURL  string    `gorm:"type:varchar(1024)" json:"sourceUrl"`
	Title      string    `gorm:"type:varchar(512)" json:"title"`
	Content    string    `gorm:"type:longtext" json:"content"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}
