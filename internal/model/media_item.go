package model

import "time"

// MediaItem 媒体类型。
const (
	MediaKindVideoYouTube = "video_youtube"
	MediaKindVideoTikTok  = "video_tiktok"
	MediaKindSocial       = "social"
	MediaKindPodcast      = "podcast"
	MediaKindArticle      = "article_or_homepage"
)

// MediaItem 是嵌在页面里的富媒体条目。
// ToolVersionID 和 ToolID 二选一：新数据挂在版本上，老数据挂在工具上。
type MediaItem struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ToolVersionID *string   `gorm:"type:varchar(36);index" json:"toolVersionId"`
	ToolID        *string   `gorm:"type:varchar(36);index" json:"toolId"`
	Kind          string    `gorm:"type:varchar(32);not null" json:"kind"`
	URL           string    `gorm:"type:varchar(1024);not null" json:"url"`
	Title         string    `gorm:"type:varchar(512)" json:"title"`
	Platform      string    `gorm:"type:varchar(16)" json:"platform"`
	AuthorHandle  string    `gorm:"type:varchar(128)" json:"authorHandle"`
	ThumbnailURL  string    `gorm:"type:varchar(1024)" json:"thumbnailUrl"`
	Score         float64   `gorm:"not null;default:0" json:"score"`
	IsHighlighted bool      `gorm:"not null;default:false" json:"isHighlighted"`
	IsInfluencer  bool      `gorm:"not null;default:false" json:"isInfluencer"`
	Metrics       string    `gorm:"type:varchar(255)" json:"metrics"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (MediaItem) TableName() string {
	return "media_items"
}
