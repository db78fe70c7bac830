package model

import "time"

// IngestRequest 是研究入口的请求体，URL 和 Text 至少有一个。
type IngestRequest struct {
	URL          string `json:"url"`
	Text         string `json:"text"`
	ForceRefresh bool   `json:"forceRefresh"`
}

// ProgressEvent 是 SSE 通道上推送的单条进度事件。
type ProgressEvent struct {
	Stage         string `json:"stage"`
	Status        string `json:"status"` // running | done | skipped | error
	Message       string `json:"message,omitempty"`
	ToolID        string `json:"toolId,omitempty"`
	ToolVersionID string `json:"toolVersionId,omitempty"`
}

// IngestResult 是非流式研究入口的最终响应。
type IngestResult struct {
	ToolID        string `json:"toolId"`
	ToolVersionID string `json:"toolVersionId"`
	Skipped       bool   `json:"skipped"`
	OnePager      string `json:"onePager"`
}

// ChatRequest 是问答请求体。ToolID 为空时在全部工具的素材里做全局检索。
type ChatRequest struct {
	ToolID        string `json:"toolId"`
	Question      string `json:"question" binding:"required"`
	TopK          int    `json:"topK"`
	PreferCompact bool   `json:"preferCompact"`
}

// Citation 是答案引用的一段证据。
type Citation struct {
	Index      int    `json:"index"`
	DocumentID uint   `json:"documentId"`
	SourceURL  string `json:"sourceUrl"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
}

// ChatResponse 是问答接口的响应体。
type ChatResponse struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// ToolSummary 是列表页使用的精简视图。
type ToolSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CanonicalURL *string   `json:"canonicalUrl"`
	Status       string    `json:"status"`
	CategoryTags string    `json:"categoryTags"`
	Watching     bool      `json:"watching"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ToolDetail 是详情页视图。Version 是本次请求实际呈现的版本：
// 有身份时优先取用户关联的版本，否则取最新版本。
type ToolDetail struct {
	Tool       Tool         `json:"tool"`
	Version    *ToolVersion `json:"version"`
	MediaItems []MediaItem  `json:"mediaItems"`
	Updates    []ToolUpdate `json:"updates"`
}

// WatchlistRequest 是关注/取关请求体。
type WatchlistRequest struct {
	ToolID string `json:"toolId" binding:"required"`
}
