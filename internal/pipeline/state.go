// Package pipeline 定义了产品研究的核心流程：
// 实体解析 -> 内容摄取 -> 搜索增广 -> 情报合成 -> 论断陪审 -> 版本落库。
package pipeline

import (
	"later-go/internal/model"
)

// 各阶段的名字，进度事件以此标识当前阶段。
const (
	StageResolveTool    = "resolve_tool"
	StageIngest         = "ingest"
	StageAugmentSources = "augment_sources"
	StageResearch       = "research"
	StageJuror          = "juror"
	StageDBWrite        = "dbwrite"
)

// Input 是一次研究运行的原始输入。
// URL 和 Name 至少有一个；OCRText 来自截图摄取通道。
type Input struct {
	URL       string
	Name      string
	OCRText   string
	Intent    string // 截图意图分类结果，随 OCRText 一起作为合成提示
	SourceURL string // 非 URL 输入的来源标注，写进文档的 source_url
	UserID    string
	Force     bool
}

// Highlight 是增广阶段保留下来的社媒亮点，落库时转成 MediaItem。
type Highlight struct {
	URL          string
	Title        string
	Kind         string
	Platform     string
	AuthorHandle string
	ThumbnailURL string
	Score        float64
	IsInfluencer bool
	Metrics      string // 摘要里抠出的热度描述原文，如 "1.2M views"
}

// Verdict 是陪审阶段对一条论断的裁定。
type Verdict struct {
	Claim       string
	Verified    bool
	CitationURL string
}

// State 是贯穿各阶段的共享状态，每个阶段只往里追加自己的产出。
type State struct {
	Input Input

	// resolve_tool 阶段产出
	CanonicalURL   string
	Tool           *model.Tool
	SkipProcessing bool

	// ingest 阶段产出
	PrimaryText string
	DocumentIDs []uint

	// augment_sources 阶段产出
	Highlights []Highlight

	// research 阶段产出
	OnePager model.OnePager

	// juror 阶段产出
	Verdicts []Verdict

	// dbwrite 阶段产出
	Version *model.ToolVersion
}

// ProgressFunc 在每个阶段开始和结束时被回调，nil 表示调用方不关心进度。
type ProgressFunc func(event model.ProgressEvent)
