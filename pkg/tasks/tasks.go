// Package tasks 定义了在消息队列中流转的任务结构。
package tasks

// ResearchTask 是一次异步研究刷新任务。
// Trigger 标记任务来源：手动刷新或关注列表周期扫描。
type ResearchTask struct {
	ToolID       string `json:"toolId"`
	Trigger      string `json:"trigger"` // manual_refresh | watchlist_sweep
	ForceRefresh bool   `json:"forceRefresh"`
}
