// Package chunk 将长文本切分为有界且带重叠的分块。
package chunk

import "strings"

const (
	// DefaultSize 与 DefaultOverlap 是管道统一使用的切块参数。
	DefaultSize    = 1000
	DefaultOverlap = 100
)

// Split 使用默认参数切分文本。
func Split(text string) []string {
	return SplitText(text, DefaultSize, DefaultOverlap)
}

// SplitText 将文本切分为最大 chunkSize 个 rune、相邻分块重叠约 chunkOverlap
// 个 rune 的序列。切点优先落在段落边界，其次句子边界，再次词边界，
// 最后才做硬切。确定性算法：相同输入必然产生相同的分块序列。
// 空输入返回空序列，无失败模式。
func SplitText(text string, chunkSize int, chunkOverlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if chunkSize <= 0 || chunkSize <= chunkOverlap {
		return simpleSplit(runes, max(chunkSize, 1))
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		// 在窗口后半段内回找一个自然边界
		cut := findBoundary(runes, start, end)
		chunks = append(chunks, string(runes[start:cut]))
		next := cut - chunkOverlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// findBoundary 在 [start, end) 的后半段内寻找最佳切点，按
// 段落 > 句子 > 词 的优先级；找不到则返回 end（硬切）。
func findBoundary(runes []rune, start, end int) int {
	floor := start + (end-start)/2
	window := string(runes[floor:end])

	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return floor + len([]rune(window[:i+2]))
	}
	if i := strings.LastIndex(window, "\n"); i >= 0 {
		return floor + len([]rune(window[:i+1]))
	}
	if i := strings.LastIndex(window, ". "); i >= 0 {
		return floor + len([]rune(window[:i+2]))
	}
	if i := strings.LastIndex(window, " "); i >= 0 {
		return floor + len([]rune(window[:i+1]))
	}
	return end
}

func simpleSplit(runes []rune, chunkSize int) []string {
	var chunks []string
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
