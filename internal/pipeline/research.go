package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"later-go/pkg/llm"
	"later-go/pkg/log"
)

const (
	// 聚合时回看的文档数上限
	aggregateDocLimit = 400
	// 主素材在合成输入里的配额
	primaryTextBudget = 4_000
	// 合成输入的总预算
	synthesisBudget = 12_000
)

// priorityKeywords 命中即优先进入合成输入的关键词。
var priorityKeywords = []string{
	"pricing", "price", "feature", "competitor", "alternative",
	"launch", "update", "release", "news",
}

// pricingKeywords 标记定价相关片段，供二次定向抽取。
var pricingKeywords = []string{
	"pricing", "price", "plan", "tier", "subscription", "free",
	"$", "€", "£", "/mo", "per month", "per year",
}

// research 聚合既有文档并合成结构化情报页。
func (o *Orchestrator) research(ctx context.Context, s *State) error {
	docs, err := o.docRepo.FindRecentByToolID(s.Tool.ID, aggregateDocLimit)
	if err != nil {
		return fmt.Errorf("读取文档失败: %w", err)
	}
	log.Infof("[Research] 步骤1: 聚合 %d 份文档", len(docs))

	// 按关键词把文档分成优先和次要两摊，同时单独收集定价片段
	var prioritized, secondary, pricingSnippets []string
	for _, doc := range docs {
		lower := strings.ToLower(doc.Content)
		if containsAny(lower, pricingKeywords) {
			pricingSnippets = append(pricingSnippets, doc.Content)
		}
		if containsAny(lower, priorityKeywords) {
			prioritized = append(prioritized, doc.Content)
		} else {
			secondary = append(secondary, doc.Content)
		}
	}

	evidence := buildSynthesisInput(s.PrimaryText, prioritized, secondary)
	if evidence == "" && s.Input.OCRText != "" {
		evidence = s.Input.OCRText
	}
	log.Infof("[Research] 步骤2: 合成输入 %d 字符 (优先 %d / 次要 %d)", len([]rune(evidence)), len(prioritized), len(secondary))

	// 截图通道的意图和 OCR 原文作为提示一并传给合成
	hints := llm.SynthesisHints{Intent: s.Input.Intent}
	if s.Input.OCRText != "" {
		hints.OCRText = clipRunes(s.Input.OCRText, primaryTextBudget)
	}
	page, err := o.llmClient.SynthesizeOnePager(ctx, s.Tool.Name, evidence, hints)
	if err != nil {
		// 合成失败降级为空表，不打断流程
		log.Warnf("[Research] 情报页合成失败，降级为空表: %v", err)
		page.ProductName = s.Tool.Name
		page.Normalize()
	}

	// 定价为空时用定价片段做一次定向补抽
	if len(page.Pricing) == 0 && len(pricingSnippets) > 0 {
		snippetText := clipRunes(strings.Join(pricingSnippets, "\n---\n"), synthesisBudget)
		pricing, err := o.llmClient.ExtractPricing(ctx, s.Tool.Name, snippetText)
		if err != nil {
			log.Warnf("[Research] 定向抽取定价失败: %v", err)
		} else if len(pricing) > 0 {
			page.Pricing = pricing
		}
	}

	page.RecentUpdates = sortRecentUpdates(page.RecentUpdates)
	page.LastUpdated = time.Now().UTC().Format("2006-01-02")
	s.OnePager = page
	return nil
}

// buildSynthesisInput 按"主素材 -> 优先片段 -> 次要片段"的顺序拼合成输入，
// 主素材最多占 4000 字符，总量不超过预算。
func buildSynthesisInput(primaryText string, prioritized, secondary []string) string {
	var b strings.Builder
	remaining := synthesisBudget

	if primaryText != "" {
		clipped := clipRunes(primaryText, primaryTextBudget)
		b.WriteString(clipped)
		remaining -= len([]rune(clipped))
	}

	for _, group := range [][]string{prioritized, secondary} {
		for _, snippet := range group {
			if remaining <= 0 {
				return b.String()
			}
			clipped := clipRunes(snippet, remaining)
			if b.Len() > 0 {
				b.WriteString("\n---\n")
			}
			b.WriteString(clipped)
			remaining -= len([]rune(clipped))
		}
	}
	return b.String()
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func clipRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// updateDatePattern 匹配动态条目的 [YYYY-MM] 或 [YYYY-MM-DD] 日期前缀。
var updateDatePattern = regexp.MustCompile(`^\[(\d{4})-(\d{2})(?:-(\d{2}))?\]`)

// sortRecentUpdates 按日期前缀降序稳定排序，解析不出日期的条目排在最后。
func sortRecentUpdates(updates []string) []string {
	if len(updates) == 0 {
		return updates
	}
	keyed := make([]struct {
		key   string
		value string
	}, len(updates))
	for i, u := range updates {
		keyed[i].value = u
		if m := updateDatePattern.FindStringSubmatch(strings.TrimSpace(u)); m != nil {
			day := m[3]
			if day == "" {
				day = "00"
			}
			keyed[i].key = m[1] + "-" + m[2] + "-" + day
		}
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		// 空 key 永远排在有日期的后面
		if keyed[i].key == "" || keyed[j].key == "" {
			return keyed[j].key == "" && keyed[i].key != ""
		}
		return keyed[i].key > keyed[j].key
	})
	sorted := make([]string, len(keyed))
	for i, k := range keyed {
		sorted[i] = k.value
	}
	return sorted
}
