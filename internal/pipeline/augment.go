package pipeline

import (
	"context"
	"fmt"

	"later-go/internal/model"
	"later-go/pkg/log"
	"later-go/pkg/urlutil"
)

const (
	// 单次运行最多收录的亮点数和增广文档数
	maxHighlights  = 6
	maxAugmentDocs = 12
	// 增广来源单页最多索引的分块数
	maxChunksPerSource = 6
)

// augmentQueryTemplates 是增广阶段的固定查询组，%s 为产品名。
var augmentQueryTemplates = []string{
	"%s official documentation",
	"%s blog",
	"%s news",
	"%s pricing",
	"%s competitors",
	"%s alternatives",
	"%s site:youtube.com",
	"%s site:x.com",
	"%s site:linkedin.com",
	"%s site:tiktok.com",
}

// augmentSources 用固定查询组发现补充来源：
// 社交结果按打分收为亮点，其余页面抓取后入库。
// 所有外部调用失败都按"该查询无结果"处理，本阶段永不失败。
func (o *Orchestrator) augmentSources(ctx context.Context, s *State) error {
	queries := make([]string, 0, len(augmentQueryTemplates)+3)
	for _, tmpl := range augmentQueryTemplates {
		queries = append(queries, fmt.Sprintf(tmpl, s.Tool.Name))
	}
	// 站内查询只在已知官网时追加
	if host := urlutil.Host(s.CanonicalURL); host != "" {
		queries = append(queries,
			fmt.Sprintf("site:%s documentation", host),
			fmt.Sprintf("site:%s blog", host),
			fmt.Sprintf("site:%s pricing", host),
		)
	}

	// 跨整次运行的 URL 去重集合，原始输入 URL 先占位
	seen := map[string]bool{}
	if s.CanonicalURL != "" {
		seen[s.CanonicalURL] = true
	}

	docsAdded := 0
	for _, query := range queries {
		if len(s.Highlights) >= maxHighlights && docsAdded >= maxAugmentDocs {
			log.Infof("[Augmenter] 亮点和文档均已达上限，提前结束")
			break
		}

		results, err := o.searchClient.Search(ctx, query, 5)
		if err != nil {
			log.Warnf("[Augmenter] 查询 '%s' 失败: %v", query, err)
			continue
		}

		for _, r := range results {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true

			kind := urlutil.ClassifyLink(r.URL)
			social := kind == urlutil.KindVideoYouTube || kind == urlutil.KindVideoTikTok || kind == urlutil.KindSocial
			platform := urlutil.Platform(r.URL)
			score := scoreSearchResult(r.URL, r.Content)

			if acceptHighlight(platform, social, score, len(s.Highlights)) {
				s.Highlights = append(s.Highlights, Highlight{
					URL:          r.URL,
					Title:        r.Title,
					Kind:         string(kind),
					Platform:     platform,
					AuthorHandle: urlutil.AuthorHandle(r.URL),
					ThumbnailURL: urlutil.YouTubeThumbnail(r.URL),
					Score:        score,
					IsInfluencer: hitsInfluencer(r.URL),
					Metrics:      extractMetrics(r.Content),
				})
				log.Infof("[Augmenter] 收录亮点 #%d: %s (score=%.1f)", len(s.Highlights), r.URL, score)
				continue
			}

			// 社交结果只能当亮点，落选了也不入库
			if social || docsAdded >= maxAugmentDocs || isSupportPage(r.URL) {
				continue
			}

			text, err := o.scraper.FetchText(ctx, r.URL)
			if err != nil || text == "" {
				log.Warnf("[Augmenter] 抓取补充来源 %s 失败: %v", r.URL, err)
				continue
			}

			doc := &model.Document{
				ToolID:     s.Tool.ID,
				SourceType: model.SourceTypeWebSearch,
				SourceURL:  r.URL,
				Title:      r.Title,
				Content:    text,
			}
			if err := o.indexDocument(ctx, s, doc, maxChunksPerSource); err != nil {
				log.Warnf("[Augmenter] 索引补充来源 %s 失败: %v", r.URL, err)
				continue
			}
			docsAdded++
		}
	}

	log.Infof("[Augmenter] 增广完成: %d 个亮点, %d 份补充文档", len(s.Highlights), docsAdded)
	return nil
}
