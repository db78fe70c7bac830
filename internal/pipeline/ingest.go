package pipeline

import (
	"context"
	"fmt"
	"unicode/utf8"

	"later-go/internal/model"
	"later-go/pkg/chunk"
	"later-go/pkg/es"
	"later-go/pkg/log"
	"later-go/pkg/urlutil"
)

// ingest 采集主来源的正文，切块向量化后写入存储。
// 抓取失败和向量化失败都是本阶段的硬错误。
func (o *Orchestrator) ingest(ctx context.Context, s *State) error {
	// 截图/纯文本通道：没有 URL 时直接把 OCR 文本当主素材
	if s.CanonicalURL == "" {
		if s.Input.OCRText == "" {
			log.Warnf("[Ingest] 工具 %s 既无 URL 也无文本素材，跳过采集", s.Tool.ID)
			return nil
		}
		sourceURL := s.Input.SourceURL
		if sourceURL == "" {
			sourceURL = "user_input"
		}
		doc := &model.Document{
			ToolID:     s.Tool.ID,
			SourceType: model.SourceTypeScreenshot,
			SourceURL:  sourceURL,
			Title:      s.Tool.Name,
			Content:    s.Input.OCRText,
		}
		if err := o.indexDocument(ctx, s, doc, 0); err != nil {
			return err
		}
		s.PrimaryText = s.Input.OCRText
		return nil
	}

	// URL 通道：视频链接先试字幕，其余直接抓取
	kind := urlutil.ClassifyLink(s.CanonicalURL)
	var text string
	sourceType := model.SourceTypeWebScrape

	if kind == urlutil.KindVideoYouTube {
		log.Infof("[Ingest] 步骤1: %s 是视频链接，优先拉取字幕", s.CanonicalURL)
		if t := o.transcripts.Fetch(ctx, urlutil.YouTubeID(s.CanonicalURL)); t != "" {
			text = t
			sourceType = model.SourceTypeTranscript
		}
	}

	if text == "" {
		log.Infof("[Ingest] 步骤1: 抓取主来源 %s", s.CanonicalURL)
		fetched, err := o.scraper.FetchText(ctx, s.CanonicalURL)
		if err != nil {
			return fmt.Errorf("采集主来源失败: %w", err)
		}
		text = fetched
	}

	if text == "" {
		log.Warnf("[Ingest] 主来源 %s 抓到的正文为空", s.CanonicalURL)
		return nil
	}
	log.Infof("[Ingest] 步骤2: 主来源正文长度 %d 字符", utf8.RuneCountInString(text))

	doc := &model.Document{
		ToolID:     s.Tool.ID,
		SourceType: sourceType,
		SourceURL:  s.CanonicalURL,
		Title:      s.Tool.Name,
		Content:    text,
	}
	if err := o.indexDocument(ctx, s, doc, 0); err != nil {
		return err
	}
	s.PrimaryText = text

	// 截图通道带 URL 时，OCR 文本作为补充素材一并入库
	if s.Input.OCRText != "" {
		ocrDoc := &model.Document{
			ToolID:     s.Tool.ID,
			SourceType: model.SourceTypeScreenshot,
			SourceURL:  s.Input.SourceURL,
			Title:      s.Tool.Name,
			Content:    s.Input.OCRText,
		}
		if err := o.indexDocument(ctx, s, ocrDoc, 0); err != nil {
			return err
		}
	}
	return nil
}

// indexDocument 落库一份文档并完成切块、向量化和 ES 索引。
// maxChunks > 0 时只索引前 maxChunks 个分块。向量化失败向上传播。
func (o *Orchestrator) indexDocument(ctx context.Context, s *State, doc *model.Document, maxChunks int) error {
	if err := o.docRepo.Create(doc); err != nil {
		return fmt.Errorf("写入文档失败: %w", err)
	}
	s.DocumentIDs = append(s.DocumentIDs, doc.ID)

	chunks := chunk.Split(doc.Content)
	if maxChunks > 0 && len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := o.embeddingClient.CreateEmbeddings(ctx, chunks)
	if err != nil {
		return fmt.Errorf("向量化失败: %w", err)
	}

	esChunks := make([]model.EsChunk, 0, len(chunks))
	for i, text := range chunks {
		esChunks = append(esChunks, model.EsChunk{
			// 文档 ID + 块序号，重复索引同一文档时天然幂等
			ChunkID:     fmt.Sprintf("%d-%d", doc.ID, i),
			ToolID:      doc.ToolID,
			DocumentID:  doc.ID,
			ChunkIndex:  i,
			TextContent: text,
			Vector:      vectors[i],
		})
	}
	if err := es.IndexChunks(ctx, o.esIndex, esChunks); err != nil {
		return fmt.Errorf("索引向量块失败: %w", err)
	}

	log.Infof("[Ingest] 文档 %d 已索引 %d 个分块", doc.ID, len(esChunks))
	return nil
}
