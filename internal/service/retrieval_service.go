// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"

	"later-go/internal/config"
	"later-go/internal/model"
	"later-go/internal/repository"
	"later-go/pkg/embedding"
	"later-go/pkg/es"
	"later-go/pkg/log"
	"later-go/pkg/mmr"
)

const (
	// 先取一个超配的候选池，再在池内做精选
	retrievalPoolSize = 48
	// K 的钳位范围与默认值
	maxTopK            = 12
	defaultTopK        = 8
	defaultTopKCompact = 4
	minCitations       = 2
	maxCitations       = 8
	mmrLambda          = 0.7
)

// RetrievedChunk 是一条检索命中，带相似度得分。
type RetrievedChunk struct {
	Chunk model.EsChunk
	Score float64
}

// RetrievalService 定义了问答检索的接口。
type RetrievalService interface {
	// Retrieve 做向量检索并返回多样性重排后的 top-K 片段和引用列表。
	// toolID 为空时在全部工具的素材里做全局检索。
	Retrieve(ctx context.Context, toolID, question string, topK int, preferCompact bool) ([]RetrievedChunk, []model.Citation, error)
}

type retrievalService struct {
	embeddingClient embedding.Client
	docRepo         repository.DocumentRepository
	esIndex         string
}

// NewRetrievalService 创建一个新的 RetrievalService 实例。
func NewRetrievalService(embeddingClient embedding.Client, docRepo repository.DocumentRepository, esCfg config.ElasticsearchConfig) RetrievalService {
	return &retrievalService{
		embeddingClient: embeddingClient,
		docRepo:         docRepo,
		esIndex:         esCfg.IndexName,
	}
}

func (s *retrievalService) Retrieve(ctx context.Context, toolID, question string, topK int, preferCompact bool) ([]RetrievedChunk, []model.Citation, error) {
	queryVec, err := s.embeddingClient.CreateEmbedding(ctx, question)
	if err != nil {
		return nil, nil, fmt.Errorf("问题向量化失败: %w", err)
	}

	pool, err := es.KnnSearch(ctx, s.esIndex, toolID, queryVec, retrievalPoolSize)
	if err != nil {
		return nil, nil, fmt.Errorf("向量检索失败: %w", err)
	}
	if len(pool) == 0 {
		return nil, nil, nil
	}

	k := clampTopK(topK, preferCompact)
	log.Debugf("[Retrieval] 候选池 %d 条, K=%d", len(pool), k)

	// 在候选池里做多样性重排，相关性和冗余度按 λ 折中
	vectors := make([][]float32, len(pool))
	for i, c := range pool {
		vectors[i] = c.Chunk.Vector
	}
	picked := mmr.Select(queryVec, vectors, k, mmrLambda)

	selected := make([]RetrievedChunk, 0, len(picked))
	for _, idx := range picked {
		selected = append(selected, RetrievedChunk{Chunk: pool[idx].Chunk, Score: pool[idx].Score})
	}

	citations := s.buildCitations(pool, k)
	return selected, citations, nil
}

// clampTopK 把调用方的 K 钳位到 [0,12]，未指定时按回答风格取默认值。
func clampTopK(topK int, preferCompact bool) int {
	if topK <= 0 {
		if preferCompact {
			return defaultTopKCompact
		}
		return defaultTopK
	}
	if topK > maxTopK {
		return maxTopK
	}
	return topK
}

// buildCitations 从按相似度排好序的候选池里取引用，
// 条数在 [2,8] 之间且不超过候选数，K 再小也至少给出 2 条。
func (s *retrievalService) buildCitations(pool []es.ScoredChunk, k int) []model.Citation {
	count := k
	if count < minCitations {
		count = minCitations
	}
	if count > maxCitations {
		count = maxCitations
	}
	if count > len(pool) {
		count = len(pool)
	}

	docIDs := make([]uint, 0, count)
	for i := 0; i < count; i++ {
		docIDs = append(docIDs, pool[i].Chunk.DocumentID)
	}
	docs, err := s.docRepo.FindByIDs(docIDs)
	if err != nil {
		log.Warnf("[Retrieval] 读取引用文档失败: %v", err)
	}
	docByID := make(map[uint]*model.Document, len(docs))
	for _, doc := range docs {
		docByID[doc.ID] = doc
	}

	citations := make([]model.Citation, 0, count)
	for i := 0; i < count; i++ {
		chunk := pool[i].Chunk
		citation := model.Citation{
			Index:      i + 1,
			DocumentID: chunk.DocumentID,
			Snippet:    clipSnippet(chunk.TextContent, 200),
		}
		if doc := docByID[chunk.DocumentID]; doc != nil {
			citation.SourceURL = doc.SourceURL
			citation.Title = doc.Title
		}
		citations = append(citations, citation)
	}
	return citations
}

func clipSnippet(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
