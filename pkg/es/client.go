// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"later-go/internal/config"
	"later-go/internal/model"
	"later-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端
func InitES(esCfg config.ElasticsearchConfig, dims int) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(esCfg.IndexName, dims)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(indexName string, dims int) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	// 如果 res.StatusCode 是 200，说明索引已存在
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	// 如果 res.StatusCode 是 404，说明索引不存在，需要创建
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	// 向量维度跟随 embedding 模型配置，相似度固定用 cosine
	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"chunk_id": { "type": "keyword" },
				"tool_id": { "type": "keyword" },
				"document_id": { "type": "long" },
				"chunk_index": { "type": "integer" },
				"text_content": { "type": "text" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				}
			}
		}
	}`, dims)

	res, err = ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(mapping)),
	)

	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// IndexChunks 将一批向量化文本块索引到 Elasticsearch。
// 以 chunk_id 作为文档 ID，重复写入会覆盖而不是追加。
func IndexChunks(ctx context.Context, indexName string, chunks []model.EsChunk) error {
	for _, chunk := range chunks {
		docBytes, err := json.Marshal(chunk)
		if err != nil {
			return err
		}

		req := esapi.IndexRequest{
			Index:      indexName,
			DocumentID: chunk.ChunkID,
			Body:       bytes.NewReader(docBytes),
		}

		res, err := req.Do(ctx, ESClient)
		if err != nil {
			return err
		}
		res.Body.Close()

		if res.IsError() {
			log.Errorf("索引文本块到 Elasticsearch 出错: %s", res.String())
			return errors.New("failed to index chunk")
		}
	}

	// 批量写完统一刷新一次，而不是每条都带 refresh
	res, err := ESClient.Indices.Refresh(ESClient.Indices.Refresh.WithIndex(indexName))
	if err != nil {
		return err
	}
	res.Body.Close()
	return nil
}

// DeleteByToolID 删除某个工具名下的全部向量块，工具整树删除时使用。
func DeleteByToolID(ctx context.Context, indexName, toolID string) error {
	query := fmt.Sprintf(`{"query": {"term": {"tool_id": "%s"}}}`, toolID)

	res, err := ESClient.DeleteByQuery(
		[]string{indexName},
		strings.NewReader(query),
		ESClient.DeleteByQuery.WithContext(ctx),
		ESClient.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("删除工具 %s 的向量块出错: %s", toolID, res.String())
		return errors.New("failed to delete chunks by tool id")
	}
	return nil
}

// DeleteByDocumentIDs 删除一组文档 ID 名下的向量块，强制重采单个来源时使用。
func DeleteByDocumentIDs(ctx context.Context, indexName string, documentIDs []uint) error {
	if len(documentIDs) == 0 {
		return nil
	}
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"terms": map[string]interface{}{"document_id": documentIDs},
		},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}

	res, err := ESClient.DeleteByQuery(
		[]string{indexName},
		bytes.NewReader(bodyBytes),
		ESClient.DeleteByQuery.WithContext(ctx),
		ESClient.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("按文档 ID 删除向量块出错: %s", res.String())
		return errors.New("failed to delete chunks by document ids")
	}
	return nil
}

type knnSearchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64       `json:"_score"`
			Source model.EsChunk `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// ScoredChunk 是一次 kNN 检索命中的文本块，带相似度得分。
type ScoredChunk struct {
	Chunk model.EsChunk
	Score float64
}

// KnnSearch 在向量块里做 kNN 检索，返回按相似度降序的候选池。
// toolID 非空时限定在该工具名下，为空时跨全部工具做全局检索。
// 返回结果带原始向量，供上层做多样性重排。
func KnnSearch(ctx context.Context, indexName, toolID string, queryVector []float32, poolSize int) ([]ScoredChunk, error) {
	knn := map[string]interface{}{
		"field":          "vector",
		"query_vector":   queryVector,
		"k":              poolSize,
		"num_candidates": poolSize * 4,
	}
	if toolID != "" {
		knn["filter"] = map[string]interface{}{
			"term": map[string]interface{}{"tool_id": toolID},
		}
	}
	searchBody := map[string]interface{}{
		"knn":     knn,
		"size":    poolSize,
		"_source": true,
	}

	bodyBytes, err := json.Marshal(searchBody)
	if err != nil {
		return nil, err
	}

	res, err := ESClient.Search(
		ESClient.Search.WithContext(ctx),
		ESClient.Search.WithIndex(indexName),
		ESClient.Search.WithBody(bytes.NewReader(bodyBytes)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("kNN 检索出错: %s", res.String())
		return nil, errors.New("knn search failed")
	}

	var parsed knnSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode knn response: %w", err)
	}

	results := make([]ScoredChunk, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		results = append(results, ScoredChunk{Chunk: hit.Source, Score: hit.Score})
	}
	return results, nil
}
