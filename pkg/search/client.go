// Package search 封装了外部网页搜索服务的客户端。
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"later-go/internal/config"
	"later-go/pkg/log"
)

// Result 是一条搜索结果。
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Client defines the interface for a web search client.
type Client interface {
	// Search 执行一次搜索。未配置 API Key 时直接返回空结果，不视为错误。
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

type tavilyClient struct {
	cfg    config.SearchConfig
	client *http.Client
}

// NewClient creates a new search client.
func NewClient(cfg config.SearchConfig) Client {
	return &tavilyClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

func (c *tavilyClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if c.cfg.APIKey == "" {
		log.Warnf("[Search] 未配置搜索 API Key，查询 '%s' 返回空结果", query)
		return []Result{}, nil
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	reqBytes, err := json.Marshal(searchRequest{
		APIKey:     c.cfg.APIKey,
		Query:      query,
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/search", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call search api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	log.Debugf("[Search] 查询 '%s' 返回 %d 条结果", query, len(parsed.Results))
	return parsed.Results, nil
}
