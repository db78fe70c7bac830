// Package scrape 负责抓取网页并抽取可读正文。
package scrape

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"later-go/internal/config"
	"later-go/pkg/log"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxRetries = 3
	// 单页正文上限，超出部分直接截断
	maxTextLength = 200_000

	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Scraper defines the interface for fetching page text.
type Scraper interface {
	// FetchText 抓取页面并返回清洗后的纯文本。
	// 直接抓取重试失败后会走文本渲染代理兜底。
	FetchText(ctx context.Context, pageURL string) (string, error)
}

type httpScraper struct {
	cfg    config.ScrapeConfig
	client *http.Client
}

// New creates a new scraper.
func New(cfg config.ScrapeConfig) Scraper {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &httpScraper{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *httpScraper) FetchText(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		text, err := s.fetchOnce(ctx, pageURL)
		if err == nil {
			return text, nil
		}
		lastErr = err
		log.Warnf("[Scrape] 第 %d 次抓取 %s 失败: %v", attempt, pageURL, err)

		if attempt < maxRetries {
			// 指数退避加随机抖动
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			backoff += time.Duration(rand.Int63n(int64(500 * time.Millisecond)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	// 直接抓取全部失败，走文本渲染代理兜底
	if s.cfg.ProxyBaseURL != "" {
		log.Infof("[Scrape] 直接抓取 %s 失败，改走渲染代理", pageURL)
		text, err := s.fetchViaProxy(ctx, pageURL)
		if err == nil {
			return text, nil
		}
		log.Warnf("[Scrape] 渲染代理抓取 %s 也失败: %v", pageURL, err)
	}

	return "", fmt.Errorf("抓取 %s 失败: %w", pageURL, lastErr)
}

func (s *httpScraper) fetchOnce(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find("script, style, noscript, template").Remove()
	return cleanText(doc.Find("body").Text()), nil
}

// fetchViaProxy 通过纯文本渲染代理抓取，代理直接返回渲染后的文本。
func (s *httpScraper) fetchViaProxy(ctx context.Context, pageURL string) (string, error) {
	proxyURL := strings.TrimRight(s.cfg.ProxyBaseURL, "/") + "/" + pageURL
	req, err := http.NewRequestWithContext(ctx, "GET", proxyURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create proxy request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("proxy returned status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTextLength*4))
	if err != nil {
		return "", fmt.Errorf("failed to read proxy response: %w", err)
	}
	return cleanText(string(body)), nil
}

// cleanText 按行清洗文本：行内空白折叠成单个空格，
// 去掉首尾空白和长度不足的噪声行，并截断到上限。
func cleanText(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if len([]rune(line)) < 3 {
			continue
		}
		kept = append(kept, line)
	}

	text := strings.Join(kept, "\n")
	runes := []rune(text)
	if len(runes) > maxTextLength {
		text = string(runes[:maxTextLength])
	}
	return text
}
