// Package transcript 负责拉取 YouTube 视频的字幕文本。
// 字幕是锦上添花的素材，任何失败都只返回空串，不打断上层流程。
package transcript

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"later-go/pkg/log"
)

// Fetcher defines the interface for fetching video transcripts.
type Fetcher interface {
	// Fetch 返回视频的字幕全文，没有字幕或拉取失败时返回空串。
	Fetch(ctx context.Context, videoID string) string
}

type youtubeFetcher struct {
	client *http.Client
}

// 字幕全文上限，与网页正文共用同一预算
const maxTranscriptLength = 200_000

// NewFetcher creates a new transcript fetcher.
func NewFetcher() Fetcher {
	return &youtubeFetcher{
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

func (f *youtubeFetcher) Fetch(ctx context.Context, videoID string) string {
	if videoID == "" {
		return ""
	}

	// timedtext 接口只对有公开字幕的视频返回内容
	captionURL := fmt.Sprintf("https://www.youtube.com/api/timedtext?lang=en&v=%s", videoID)
	req, err := http.NewRequestWithContext(ctx, "GET", captionURL, nil)
	if err != nil {
		return ""
	}

	resp, err := f.client.Do(req)
	if err != nil {
		log.Warnf("[Transcript] 拉取视频 %s 字幕失败: %v", videoID, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debugf("[Transcript] 视频 %s 字幕接口返回 %s", videoID, resp.Status)
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}

	var parsed timedText
	if err := xml.Unmarshal(body, &parsed); err != nil {
		log.Debugf("[Transcript] 视频 %s 字幕解析失败: %v", videoID, err)
		return ""
	}

	parts := make([]string, 0, len(parsed.Texts))
	for _, t := range parsed.Texts {
		line := strings.TrimSpace(html.UnescapeString(t.Value))
		if line != "" {
			parts = append(parts, line)
		}
	}
	return capTranscript(strings.Join(parts, " "))
}

func capTranscript(text string) string {
	runes := []rune(text)
	if len(runes) <= maxTranscriptLength {
		return text
	}
	return string(runes[:maxTranscriptLength])
}
