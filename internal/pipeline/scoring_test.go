package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewsBonus(t *testing.T) {
	tests := []struct {
		name    string
		snippet string
		want    float64
	}{
		{"无热度信息", "a plain product description", 0},
		{"K 后缀", "the video got 50K views this week", 0.5},
		{"M 后缀封顶", "1.2M views and counting", 3.0},
		{"带千分位逗号", "about 35,000 likes so far", 0.35},
		{"大小写不敏感", "120k VIEWS", 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, viewsBonus(tt.snippet), 1e-9)
		})
	}
}

func TestScoreSearchResult(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		snippet string
		want    float64
	}{
		{"普通网页", "https://example.com/blog", "", 0},
		{"社交平台加分", "https://x.com/someone/status/1", "", 0.5},
		{"影响力账号叠加", "https://x.com/elonmusk/status/1", "", 2.5},
		{"热度与平台叠加", "https://www.youtube.com/watch?v=a", "100K views", 1.5},
		{"非社交平台命中账号", "https://example.com/sama-interview", "", 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreSearchResult(tt.url, tt.snippet), 1e-9)
		})
	}
}

func TestHitsInfluencer(t *testing.T) {
	assert.True(t, hitsInfluencer("https://x.com/elonmusk/status/1"))
	assert.True(t, hitsInfluencer("https://example.com/SAMA-interview"))
	assert.False(t, hitsInfluencer("https://x.com/nobody/status/1"))
}

func TestExtractMetrics(t *testing.T) {
	assert.Equal(t, "1.2M views", extractMetrics("got 1.2M views overnight"))
	assert.Equal(t, "35,000 likes", extractMetrics("about 35,000 likes so far"))
	assert.Equal(t, "", extractMetrics("a plain product description"))
}

func TestAcceptHighlight(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		social   bool
		score    float64
		accepted int
		want     bool
	}{
		{"非社交来源直接拒绝", "other", false, 5.0, 0, false},
		{"亮点数量已满", "x", true, 5.0, maxHighlights, false},
		{"得分达标放行", "tiktok", true, 0.5, 3, true},
		{"前两个名额放行 x", "x", true, 0, 1, true},
		{"前两个名额放行 linkedin", "linkedin", true, 0, 0, true},
		{"第三个名额不再放行低分 x", "x", true, 0, 2, false},
		{"高分 youtube 放行", "youtube", true, 1.2, 4, true},
		{"低分 youtube 拒绝", "youtube", true, 0.4, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, acceptHighlight(tt.platform, tt.social, tt.score, tt.accepted))
		})
	}
}

func TestIsSupportPage(t *testing.T) {
	assert.True(t, isSupportPage("https://support.example.com/article"))
	assert.True(t, isSupportPage("https://example.com/help/getting-started"))
	assert.True(t, isSupportPage("https://example.com/community"))
	assert.True(t, isSupportPage("https://Example.com/Forum/topic"))
	assert.False(t, isSupportPage("https://example.com/pricing"))
	assert.False(t, isSupportPage("https://example.com/blog"))
}
