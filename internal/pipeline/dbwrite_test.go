package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeURL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://example.com", true},
		{"www.example.com", true},
		{"example.com", true},
		{"Notion", false},
		{"Visual Studio Code", false},
		{"v2.0 release notes", false}, // 带空格的点号不算域名
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, looksLikeURL(tt.input))
		})
	}
}

func TestBuildMediaItemsDedupByURL(t *testing.T) {
	versionID := "v-1"
	highlights := []Highlight{
		{URL: "https://x.com/a/1", Title: "first", Platform: "x", Score: 2.5},
		{URL: "https://x.com/a/1", Title: "dup", Platform: "x", Score: 2.5},
		{URL: "https://youtube.com/watch?v=b", Title: "second", Platform: "youtube", Score: 1.0},
	}

	items := buildMediaItems(highlights, &versionID, nil)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Title)
	assert.Equal(t, "second", items[1].Title)
	for _, item := range items {
		require.NotNil(t, item.ToolVersionID)
		assert.Equal(t, versionID, *item.ToolVersionID)
		assert.Nil(t, item.ToolID)
		assert.True(t, item.IsHighlighted)
	}
}

func TestBuildMediaItemsCarriesInfluencerAndMetrics(t *testing.T) {
	versionID := "v-1"
	highlights := []Highlight{
		{URL: "https://x.com/elonmusk/1", IsInfluencer: true, Metrics: "1.2M views"},
		{URL: "https://x.com/someone/2"},
	}

	items := buildMediaItems(highlights, &versionID, nil)
	require.Len(t, items, 2)
	assert.True(t, items[0].IsInfluencer)
	assert.Equal(t, "1.2M views", items[0].Metrics)
	assert.False(t, items[1].IsInfluencer)
	assert.Empty(t, items[1].Metrics)
}

func TestBuildMediaItemsLegacyToolScope(t *testing.T) {
	toolID := "t-1"
	items := buildMediaItems([]Highlight{{URL: "https://x.com/a/1"}}, nil, &toolID)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].ToolVersionID)
	require.NotNil(t, items[0].ToolID)
	assert.Equal(t, toolID, *items[0].ToolID)
}
