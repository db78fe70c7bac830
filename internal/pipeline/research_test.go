package pipeline

import (
	"context"
	"strings"
	"testing"

	"later-go/internal/config"
	"later-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResearchPassesScreenshotHints(t *testing.T) {
	llmClient := &fakeLLM{}
	o := NewOrchestrator(
		llmClient,
		&fakeSearch{},
		nil,
		nil,
		nil,
		newFakeToolRepo(),
		&fakeDocRepo{},
		&fakeVersionRepo{},
		config.ElasticsearchConfig{IndexName: "test_chunks"},
	)

	s := &State{
		Tool:  &model.Tool{ID: "t-1", Name: "Acme"},
		Input: Input{OCRText: "Acme 是一款协作编辑工具", Intent: "product_mention"},
	}
	require.NoError(t, o.research(context.Background(), s))

	assert.Equal(t, "product_mention", llmClient.synthHints.Intent)
	assert.Equal(t, "Acme 是一款协作编辑工具", llmClient.synthHints.OCRText)
}

func TestBuildSynthesisInputOrdering(t *testing.T) {
	got := buildSynthesisInput("P", []string{"A"}, []string{"B"})
	assert.Equal(t, "P\n---\nA\n---\nB", got)
}

func TestBuildSynthesisInputClipsPrimary(t *testing.T) {
	primary := strings.Repeat("a", primaryTextBudget+1_000)
	got := buildSynthesisInput(primary, nil, nil)
	assert.Equal(t, primaryTextBudget, len([]rune(got)))
}

func TestBuildSynthesisInputRespectsBudget(t *testing.T) {
	huge := strings.Repeat("x", synthesisBudget+5_000)
	got := buildSynthesisInput("", []string{huge}, nil)
	assert.Equal(t, synthesisBudget, len([]rune(got)))
}

func TestBuildSynthesisInputStopsAfterBudget(t *testing.T) {
	filler := strings.Repeat("f", synthesisBudget)
	got := buildSynthesisInput("", []string{filler}, []string{"should not appear"})
	assert.NotContains(t, got, "should not appear")
}

func TestBuildSynthesisInputEmpty(t *testing.T) {
	assert.Equal(t, "", buildSynthesisInput("", nil, nil))
}

func TestSortRecentUpdates(t *testing.T) {
	updates := []string{
		"[2024-05] 发布 v2 版本",
		"no date entry",
		"[2025-01-10] 新增 API",
		"[2024-05] 修复计费问题",
	}
	got := sortRecentUpdates(updates)
	require.Len(t, got, 4)
	assert.Equal(t, "[2025-01-10] 新增 API", got[0])
	// 同日期保持原有相对顺序
	assert.Equal(t, "[2024-05] 发布 v2 版本", got[1])
	assert.Equal(t, "[2024-05] 修复计费问题", got[2])
	// 解析不出日期的排最后
	assert.Equal(t, "no date entry", got[3])
}

func TestSortRecentUpdatesEmpty(t *testing.T) {
	assert.Empty(t, sortRecentUpdates(nil))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, containsAny("the pricing page lists three tiers", pricingKeywords))
	assert.False(t, containsAny("a completely unrelated sentence", priorityKeywords))
}

func TestClipRunes(t *testing.T) {
	assert.Equal(t, "短文本", clipRunes("短文本", 10))
	assert.Equal(t, "短文", clipRunes("短文本", 2))
}
