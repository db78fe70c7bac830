package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextEmpty(t *testing.T) {
	assert.Nil(t, SplitText("", DefaultSize, DefaultOverlap))
}

func TestSplitTextShortInput(t *testing.T) {
	text := "一个远小于分块上限的短文本。"
	chunks := SplitText(text, DefaultSize, DefaultOverlap)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitTextBounded(t *testing.T) {
	text := strings.Repeat("some words in a sentence. ", 200)
	chunks := SplitText(text, 100, 20)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.LessOrEqualf(t, len([]rune(c)), 100, "chunk %d 超出上限", i)
		assert.NotEmptyf(t, c, "chunk %d 为空", i)
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta. ", 100)
	chunks := SplitText(text, 100, 20)
	require.Greater(t, len(chunks), 1)

	// 每个后继分块都以前一个分块的尾部 20 个 rune 开头
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tail := string(prev[len(prev)-20:])
		assert.Truef(t, strings.HasPrefix(chunks[i], tail), "chunk %d 缺少与前块的重叠", i)
	}
}

func TestSplitTextDeterministic(t *testing.T) {
	text := strings.Repeat("确定性切块测试，相同输入必须得到相同输出。\n\n", 80)
	first := SplitText(text, 200, 40)
	second := SplitText(text, 200, 40)
	assert.Equal(t, first, second)
}

func TestSplitTextPrefersParagraphBoundary(t *testing.T) {
	// 段落边界落在窗口后半段，应当在 "\n\n" 之后切开
	text := strings.Repeat("x", 70) + "\n\n" + strings.Repeat("y", 70)
	chunks := SplitText(text, 100, 10)
	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"))
}

func TestSplitTextDegenerateParams(t *testing.T) {
	// overlap >= size 时退化为无重叠的硬切，仍然要覆盖全部文本
	text := strings.Repeat("z", 250)
	chunks := SplitText(text, 100, 100)
	assert.Equal(t, []string{strings.Repeat("z", 100), strings.Repeat("z", 100), strings.Repeat("z", 50)}, chunks)
}
