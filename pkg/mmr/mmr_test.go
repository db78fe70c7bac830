package mmr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSim(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSim([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSim([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSim([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	// 零向量不应除零
	assert.InDelta(t, 0.0, CosineSim([]float32{0, 0}, []float32{1, 0}), 1e-9)
}

func TestSelectFirstPickIsMostSimilar(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{0, 1},
		{1, 0.1},
		{0.5, 0.5},
	}
	picked := Select(query, candidates, 1, 0.7)
	require.Len(t, picked, 1)
	assert.Equal(t, 1, picked[0])
}

func TestSelectPrefersDiversity(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{1, 0},       // 与 query 完全一致
		{0.95, 0.05}, // 与首选高度冗余
		{0, 1},       // 正交，携带新信息
	}
	// λ 偏小让多样性主导：第二个名额应该给正交向量而不是近重复
	picked := Select(query, candidates, 2, 0.3)
	require.Len(t, picked, 2)
	assert.Equal(t, 0, picked[0])
	assert.Equal(t, 2, picked[1])
}

func TestSelectLambdaOneMatchesSimilarityOrder(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{0, 1},   // sim 0
		{1, 0},   // sim 1
		{1, 1},   // sim ≈0.707
		{1, 0.5}, // sim ≈0.894
	}
	// λ=1 时冗余项权重为零，选择顺序就是纯相似度降序
	picked := Select(query, candidates, 4, 1.0)
	assert.Equal(t, []int{1, 3, 2, 0}, picked)
}

func TestSelectKLargerThanPool(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{{1, 0}, {0, 1}, {0.5, 0.5}}
	picked := Select(query, candidates, 10, 0.7)
	assert.Len(t, picked, 3)
	assert.ElementsMatch(t, []int{0, 1, 2}, picked)
}

func TestSelectNonPositiveK(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{{1, 0}}
	assert.Nil(t, Select(query, candidates, 0, 0.7))
	assert.Nil(t, Select(query, nil, 3, 0.7))
}

func TestSelectTieBreaksByOrder(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{1, 0},
		{1, 0},
	}
	picked := Select(query, candidates, 1, 0.7)
	require.Len(t, picked, 1)
	assert.Equal(t, 0, picked[0])
}
