// Package mmr 实现 Maximal Marginal Relevance 多样性重排序。
package mmr

import "math"

// CosineSim 计算两个向量的余弦相似度。
func CosineSim(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(na) * math.Sqrt(nb)
	if denom == 0 {
		denom = 1e-9
	}
	return dot / denom
}

// Select 从候选向量中选出 k 个兼顾相关性与多样性的下标（相对 candidates 的下标）。
// 首个选择是与 query 相似度最高的候选；其后每次选择使
// lambda*sim(候选, query) - (1-lambda)*max_sim(候选, 已选) 最大化。
// 分数相同按先出现的候选优先。k 大于候选数时返回全部候选。
func Select(queryVec []float32, candidates [][]float32, k int, lambda float64) []int {
	if k > len(candidates) {
		k = len(candidates)
	}
	if k <= 0 {
		return nil
	}

	simToQuery := make([]float64, len(candidates))
	for i, v := range candidates {
		simToQuery[i] = CosineSim(queryVec, v)
	}

	selected := make([]int, 0, k)
	remaining := make([]bool, len(candidates))
	for i := range remaining {
		remaining[i] = true
	}

	for len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)
		for i := range candidates {
			if !remaining[i] {
				continue
			}
			var score float64
			if len(selected) == 0 {
				score = simToQuery[i]
			} else {
				redundancy := math.Inf(-1)
				for _, j := range selected {
					if s := CosineSim(candidates[i], candidates[j]); s > redundancy {
						redundancy = s
					}
				}
				score = lambda*simToQuery[i] - (1-lambda)*redundancy
			}
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		selected = append(selected, bestIdx)
		remaining[bestIdx] = false
	}
	return selected
}
