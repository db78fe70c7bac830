package pipeline

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"later-go/pkg/urlutil"
)

// influencerHandles 是相关性加分用的固定影响力账号集合，对 URL 做子串匹配。
var influencerHandles = []string{"elonmusk", "sama", "jensenh", "satyanadella", "sundarpichai"}

// viewsPattern 从结果摘要里启发式地抠出播放/点赞量，如 "1.2M views"、"35,000 likes"。
var viewsPattern = regexp.MustCompile(`(?i)(\d[\d,.]*)\s*([KM]?)\s*(?:views|likes)`)

// scoreSearchResult 给一条搜索结果打相关性分：
// 社交/视频平台 +0.5，命中影响力账号 +2.0，外加摘要里的热度加成（上限 3.0）。
func scoreSearchResult(resultURL, snippet string) float64 {
	var score float64
	if urlutil.IsSocialHost(resultURL) {
		score += 0.5
	}
	if hitsInfluencer(resultURL) {
		score += 2.0
	}
	return score + viewsBonus(snippet)
}

// hitsInfluencer 判断 URL 是否命中影响力账号集合。
func hitsInfluencer(resultURL string) bool {
	lower := strings.ToLower(resultURL)
	for _, handle := range influencerHandles {
		if strings.Contains(lower, handle) {
			return true
		}
	}
	return false
}

// extractMetrics 从摘要里抠出热度描述原文（如 "1.2M views"），没有时返回空串。
func extractMetrics(snippet string) string {
	return viewsPattern.FindString(snippet)
}

// viewsBonus 把摘要里的播放量换算成加分，每 10 万次 1 分，封顶 3 分。
func viewsBonus(snippet string) float64 {
	m := viewsPattern.FindStringSubmatch(snippet)
	if m == nil {
		return 0
	}
	numStr := strings.ReplaceAll(m[1], ",", "")
	views, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(m[2]) {
	case "K":
		views *= 1_000
	case "M":
		views *= 1_000_000
	}
	return math.Min(views/100_000, 3.0)
}

// acceptHighlight 判定一条社交结果是否收为亮点：
// 必须来自社交/视频平台且未达亮点上限；得分达标，或者在前两个名额里放行 x/linkedin，
// 或者是得分偏高的 youtube 结果。
func acceptHighlight(platform string, social bool, score float64, accepted int) bool {
	if !social || accepted >= maxHighlights {
		return false
	}
	if score >= 0.5 {
		return true
	}
	if (platform == "x" || platform == "linkedin") && accepted < 2 {
		return true
	}
	if platform == "youtube" && score >= 1.0 {
		return true
	}
	return false
}

// isSupportPage 判断 URL 是否命中客服/帮助/社区页面黑名单，这类页面不值得入库。
func isSupportPage(raw string) bool {
	lower := strings.ToLower(raw)
	for _, frag := range []string{"support.", "help.", "/support", "/help", "/community", "/forum"} {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
