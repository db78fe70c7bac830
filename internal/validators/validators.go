// Package validators 提供产品名的启发式校验与兜底提取。
package validators

import (
	"regexp"
	"strings"
)

var (
	reAlpha = regexp.MustCompile(`[a-zA-Z]`)
	rePunct = regexp.MustCompile(`[^\w\s\-&+.,]`)
	reURL   = regexp.MustCompile(`(?i)https?://\S+`)
)

// 常见的 OCR 噪声/模型拒答短语，命中即认为不是产品名。
var junkPhrases = []string{
	"i'm sorry", "i cant assist", "i can't assist", "can't assist", "cannot assist",
}

// IsPlausibleProductName 判断一个名字是否像真实的产品/公司名，
// 用于阻止用长段落、URL、报错文案等垃圾内容创建 Tool。
func IsPlausibleProductName(name string) bool {
	if name == "" {
		return false
	}
	s := strings.Join(strings.Fields(name), " ")
	if len(s) < 2 || len(s) > 80 {
		return false
	}
	low := strings.ToLower(s)
	for _, p := range junkPhrases {
		if strings.Contains(low, p) {
			return false
		}
	}
	if strings.Contains(low, "http://") || strings.Contains(low, "https://") || strings.Contains(low, "www.") {
		return false
	}
	if !reAlpha.MatchString(s) {
		return false
	}
	if len(rePunct.FindAllString(s, -1)) > 4 {
		return false
	}
	if len(strings.Fields(s)) > 12 {
		return false
	}
	return true
}

// FallbackNameFromText 从 OCR 文本中启发式地提取一个短候选名：
// 取第一行非空文本，去掉 URL 与包裹引号，最多 6 个词 / 48 字符。
func FallbackNameFromText(ocrText string) string {
	if ocrText == "" {
		return ""
	}
	var line string
	for _, l := range strings.Split(ocrText, "\n") {
		if s := strings.TrimSpace(l); s != "" {
			line = s
			break
		}
	}
	if line == "" {
		return ""
	}
	line = reURL.ReplaceAllString(line, "")
	line = strings.Trim(line, " '\"“”‘’–—-")
	line = strings.Join(strings.Fields(line), " ")
	words := strings.Fields(line)
	if len(words) > 6 {
		line = strings.Join(words[:6], " ")
	}
	if len(line) > 48 {
		line = line[:48]
	}
	return line
}
