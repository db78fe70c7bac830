// Package urlutil 提供 URL 规范化与链接分类的纯函数。
package urlutil

import (
	"net/url"
	"strings"
)

// trackingParams 是固定的跟踪参数黑名单，规范化时会被移除。
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"gclid":        {},
	"fbclid":       {},
}

// Canonicalize 将 URL 规范化为稳定的身份键：
// scheme/host 小写、scheme 缺省为 https、path 缺省为 "/"、
// 去掉 fragment、移除跟踪参数，其余查询参数按原有相对顺序重新编码。
// 纯函数，无 I/O；畸形输入按尽力而为处理，不返回错误。
func Canonicalize(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	host := strings.ToLower(parsed.Host)
	// Path 保持解码值，RawPath 保留原始转义，交给 String() 输出，
	// 避免对已经转义的 path 二次编码。
	path := parsed.Path
	rawPath := parsed.RawPath
	if path == "" {
		path = "/"
		rawPath = ""
	}

	out := url.URL{
		Scheme:   scheme,
		Host:     host,
		Path:     path,
		RawPath:  rawPath,
		RawQuery: filterQuery(parsed.RawQuery),
	}
	return out.String()
}

// filterQuery 移除跟踪参数并保持其余键值对的原始相对顺序。
func filterQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		value := ""
		hasValue := false
		if i := strings.Index(pair, "="); i >= 0 {
			key = pair[:i]
			value = pair[i+1:]
			hasValue = true
		}
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			decodedKey = key
		}
		if _, deny := trackingParams[decodedKey]; deny {
			continue
		}
		encoded := url.QueryEscape(decodedKey)
		if hasValue {
			decodedValue, err := url.QueryUnescape(value)
			if err != nil {
				decodedValue = value
			}
			encoded += "=" + url.QueryEscape(decodedValue)
		} else {
			encoded += "="
		}
		kept = append(kept, encoded)
	}
	return strings.Join(kept, "&")
}

// LinkKind 表示一个 URL 的内容获取策略。
type LinkKind string

const (
	KindVideoYouTube LinkKind = "video_youtube"
	KindVideoTikTok  LinkKind = "video_tiktok"
	KindSocial       LinkKind = "social"
	KindPodcast      LinkKind = "podcast"
	KindArticle      LinkKind = "article_or_homepage"
)

// podcastHosts 是固定的播客托管域名集合。
var podcastHosts = []string{
	"spotify.com", "podcasts.google", "podcasts.apple", "buzzsprout",
	"simplecast", "anchor.fm", "megaphone.fm", "transistor.fm", "castbox.fm",
}

// ClassifyLink 根据 URL 的 host 映射到内容获取策略。纯函数，无失败模式。
func ClassifyLink(raw string) LinkKind {
	host := Host(raw)
	if host == "" {
		return KindArticle
	}
	if strings.Contains(host, "youtube.com") || strings.Contains(host, "youtu.be") {
		return KindVideoYouTube
	}
	if strings.Contains(host, "tiktok.com") {
		return KindVideoTikTok
	}
	for _, h := range []string{"x.com", "twitter.com", "linkedin.com"} {
		if strings.Contains(host, h) {
			return KindSocial
		}
	}
	for _, h := range podcastHosts {
		if strings.Contains(host, h) {
			return KindPodcast
		}
	}
	return KindArticle
}

// Host 返回 URL 的小写 hostname（不含端口），解析失败时返回空串。
func Host(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// socialHosts 是官网解析时的社交平台黑名单。
var socialHosts = []string{
	"x.com", "twitter.com", "linkedin.com", "youtube.com", "youtu.be", "tiktok.com",
}

// IsSocialHost 判断 URL 的 host 是否命中社交平台黑名单。
func IsSocialHost(raw string) bool {
	host := Host(raw)
	if host == "" {
		return false
	}
	for _, s := range socialHosts {
		if strings.HasSuffix(host, s) || strings.Contains(host, s) {
			return true
		}
	}
	return false
}

// Platform 按 host 判断媒体平台：youtube/tiktok/x/linkedin/other。
func Platform(raw string) string {
	host := Host(raw)
	switch {
	case strings.Contains(host, "youtube.") || strings.Contains(host, "youtu."):
		return "youtube"
	case strings.Contains(host, "tiktok."):
		return "tiktok"
	case strings.HasSuffix(host, "x.com") || strings.Contains(host, "twitter."):
		return "x"
	case strings.Contains(host, "linkedin."):
		return "linkedin"
	default:
		return "other"
	}
}

// YouTubeID 从 YouTube URL 中解析视频 ID，解析不到时返回空串。
func YouTubeID(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	if strings.Contains(host, "youtu.be") {
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(parts) > 0 {
			return parts[0]
		}
		return ""
	}
	if vid := parsed.Query().Get("v"); vid != "" {
		return vid
	}
	if strings.HasPrefix(parsed.Path, "/shorts/") {
		parts := strings.Split(parsed.Path, "/")
		if len(parts) > 2 {
			return parts[2]
		}
	}
	return ""
}

// YouTubeThumbnail 根据视频 URL 推导缩略图地址，无法推导时返回空串。
func YouTubeThumbnail(raw string) string {
	vid := YouTubeID(raw)
	if vid == "" {
		return ""
	}
	return "https://img.youtube.com/vi/" + vid + "/hqdefault.jpg"
}

// AuthorHandle 取 URL path 的首段作为作者 handle 的启发式猜测。
func AuthorHandle(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}
