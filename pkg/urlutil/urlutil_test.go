package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "scheme 和 host 小写",
			raw:  "HTTP://Example.COM/Path",
			want: "http://example.com/Path",
		},
		{
			name: "缺省 scheme 补 https",
			raw:  "//Example.com/a",
			want: "https://example.com/a",
		},
		{
			name: "根路径补斜杠",
			raw:  "https://example.com",
			want: "https://example.com/",
		},
		{
			name: "丢弃 fragment",
			raw:  "https://example.com/docs#install",
			want: "https://example.com/docs",
		},
		{
			name: "移除跟踪参数且保持剩余参数顺序",
			raw:  "https://example.com/p?b=2&utm_campaign=launch&a=1&fbclid=xyz",
			want: "https://example.com/p?b=2&a=1",
		},
		{
			name: "全部是跟踪参数时查询串清空",
			raw:  "https://example.com/p?utm_source=x&gclid=1",
			want: "https://example.com/p",
		},
		{
			name: "path 中的百分号转义原样保留",
			raw:  "https://example.com/a%20b",
			want: "https://example.com/a%20b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.raw))
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	for _, raw := range []string{
		"HTTPS://Example.com/Path?utm_source=x&q=1#top",
		"https://example.com/a%20b/c%2Fd?q=hello%20world",
	} {
		once := Canonicalize(raw)
		assert.Equal(t, once, Canonicalize(once))
	}
}

func TestClassifyLink(t *testing.T) {
	tests := []struct {
		raw  string
		want LinkKind
	}{
		{"https://www.youtube.com/watch?v=abc", KindVideoYouTube},
		{"https://youtu.be/abc", KindVideoYouTube},
		{"https://www.tiktok.com/@user/video/1", KindVideoTikTok},
		{"https://x.com/user/status/1", KindSocial},
		{"https://twitter.com/user", KindSocial},
		{"https://www.linkedin.com/posts/abc", KindSocial},
		{"https://open.spotify.com/episode/abc", KindPodcast},
		{"https://podcasts.apple.com/us/podcast/abc", KindPodcast},
		{"https://example.com/blog/post", KindArticle},
		{"", KindArticle},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLink(tt.raw))
		})
	}
}

func TestIsSocialHost(t *testing.T) {
	assert.True(t, IsSocialHost("https://x.com/someone"))
	assert.True(t, IsSocialHost("https://www.youtube.com/watch?v=abc"))
	assert.True(t, IsSocialHost("https://www.linkedin.com/company/acme"))
	assert.False(t, IsSocialHost("https://example.com"))
	assert.False(t, IsSocialHost("https://notion.so/product"))
}

func TestPlatform(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc", "youtube"},
		{"https://www.tiktok.com/@user", "tiktok"},
		{"https://x.com/user", "x"},
		{"https://twitter.com/user", "x"},
		{"https://www.linkedin.com/in/user", "linkedin"},
		{"https://example.com", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Platform(tt.raw))
		})
	}
}

func TestYouTubeID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/abc123", "abc123"},
		{"https://example.com/watch?v=abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, YouTubeID(tt.raw))
		})
	}
}

func TestYouTubeThumbnail(t *testing.T) {
	assert.Equal(t,
		"https://img.youtube.com/vi/abc123/hqdefault.jpg",
		YouTubeThumbnail("https://www.youtube.com/watch?v=abc123"))
	assert.Equal(t, "", YouTubeThumbnail("https://example.com"))
}

func TestAuthorHandle(t *testing.T) {
	assert.Equal(t, "jane", AuthorHandle("https://x.com/jane/status/1"))
	assert.Equal(t, "@creator", AuthorHandle("https://www.tiktok.com/@creator/video/1"))
	assert.Equal(t, "", AuthorHandle("https://example.com/"))
}
