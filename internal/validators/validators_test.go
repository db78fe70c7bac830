package validators

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPlausibleProductName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"正常产品名", "Notion", true},
		{"带空格和符号的产品名", "Visual Studio Code", true},
		{"空串", "", false},
		{"单字符", "N", false},
		{"包含 URL", "visit https://example.com now", false},
		{"包含 www", "www.example.com", false},
		{"模型拒答文案", "I'm sorry, I can't help with that", false},
		{"纯符号无字母", "!!! ### $$$", false},
		{"词数过多的长段落", strings.Repeat("word ", 20), false},
		{"超长字符串", strings.Repeat("a", 100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPlausibleProductName(tt.input))
		})
	}
}

func TestFallbackNameFromText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"取首行非空文本", "\n\n  Notion\nYour connected workspace", "Notion"},
		{"移除行内 URL", "Check https://example.com now", "Check now"},
		{"压缩多余空白", "  Figma    Design  ", "Figma Design"},
		{"超过六个词截断", "one two three four five six seven eight", "one two three four five six"},
		{"空输入", "", ""},
		{"全空白输入", "  \n  \n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackNameFromText(tt.input))
		})
	}
}
