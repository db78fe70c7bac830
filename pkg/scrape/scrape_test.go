package scrape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTextCollapsesInternalWhitespace(t *testing.T) {
	raw := "  Acme   helps\tteams \t ship faster  \nok\n   a  \n"
	got := cleanText(raw)
	assert.Equal(t, "Acme helps teams ship faster", got)
}

func TestCleanTextDropsShortLines(t *testing.T) {
	raw := "一条正常的句子\nab\n--\n另一条正常的句子"
	got := cleanText(raw)
	assert.Equal(t, "一条正常的句子\n另一条正常的句子", got)
}

func TestCleanTextCapsLength(t *testing.T) {
	raw := strings.Repeat("a", maxTextLength+10_000)
	got := cleanText(raw)
	assert.Equal(t, maxTextLength, len([]rune(got)))
}
