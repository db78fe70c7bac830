package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapTranscript(t *testing.T) {
	short := "a short transcript"
	assert.Equal(t, short, capTranscript(short))

	long := strings.Repeat("字", maxTranscriptLength+5_000)
	got := capTranscript(long)
	assert.Equal(t, maxTranscriptLength, len([]rune(got)))
}
