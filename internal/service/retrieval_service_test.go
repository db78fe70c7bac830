package service

import (
	"fmt"
	"strings"
	"testing"

	"later-go/internal/model"
	"later-go/pkg/es"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDocRepo struct{}

func (stubDocRepo) Create(*model.Document) error        { return nil }
func (stubDocRepo) BatchCreate([]*model.Document) error { return nil }
func (stubDocRepo) FindRecentByToolID(string, int) ([]*model.Document, error) {
	return nil, nil
}
func (stubDocRepo) FindByIDs([]uint) ([]*model.Document, error)          { return nil, nil }
func (stubDocRepo) DeleteByToolAndSource(string, string) ([]uint, error) { return nil, nil }

func TestClampTopK(t *testing.T) {
	tests := []struct {
		name          string
		topK          int
		preferCompact bool
		want          int
	}{
		{"未指定取默认值", 0, false, defaultTopK},
		{"未指定且偏好简洁", 0, true, defaultTopKCompact},
		{"负数按未指定处理", -3, true, defaultTopKCompact},
		{"范围内原样返回", 5, false, 5},
		{"超上限钳位", 50, false, maxTopK},
		{"上限值本身合法", maxTopK, true, maxTopK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampTopK(tt.topK, tt.preferCompact))
		})
	}
}

func TestBuildCitationsClamps(t *testing.T) {
	newPool := func(size int) []es.ScoredChunk {
		pool := make([]es.ScoredChunk, size)
		for i := range pool {
			pool[i] = es.ScoredChunk{Chunk: model.EsChunk{
				DocumentID:  uint(i + 1),
				TextContent: fmt.Sprintf("chunk %d", i+1),
			}}
		}
		return pool
	}
	svc := &retrievalService{docRepo: stubDocRepo{}, esIndex: "test_chunks"}

	tests := []struct {
		name     string
		poolSize int
		k        int
		want     int
	}{
		{"K 再小也至少给 2 条", 10, 1, minCitations},
		{"K 超上限钳位到 8 条", 10, 12, maxCitations},
		{"候选不够时以候选数为准", 1, 4, 1},
		{"范围内取 K 条", 10, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			citations := svc.buildCitations(newPool(tt.poolSize), tt.k)
			require.Len(t, citations, tt.want)
			// 编号从 1 开始，按候选池相似度顺序
			for i, c := range citations {
				assert.Equal(t, i+1, c.Index)
				assert.Equal(t, uint(i+1), c.DocumentID)
			}
		})
	}
}

func TestClipSnippet(t *testing.T) {
	assert.Equal(t, "short", clipSnippet("short", 200))

	long := strings.Repeat("内", 300)
	clipped := clipSnippet(long, 200)
	assert.Equal(t, 201, len([]rune(clipped)))
	assert.True(t, strings.HasSuffix(clipped, "…"))
}
