package model

// EsChunk 是写入 Elasticsearch 的向量化文本块。
// ChunkID 同时作为 ES 文档 ID，保证重复写入幂等。
type EsChunk struct {
	ChunkID     string    `json:"chunk_id"`
	ToolID      string    `json:"tool_id"`
	DocumentID  uint      `json:"document_id"`
	ChunkIndex  int       `json:"chunk_index"`
	TextContent string    `json:"text_content"`
	Vector      []float32 `json:"vector"`
}
