package document

import "time"

// Chunk 文档切片
// 创建后不可变；向量化失败的切片 Embedding 为空（隔离失败，不致命）
type Chunk struct {
	Text        string    `json:"text"`
	Embedding   []float32 `json:"embedding,omitempty"`
	SourceLabel string    `json:"source_label,omitempty"`
}

// File 已上传文件记录
// 文本提取由上传管线完成，这里只保存提取后的文本与切片
type File struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	ExtractedText string    `json:"extracted_text"`
	Chunks        []Chunk   `json:"chunks"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasEmbedding 检查切片是否带有效向量
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}
