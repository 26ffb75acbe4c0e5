// ABOUTME: Chunk represents an indexed unit of book content
// ABOUTME: Produced by the chunker, embedded once, stored in the vector index
package models

// ChunkMetadata is attached to every vector index entry
type ChunkMetadata struct {
	Title        string `json:"title"`
	HeadingLevel int    `json:"heading_level"`
	SourcePath   string `json:"source_path"`
	ChunkIndex   int    `json:"chunk_index"`
	TotalChunks  int    `json:"total_chunks"`
	Module       string `json:"module"`
	Difficulty   string `json:"difficulty"`
	Language     string `json:"language"`
}

// Chunk is one retrievable unit of content. SectionID is stable across
// re-runs for unchanged headings; ChunkID is "{section_id}-{chunk_index}".
type Chunk struct {
	SectionID string        `json:"section_id"`
	ChunkID   string        `json:"chunk_id"`
	Content   string        `json:"content"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// SearchResult is a chunk returned from vector search with its similarity score
type SearchResult struct {
	ID        string
	Score     float64
	SectionID string
	Content   string
	Metadata  ChunkMetadata
}

// Source is a ranked citation returned alongside a generated answer
type Source struct {
	SectionID      string  `json:"section_id"`
	Title          string  `json:"title"`
	RelevanceScore float64 `json:"relevance_score"`
	Excerpt        string  `json:"excerpt"`
}
