package domain

// ScholarlyConnections are the references extracted from a chunk of text.
type ScholarlyConnections struct {
	Citations     []string `json:"citations"`
	Theories      []string `json:"theories"`
	Methodologies []string `json:"methodologies"`
	KeyConcepts   []string `json:"key_concepts"`
}

// DocumentChunk is one processed, embedded slice of an uploaded document.
type DocumentChunk struct {
	ID                  ChunkID              `json:"id"`
	StudentID           StudentID            `json:"student_id"`
	Title               string               `json:"title"`
	Content             string               `json:"content"`
	ChunkIndex          int                  `json:"chunk_index"`
	DocumentType        DocumentType         `json:"document_type"`
	AcademicLevel       AcademicLevel        `json:"academic_level"`
	ExcellenceTier      ExcellenceTier       `json:"excellence_tier"`
	Embedding           []float32            `json:"-"`
	ExcellenceEmbedding []float32            `json:"-"`
	Connections         ScholarlyConnections `json:"scholarly_connections"`
	ComplexityScore     float64              `json:"complexity_score"`
	CitationCount       int                  `json:"citation_count"`
	ImpactFactor        float64              `json:"impact_factor"`
	CreatedAt           Timestamp            `json:"created_at"`
}

// DocumentSummary is one row of the document listing: all chunks sharing a title.
type DocumentSummary struct {
	Title          string         `json:"title"`
	DocumentType   DocumentType   `json:"document_type"`
	AcademicLevel  AcademicLevel  `json:"academic_level"`
	ExcellenceTier ExcellenceTier `json:"excellence_tier"`
	Chunks         int            `json:"chunks"`
	UploadedAt     Timestamp      `json:"uploaded_at"`
}
