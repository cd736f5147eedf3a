package rag

import "time"

// SourceKind distinguishes what a source's text was extracted from.
type SourceKind string

const (
	SourceKindVideo    SourceKind = "video"
	SourceKindDocument SourceKind = "document"
)

// Source is a video or document whose text has been chunked and
// embedded. A source is queryable only once ingestion has completed;
// a partially ingested source is treated as absent.
type Source struct {
	ID               string
	Kind             SourceKind
	Title            string
	TranscriptSource string // "captions" or "transcription", videos only
	EmbeddingModel   string
	ChunkCount       int
	CreatedAt        time.Time
}

// Chunk is the unit of retrieval: a bounded contiguous segment of a
// source's text. Offsets refer to the normalized source text, so
// EndOffset-StartOffset == len(Text). Chunks are immutable after
// ingestion and removed when their source is deleted.
type Chunk struct {
	ID            string
	SourceID      string
	SequenceIndex int
	Text          string
	StartOffset   int
	EndOffset     int
}

// RetrievalResult is one retrieved chunk with its similarity score,
// higher meaning closer. Produced per query and never persisted here.
type RetrievalResult struct {
	ChunkID  string
	SourceID string
	Text     string
	Score    float64
	Rank     int
}
