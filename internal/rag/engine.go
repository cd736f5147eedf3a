package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tubesage/cli/internal/chunker"
	"github.com/tubesage/cli/internal/transcript"
	"github.com/tubesage/cli/internal/vectorindex"
)

const (
	defaultTopK = 5

	// defaultContextBudget caps the characters of retrieved text put in
	// front of the model. Lowest-ranked chunks are dropped first, never
	// cut mid-chunk.
	defaultContextBudget = 30000
)

// Embedder converts texts into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
	Model() string
}

// Answerer produces an answer for a prompt, degrading internally
// rather than failing (see generate.Backend).
type Answerer interface {
	Answer(ctx context.Context, prompt string, excerpts []string) string
}

// TranscriptAcquirer obtains a transcript for a video identifier.
type TranscriptAcquirer interface {
	Acquire(ctx context.Context, videoID string) (*transcript.Transcript, error)
}

// Store is the durable copy of sources and chunks, used to rebuild
// the in-memory index after a restart without re-embedding.
type Store interface {
	SaveSource(ctx context.Context, src *Source) error
	SaveChunks(ctx context.Context, sourceID string, chunks []Chunk, vectors [][]float32) error
	GetSource(ctx context.Context, id string) (*Source, error)
	ListSources(ctx context.Context) ([]Source, error)
	GetChunks(ctx context.Context, sourceID string) ([]Chunk, [][]float32, error)
	DeleteSource(ctx context.Context, id string) error
}

// Engine is the retrieval-augmented QA pipeline: it ingests sources
// (chunk, embed, index, persist) and answers questions against them
// (embed, search, assemble context, generate).
type Engine struct {
	embedder Embedder
	index    *vectorindex.Index
	backend  Answerer
	acquirer TranscriptAcquirer // nil disables video ingestion
	store    Store              // nil means memory-only session
	splitter *chunker.Splitter
	topK     int
	budget   int
	logger   *slog.Logger
}

// EngineConfig holds construction parameters for the Engine.
type EngineConfig struct {
	Embedder      Embedder
	Index         *vectorindex.Index
	Backend       Answerer
	Acquirer      TranscriptAcquirer
	Store         Store
	Splitter      *chunker.Splitter
	TopK          int
	ContextBudget int
	Logger        *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	splitter := cfg.Splitter
	if splitter == nil {
		splitter = chunker.New(500, 50)
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	budget := cfg.ContextBudget
	if budget <= 0 {
		budget = defaultContextBudget
	}
	index := cfg.Index
	if index == nil {
		index = vectorindex.New()
	}
	return &Engine{
		embedder: cfg.Embedder,
		index:    index,
		backend:  cfg.Backend,
		acquirer: cfg.Acquirer,
		store:    cfg.Store,
		splitter: splitter,
		topK:     topK,
		budget:   budget,
		logger:   logger,
	}
}

// IngestText chunks, embeds and indexes raw text as a source.
// Ingestion is all-or-nothing: any failure leaves no partial chunk
// set behind. Re-ingesting an already ingested source is a no-op that
// returns the existing record.
func (e *Engine) IngestText(ctx context.Context, sourceID, title string, kind SourceKind, text string) (*Source, error) {
	if existing, err := e.lookupSource(ctx, sourceID); err != nil {
		return nil, err
	} else if existing != nil {
		e.logger.Info("source already ingested, skipping", "source_id", sourceID)
		return existing, nil
	}

	chunks := e.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("source %s contains no text", sourceID)
	}

	vectors, err := e.embedder.Embed(ctx, chunker.Texts(chunks))
	if err != nil {
		e.logger.Error("embedding failed during ingestion", "source_id", sourceID, "error", err)
		return nil, &EmbeddingError{Model: e.embedder.Model(), Err: err}
	}
	if len(vectors) != len(chunks) {
		return nil, &EmbeddingError{
			Model: e.embedder.Model(),
			Err:   fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)),
		}
	}

	records := make([]Chunk, len(chunks))
	entries := make([]vectorindex.Entry, len(chunks))
	for i, c := range chunks {
		records[i] = Chunk{
			ID:            uuid.New().String(),
			SourceID:      sourceID,
			SequenceIndex: c.Index,
			Text:          c.Text,
			StartOffset:   c.StartOffset,
			EndOffset:     c.EndOffset,
		}
		entries[i] = vectorindex.Entry{
			ChunkID:  records[i].ID,
			SourceID: sourceID,
			Text:     c.Text,
			Vector:   vectors[i],
		}
	}

	src := &Source{
		ID:             sourceID,
		Kind:           kind,
		Title:          title,
		EmbeddingModel: e.embedder.Model(),
		ChunkCount:     len(chunks),
		CreatedAt:      time.Now().UTC(),
	}

	// Durable copy first: the store write is transactional, so a crash
	// here leaves either a complete source or nothing.
	if e.store != nil {
		if err := e.store.SaveSource(ctx, src); err != nil {
			return nil, fmt.Errorf("failed to save source %s: %w", sourceID, err)
		}
		if err := e.store.SaveChunks(ctx, sourceID, records, vectors); err != nil {
			_ = e.store.DeleteSource(ctx, sourceID)
			return nil, fmt.Errorf("failed to save chunks for %s: %w", sourceID, err)
		}
	}

	if err := e.index.Add(entries); err != nil {
		// Full compensation: a failed ingestion must leave the source
		// absent everywhere, not queryable from a partial index.
		e.index.Delete(sourceID)
		if e.store != nil {
			_ = e.store.DeleteSource(ctx, sourceID)
		}
		return nil, fmt.Errorf("failed to index source %s: %w", sourceID, err)
	}

	e.logger.Info("source ingested",
		"source_id", sourceID, "kind", kind, "chunks", len(chunks), "model", src.EmbeddingModel)
	return src, nil
}

// IngestVideo acquires a transcript for the video and ingests it.
// The resulting source records whether captions or transcription
// supplied the text.
func (e *Engine) IngestVideo(ctx context.Context, videoID, title string) (*Source, error) {
	if e.acquirer == nil {
		return nil, fmt.Errorf("video ingestion not configured")
	}
	// Transcript acquisition may download audio and transcribe it, so
	// check for an already ingested video before paying that cost.
	if existing, err := e.lookupSource(ctx, videoID); err != nil {
		return nil, err
	} else if existing != nil {
		e.logger.Info("video already ingested, skipping", "source_id", videoID)
		return existing, nil
	}
	tr, err := e.acquirer.Acquire(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("acquire transcript for %s: %w", videoID, err)
	}

	src, err := e.IngestText(ctx, videoID, title, SourceKindVideo, tr.Text)
	if err != nil {
		return nil, err
	}
	if src.TranscriptSource == "" {
		src.TranscriptSource = tr.Source
		if e.store != nil {
			if err := e.store.SaveSource(ctx, src); err != nil {
				e.logger.Warn("failed to record transcript source", "source_id", videoID, "error", err)
			}
		}
	}
	return src, nil
}

// Answer retrieves the chunks most relevant to the question within one
// source and asks the generative backend for a grounded answer. The
// returned results are the chunks actually placed in the prompt, in
// rank order, for provenance display.
func (e *Engine) Answer(ctx context.Context, sourceID, question string) (string, []RetrievalResult, error) {
	queryVec, err := e.embedder.EmbedQuery(ctx, question)
	if err != nil {
		e.logger.Error("query embedding failed", "source_id", sourceID, "error", err)
		return "", nil, &EmbeddingError{Model: e.embedder.Model(), Err: err}
	}

	hits := e.index.Search(queryVec, e.topK, sourceID)
	if len(hits) == 0 {
		e.logger.Info("no context for source", "source_id", sourceID)
		return "", nil, fmt.Errorf("source %s: %w", sourceID, ErrNoContext)
	}

	// Keep as many whole chunks as fit the character budget, best first.
	// The top chunk is always kept even if it alone exceeds the budget.
	used := hits[:1]
	total := len(hits[0].Text)
	for _, h := range hits[1:] {
		if total+len(h.Text) > e.budget {
			break
		}
		used = append(used, h)
		total += len(h.Text)
	}
	if len(used) < len(hits) {
		e.logger.Debug("context truncated to budget",
			"source_id", sourceID, "kept", len(used), "retrieved", len(hits))
	}

	excerpts := make([]string, len(used))
	results := make([]RetrievalResult, len(used))
	for i, h := range used {
		excerpts[i] = h.Text
		results[i] = RetrievalResult{
			ChunkID:  h.ChunkID,
			SourceID: h.SourceID,
			Text:     h.Text,
			Score:    h.Score,
			Rank:     i + 1,
		}
	}

	prompt := BuildPrompt(excerpts, question)
	answer := e.backend.Answer(ctx, prompt, excerpts)
	return answer, results, nil
}

// Summarize asks the generative backend for a summary of a whole
// source. The source's chunks are fed in sequence order (not by
// relevance, there is no query) up to the context budget; generation
// failures degrade to the excerpts themselves, as with Answer.
func (e *Engine) Summarize(ctx context.Context, sourceID string) (string, error) {
	src, err := e.lookupSource(ctx, sourceID)
	if err != nil {
		return "", err
	}

	var texts []string
	if e.store != nil {
		chunks, _, err := e.store.GetChunks(ctx, sourceID)
		if err != nil {
			return "", fmt.Errorf("failed to load chunks for %s: %w", sourceID, err)
		}
		texts = make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
	} else {
		texts = e.index.Texts(sourceID)
	}
	if len(texts) == 0 {
		e.logger.Info("no context for source", "source_id", sourceID)
		return "", fmt.Errorf("source %s: %w", sourceID, ErrNoContext)
	}

	// Keep whole leading chunks within the budget; a summary of the
	// opening beats a truncated mid-chunk tail.
	used := texts[:1]
	total := len(texts[0])
	for _, t := range texts[1:] {
		if total+len(t) > e.budget {
			break
		}
		used = append(used, t)
		total += len(t)
	}

	title := sourceID
	kind := SourceKindDocument
	if src != nil {
		if src.Title != "" {
			title = src.Title
		}
		if src.Kind != "" {
			kind = src.Kind
		}
	}

	prompt := BuildSummaryPrompt(title, kind, used)
	summary := e.backend.Answer(ctx, prompt, used)
	e.logger.Info("source summarized", "source_id", sourceID, "chunks_used", len(used))
	return summary, nil
}

// Delete removes a source from the index and the durable store.
func (e *Engine) Delete(ctx context.Context, sourceID string) error {
	e.index.Delete(sourceID)
	if e.store != nil {
		if err := e.store.DeleteSource(ctx, sourceID); err != nil {
			return fmt.Errorf("failed to delete source %s: %w", sourceID, err)
		}
	}
	e.logger.Info("source deleted", "source_id", sourceID)
	return nil
}

// Sources lists ingested sources, preferring the durable store when
// one is configured.
func (e *Engine) Sources(ctx context.Context) ([]Source, error) {
	if e.store != nil {
		return e.store.ListSources(ctx)
	}
	ids := e.index.Sources()
	out := make([]Source, 0, len(ids))
	for _, id := range ids {
		out = append(out, Source{ID: id, ChunkCount: e.index.Count(id)})
	}
	return out, nil
}

// Rebuild reloads every stored source's chunks and vectors into the
// in-memory index. Called once on startup; sources whose chunks fail
// to load are skipped and logged rather than aborting the rest.
func (e *Engine) Rebuild(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	sources, err := e.store.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	for _, src := range sources {
		chunks, vectors, err := e.store.GetChunks(ctx, src.ID)
		if err != nil {
			e.logger.Warn("failed to load chunks, source skipped", "source_id", src.ID, "error", err)
			continue
		}
		entries := make([]vectorindex.Entry, len(chunks))
		for i, c := range chunks {
			entries[i] = vectorindex.Entry{
				ChunkID:  c.ID,
				SourceID: c.SourceID,
				Text:     c.Text,
				Vector:   vectors[i],
			}
		}
		if err := e.index.Add(entries); err != nil {
			e.logger.Warn("failed to index stored source", "source_id", src.ID, "error", err)
			continue
		}
	}
	e.logger.Info("index rebuilt from store", "sources", len(sources))
	return nil
}

func (e *Engine) lookupSource(ctx context.Context, sourceID string) (*Source, error) {
	if e.store != nil {
		src, err := e.store.GetSource(ctx, sourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to check source %s: %w", sourceID, err)
		}
		if src != nil {
			return src, nil
		}
		return nil, nil
	}
	if n := e.index.Count(sourceID); n > 0 {
		return &Source{ID: sourceID, ChunkCount: n}, nil
	}
	return nil, nil
}
