package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tubesage/cli/config"
	"github.com/tubesage/cli/internal/documents"
	"github.com/tubesage/cli/internal/embeddings"
	"github.com/tubesage/cli/internal/generate"
	"github.com/tubesage/cli/internal/ollama"
	"github.com/tubesage/cli/internal/rag"
	"github.com/tubesage/cli/internal/store"
	"github.com/tubesage/cli/internal/transcript"
	"github.com/tubesage/cli/internal/tui"
)

func main() {
	var (
		ingestFlag = flag.String("ingest", "", "Ingest a document path or YouTube URL and exit")
		askFlag    = flag.String("ask", "", "Ask a one-shot question (requires -source)")
		sumFlag    = flag.String("summarize", "", "Summarize a source by ID and exit")
		sourceFlag = flag.String("source", "", "Source ID to answer against")
		modelFlag  = flag.String("model", "", "Generation model (overrides config)")
		debugFlag  = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debugFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pipeline, cleanup, err := buildPipeline(ctx, cfg, *modelFlag, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	switch {
	case *ingestFlag != "":
		src, err := pipeline.Ingest(ctx, *ingestFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error ingesting %s: %v\n", *ingestFlag, err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %s (%d chunks, source %s)\n", src.Title, src.ChunkCount, src.ID)

	case *sumFlag != "":
		summary, err := pipeline.Summarize(ctx, *sumFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(summary)

	case *askFlag != "":
		if *sourceFlag == "" {
			fmt.Fprintln(os.Stderr, "-ask requires -source <id>")
			os.Exit(1)
		}
		answer, results, err := pipeline.Answer(ctx, *sourceFlag, *askFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(answer)
		fmt.Println()
		for _, r := range results {
			fmt.Printf("[%d] (score %.3f) %s\n", r.Rank, r.Score, r.Text)
		}

	default:
		program := tea.NewProgram(tui.New(pipeline), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
			os.Exit(1)
		}
	}
}

// buildPipeline wires the engine from configuration. The returned
// cleanup closes the database pool when one was opened.
func buildPipeline(ctx context.Context, cfg *config.Config, modelOverride string, logger *slog.Logger) (*pipeline, func(), error) {
	cleanup := func() {}

	var engineStore rag.Store
	if cfg.Database.ConnectionString != "" {
		st, err := store.New(cfg.Database.ConnectionString)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to connect to database: %w", err)
		}
		engineStore = st
		cleanup = st.Close
	} else {
		logger.Info("no database configured, running memory-only session")
	}

	client := ollama.NewClient(cfg.Ollama.BaseURL)

	model := modelOverride
	if model == "" {
		model = cfg.Ollama.DefaultModel
	}
	resolved, err := ollama.NewModelSelector(client).Resolve(ctx, model)
	if err != nil {
		// Answers degrade to extractive excerpts when generation is
		// unreachable, so model selection failure is not fatal.
		logger.Warn("failed to select generation model", "error", err)
		resolved = model
	} else {
		logger.Info("using generation model", "model", resolved)
	}

	acquirer := transcript.NewAcquirer(
		transcript.NewYTDLPCaptions(cfg.YTDLP.BinPath, logger),
		transcript.NewYTDLPAudio(cfg.YTDLP.BinPath, cfg.YTDLP.AudioDir, logger),
		transcript.NewWhisperTranscriber(cfg.Whisper.BaseURL, cfg.Whisper.Model, logger),
		logger,
	)

	engine := rag.NewEngine(rag.EngineConfig{
		Embedder:      embeddings.NewTextEmbedder(cfg.Ollama.BaseURL, cfg.Embeddings.TextModel, logger),
		Backend:       generate.NewBackend(client, resolved, logger),
		Acquirer:      acquirer,
		Store:         engineStore,
		TopK:          cfg.Processing.TopK,
		ContextBudget: cfg.Processing.ContextBudget,
		Logger:        logger,
	})

	if err := engine.Rebuild(ctx); err != nil {
		logger.Warn("failed to rebuild index from store", "error", err)
	}

	return &pipeline{engine: engine}, cleanup, nil
}

// pipeline adapts the engine for the TUI and one-shot flags, routing
// an ingest target to the video or document path.
type pipeline struct {
	engine *rag.Engine
}

func (p *pipeline) Ingest(ctx context.Context, target string) (*rag.Source, error) {
	if transcript.IsVideoURL(target) {
		videoID, ok := transcript.ExtractVideoID(target)
		if !ok {
			return nil, fmt.Errorf("could not extract video ID from %s", target)
		}
		return p.engine.IngestVideo(ctx, videoID, target)
	}

	path := target
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	text, err := documents.Extract(path)
	if err != nil {
		return nil, err
	}
	hash, err := documents.ContentHash(path)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return p.engine.IngestText(ctx, hash, title, rag.SourceKindDocument, text)
}

func (p *pipeline) Answer(ctx context.Context, sourceID, question string) (string, []rag.RetrievalResult, error) {
	return p.engine.Answer(ctx, sourceID, question)
}

func (p *pipeline) Summarize(ctx context.Context, sourceID string) (string, error) {
	return p.engine.Summarize(ctx, sourceID)
}

func (p *pipeline) Sources(ctx context.Context) ([]rag.Source, error) {
	return p.engine.Sources(ctx)
}

func (p *pipeline) Delete(ctx context.Context, sourceID string) error {
	return p.engine.Delete(ctx, sourceID)
}
