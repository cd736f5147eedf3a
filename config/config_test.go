package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.TextModel)
	assert.Equal(t, 500, cfg.Processing.ChunkSize)
	assert.Equal(t, 50, cfg.Processing.ChunkOverlap)
	assert.Equal(t, 5, cfg.Processing.TopK)
	assert.Empty(t, cfg.Database.ConnectionString)
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".tubesage")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := []byte("ollama:\n  base_url: http://remote:11434\nprocessing:\n  top_k: 7\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://remote:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, 7, cfg.Processing.TopK)
	// Untouched fields keep defaults.
	assert.Equal(t, "nomic-embed-text", cfg.Embeddings.TextModel)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OLLAMA_BASE_URL", "http://env-wins:11434")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("TOP_K", "9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://env-wins:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "postgres://env/db", cfg.Database.ConnectionString)
	assert.Equal(t, 9, cfg.Processing.TopK)
}

func TestEnvBadTopKIgnored(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TOP_K", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Processing.TopK)
}
