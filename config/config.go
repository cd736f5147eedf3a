package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	Database struct {
		ConnectionString string `yaml:"connection_string"`
	} `yaml:"database"`
	Ollama struct {
		BaseURL      string `yaml:"base_url"`
		DefaultModel string `yaml:"default_model"`
	} `yaml:"ollama"`
	Embeddings struct {
		TextModel string `yaml:"text_model"`
	} `yaml:"embeddings"`
	Whisper struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"whisper"`
	YTDLP struct {
		BinPath  string `yaml:"bin_path"`
		AudioDir string `yaml:"audio_dir"`
	} `yaml:"ytdlp"`
	Processing struct {
		ChunkSize     int `yaml:"chunk_size"`
		ChunkOverlap  int `yaml:"chunk_overlap"`
		TopK          int `yaml:"top_k"`
		ContextBudget int `yaml:"context_budget"`
	} `yaml:"processing"`
}

// Load loads configuration from ~/.tubesage/config.yaml, falling back
// to defaults when the file is absent. A .env file in the working
// directory and environment variables override file values for
// endpoints and credentials.
func Load() (*Config, error) {
	cfg := Default()

	configPath := filepath.Join(os.Getenv("HOME"), ".tubesage", "config.yaml")
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	// Best effort; a missing .env is not an error.
	_ = godotenv.Load()
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.ConnectionString = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.Ollama.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.Ollama.DefaultModel = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.Embeddings.TextModel = v
	}
	if v := os.Getenv("WHISPER_BASE_URL"); v != "" {
		c.Whisper.BaseURL = v
	}
	if v := os.Getenv("YTDLP_PATH"); v != "" {
		c.YTDLP.BinPath = v
	}
	if v := os.Getenv("TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Processing.TopK = n
		}
	}
}

// Save writes configuration to ~/.tubesage/config.yaml.
func (c *Config) Save() error {
	configDir := filepath.Join(os.Getenv("HOME"), ".tubesage")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0o644)
}

// Default returns default configuration.
func Default() *Config {
	cfg := &Config{}

	cfg.Database.ConnectionString = "" // empty disables persistence
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.DefaultModel = ""
	cfg.Embeddings.TextModel = "nomic-embed-text"
	cfg.Whisper.BaseURL = "http://localhost:8000"
	cfg.Whisper.Model = "whisper-1"
	cfg.YTDLP.BinPath = "yt-dlp"
	cfg.YTDLP.AudioDir = filepath.Join(os.TempDir(), "tubesage-audio")
	cfg.Processing.ChunkSize = 500
	cfg.Processing.ChunkOverlap = 50
	cfg.Processing.TopK = 5
	cfg.Processing.ContextBudget = 30000

	return cfg
}
