package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	LLM        LLMConfig        `yaml:"llm"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Storage    StorageConfig    `yaml:"storage"`
	DataDir    string           `yaml:"data_dir,omitempty"`
}

// RetrievalConfig addresses the two competing retrieval backends.
type RetrievalConfig struct {
	OriginalURL string        `yaml:"original_url"`
	RerankedURL string        `yaml:"reranked_url"`
	TopK        int           `yaml:"top_k,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Retries     int           `yaml:"retries,omitempty"`
}

type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// EmbeddingConfig selects the sentence-embedding backend used for
// cosine-similarity metrics. The model must be multilingual; question
// sets mix English and German.
type EmbeddingConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

type EvaluationConfig struct {
	PrecisionK   int           `yaml:"precision_k,omitempty"`
	Concurrency  int           `yaml:"concurrency,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	OutputFormat string        `yaml:"output_format,omitempty"`
}

type StorageConfig struct {
	Type string `yaml:"type,omitempty"` // "sqlite" or "memory"
	Path string `yaml:"path,omitempty"` // SQLite file path
}

func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Providers == nil {
		cfg.LLM.Providers = make(map[string]ProviderConfig)
	}
	if strings.TrimSpace(cfg.LLM.DefaultProvider) == "" {
		cfg.LLM.DefaultProvider = "claude"
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 10
	}
	if cfg.Retrieval.Timeout <= 0 {
		cfg.Retrieval.Timeout = 30 * time.Second
	}
	if cfg.Retrieval.Retries < 0 {
		cfg.Retrieval.Retries = 0
	}
	if cfg.Evaluation.PrecisionK <= 0 {
		cfg.Evaluation.PrecisionK = 5
	}
	if strings.TrimSpace(cfg.Embedding.Model) == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "data"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		p := cfg.LLM.Providers["claude"]
		p.APIKey = v
		cfg.LLM.Providers["claude"] = p
	} else if v := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); v != "" {
		p := cfg.LLM.Providers["claude"]
		p.APIKey = v
		cfg.LLM.Providers["claude"] = p
	}

	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		p := cfg.LLM.Providers["openai"]
		p.APIKey = v
		cfg.LLM.Providers["openai"] = p

		if strings.TrimSpace(cfg.Embedding.APIKey) == "" {
			cfg.Embedding.APIKey = v
		}
	}

	if v := strings.TrimSpace(os.Getenv("RAG_EVAL_ORIGINAL_URL")); v != "" {
		cfg.Retrieval.OriginalURL = v
	}
	if v := strings.TrimSpace(os.Getenv("RAG_EVAL_RERANKED_URL")); v != "" {
		cfg.Retrieval.RerankedURL = v
	}
}
