package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	APITokenEnv string `yaml:"api_token_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// WeaviateConfig contains connection details for a Weaviate vector index.
type WeaviateConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Class       string `yaml:"class"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorIndexConfig selects and configures the vector index implementation.
type VectorIndexConfig struct {
	Type     string          `yaml:"type"`
	Weaviate *WeaviateConfig `yaml:"weaviate,omitempty"`
}

// GenerationConfig configures the OpenAI-compatible completion backend.
type GenerationConfig struct {
	BaseURL      string `yaml:"base_url"`
	APIKeyEnv    string `yaml:"api_key_env"`
	DefaultModel string `yaml:"default_model"`
	TimeoutSecs  int    `yaml:"timeout_secs"`
}

// RetrievalConfig configures per-turn context retrieval.
type RetrievalConfig struct {
	MaxDistance float64 `yaml:"max_distance"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// ChunkerConfig configures how uploaded documents are split into passages.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// AppConfig is the root configuration for assistantd.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	VectorIndex VectorIndexConfig `yaml:"vector_index"`
	Generation  GenerationConfig  `yaml:"generation"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	// ChatbotsFile points at the YAML file holding the chatbot records.
	ChatbotsFile string `yaml:"chatbots_file"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Server:      ServerConfig{Host: "0.0.0.0", Port: 8080},
		VectorIndex: VectorIndexConfig{Type: "memory"},
		Chunker:     ChunkerConfig{Type: "whole"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.APITokenEnv == "" {
		cfg.Server.APITokenEnv = "ASSISTANT_API_TOKEN"
	}
	if cfg.Server.TimeoutSecs == 0 {
		cfg.Server.TimeoutSecs = 60
	}
	if cfg.VectorIndex.Type == "weaviate" && cfg.VectorIndex.Weaviate != nil {
		if cfg.VectorIndex.Weaviate.URL == "" {
			cfg.VectorIndex.Weaviate.URL = "http://localhost:8080"
		}
		if cfg.VectorIndex.Weaviate.APIKeyEnv == "" {
			cfg.VectorIndex.Weaviate.APIKeyEnv = "WEAVIATE_API_KEY"
		}
		if cfg.VectorIndex.Weaviate.Class == "" {
			cfg.VectorIndex.Weaviate.Class = "Document"
		}
		if cfg.VectorIndex.Weaviate.TimeoutSecs == 0 {
			cfg.VectorIndex.Weaviate.TimeoutSecs = 15
		}
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Generation.APIKeyEnv == "" {
		cfg.Generation.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Generation.DefaultModel == "" {
		cfg.Generation.DefaultModel = "gpt-3.5-turbo"
	}
	if cfg.Generation.TimeoutSecs == 0 {
		cfg.Generation.TimeoutSecs = 60
	}
	if cfg.Retrieval.MaxDistance == 0 {
		cfg.Retrieval.MaxDistance = 0.7
	}
	if cfg.Retrieval.TimeoutSecs == 0 {
		cfg.Retrieval.TimeoutSecs = 5
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.ChatbotsFile == "" {
		cfg.ChatbotsFile = "chatbots.yaml"
	}
}
