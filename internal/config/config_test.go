package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("unexpected default port: %d", cfg.Server.Port)
	}
	if cfg.VectorIndex.Type != "memory" {
		t.Errorf("unexpected default index: %q", cfg.VectorIndex.Type)
	}
	if cfg.Retrieval.MaxDistance != 0.7 {
		t.Errorf("unexpected default distance cutoff: %v", cfg.Retrieval.MaxDistance)
	}
	if cfg.Generation.DefaultModel != "gpt-3.5-turbo" {
		t.Errorf("unexpected default model: %q", cfg.Generation.DefaultModel)
	}
}

func TestLoadFillsPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `server:
  port: 9090
vector_index:
  type: weaviate
  weaviate:
    url: http://weaviate:8080
retrieval:
  max_distance: 0.5
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("explicit port lost: %d", cfg.Server.Port)
	}
	if cfg.Retrieval.MaxDistance != 0.5 {
		t.Errorf("explicit cutoff lost: %v", cfg.Retrieval.MaxDistance)
	}
	if cfg.VectorIndex.Weaviate == nil || cfg.VectorIndex.Weaviate.Class != "Document" {
		t.Errorf("weaviate defaults not applied: %+v", cfg.VectorIndex.Weaviate)
	}
	if cfg.Server.APITokenEnv != "ASSISTANT_API_TOKEN" {
		t.Errorf("token env not defaulted: %q", cfg.Server.APITokenEnv)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	cfg.Server.Port = 9999
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.Server.Port != 9999 {
		t.Errorf("port did not round-trip: %d", got.Server.Port)
	}
}
