package config

import (
	"testing"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ARTSEARCH_TEST_PASSWORD", "s3cret")

	in := []byte("password: ${ARTSEARCH_TEST_PASSWORD}\nhost: ${ARTSEARCH_TEST_HOST:-localhost:6379}\n")
	out := string(expandEnvVars(in))

	want := "password: s3cret\nhost: localhost:6379\n"
	if out != want {
		t.Errorf("expandEnvVars:\n got %q\nwant %q", out, want)
	}
}

func TestExpandEnvVars_EmptyWithoutDefault(t *testing.T) {
	out := string(expandEnvVars([]byte("key: ${ARTSEARCH_TEST_UNSET}")))
	if out != "key: " {
		t.Errorf("unset var without default must expand empty, got %q", out)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Search.BranchTimeoutSec != 5 {
		t.Errorf("expected branch timeout default 5, got %d", cfg.Search.BranchTimeoutSec)
	}
	if cfg.Search.CandidateMultiplier != 4 {
		t.Errorf("expected candidate multiplier default 4, got %d", cfg.Search.CandidateMultiplier)
	}
	if cfg.Search.MetadataWeight != 0.3 {
		t.Errorf("expected metadata weight default 0.3, got %v", cfg.Search.MetadataWeight)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("expected memory cache default, got %q", cfg.Cache.Backend)
	}
	if len(cfg.Embedding.Models) != 2 {
		t.Errorf("expected default model set, got %v", cfg.Embedding.Models)
	}
}

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config must pass: %v", err)
	}

	bad := validConfig()
	bad.HTTP.Port = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing port")
	}

	bad = validConfig()
	bad.Database.Addrs = nil
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing database addrs")
	}

	bad = validConfig()
	bad.Embedding.Models = []ModelConfig{{Key: "jina_v3", Dim: 768, Modality: "audio", Provider: "modal"}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for invalid modality")
	}

	bad = validConfig()
	bad.Embedding.Models = []ModelConfig{{Key: "voyage_3", Dim: 1024, Modality: "text", Provider: "voyage"}}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unconfigured provider")
	}

	bad = validConfig()
	bad.Cache.Backend = "memcached"
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown cache backend")
	}
}

func TestValidate_ProviderBackedModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Providers = map[string]ProviderConfig{
		"voyage": {APIKey: "k", Model: "voyage-3"},
	}
	cfg.Embedding.Models = append(cfg.Embedding.Models,
		ModelConfig{Key: "voyage_3", Dim: 1024, Modality: "text", Provider: "voyage"})

	if err := cfg.Validate(); err != nil {
		t.Errorf("provider-backed model must validate: %v", err)
	}
}
