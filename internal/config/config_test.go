package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8000},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Provider: ProviderConfig{Backend: "googleai", APIKey: "test-key"},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_BadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d: expected error", port)
		}
	}
}

func TestValidate_NoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_BadBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.Backend = "anthropic"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	expected := `provider.backend must be "googleai" or "openai", got "anthropic"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if cfg.Provider.ChatModel != "gemini-2.0-flash" {
		t.Errorf("chat model default = %q", cfg.Provider.ChatModel)
	}
	if cfg.Provider.EmbeddingModel != "embedding-001" {
		t.Errorf("embedding model default = %q", cfg.Provider.EmbeddingModel)
	}
	if cfg.Provider.Dimensions != 768 {
		t.Errorf("dimensions default = %d, want 768", cfg.Provider.Dimensions)
	}
	if cfg.Retrieval.Limit != 3 {
		t.Errorf("retrieval limit default = %d, want 3", cfg.Retrieval.Limit)
	}
	if cfg.Provider.CacheTTLSec != 7*24*3600 {
		t.Errorf("cache ttl default = %d, want one week", cfg.Provider.CacheTTLSec)
	}
}

func TestApplyDefaults_CacheTTLDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.CacheTTLSec = -1
	cfg.ApplyDefaults()

	if cfg.Provider.CacheTTLSec != -1 {
		t.Errorf("cache ttl = %d, want -1 kept as-is", cfg.Provider.CacheTTLSec)
	}
}

func TestApplyDefaults_OpenAIModels(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.Backend = "openai"
	cfg.ApplyDefaults()

	if cfg.Provider.ChatModel != "gpt-4o-mini" {
		t.Errorf("chat model default = %q", cfg.Provider.ChatModel)
	}
	if cfg.Provider.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("embedding model default = %q", cfg.Provider.EmbeddingModel)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("MAYA_TEST_KEY", "secret")
	defer os.Unsetenv("MAYA_TEST_KEY")

	in := []byte("api_key: ${MAYA_TEST_KEY}\nmodel: ${MAYA_TEST_MODEL:-gemini-2.0-flash}")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nmodel: gemini-2.0-flash"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
