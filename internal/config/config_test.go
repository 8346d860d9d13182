package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default().ServerPort, cfg.ServerPort)
	assert.Equal(t, 0.5, cfg.Tuning.PartialCredit)
	assert.Equal(t, 0.8, cfg.Tuning.AdvancedThreshold)
	assert.Equal(t, 0.6, cfg.Tuning.IntermediateThreshold)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tutor.yaml")
	content := `
server_port: "9090"
llm_provider: ollama
tts_backoff: 2s
tuning:
  partial_credit: 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("TUTOR_TUNING_ADVANCED_THRESHOLD", "0.9")
	t.Setenv("GEMINI_API_KEY", "secret-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "ollama", cfg.LLMProvider)
	assert.Equal(t, 2*time.Second, cfg.TTSBackoff)
	assert.Equal(t, 0.25, cfg.Tuning.PartialCredit)
	assert.Equal(t, 0.9, cfg.Tuning.AdvancedThreshold)
	assert.Equal(t, 0.6, cfg.Tuning.IntermediateThreshold)
	assert.Equal(t, "secret-key", cfg.GeminiAPIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "threshold above one", mutate: func(c *Config) { c.Tuning.AdvancedThreshold = 1.5 }, wantErr: true},
		{name: "negative partial credit", mutate: func(c *Config) { c.Tuning.PartialCredit = -0.1 }, wantErr: true},
		{name: "bands swapped", mutate: func(c *Config) { c.Tuning.IntermediateThreshold = 0.9 }, wantErr: true},
		{name: "unknown provider", mutate: func(c *Config) { c.LLMProvider = "gpt" }, wantErr: true},
		{name: "no retries", mutate: func(c *Config) { c.TTSMaxRetries = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
