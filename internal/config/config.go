package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config enthält alle Konfigurationseinstellungen
type Config struct {
	// Server-Einstellungen
	ServerPort string `mapstructure:"server_port" json:"server_port"`
	LogMode    string `mapstructure:"log_mode" json:"log_mode"`

	// Pfade
	UploadPath   string `mapstructure:"upload_path" json:"upload_path"`
	AudioPath    string `mapstructure:"audio_path" json:"audio_path"`
	DatabasePath string `mapstructure:"database_path" json:"database_path"`

	// LLM-Einstellungen
	LLMProvider  string `mapstructure:"llm_provider" json:"llm_provider"`
	GeminiAPIKey string `mapstructure:"gemini_api_key" json:"-"`
	GeminiModel  string `mapstructure:"gemini_model" json:"gemini_model"`
	OllamaURL    string `mapstructure:"ollama_url" json:"ollama_url"`
	DefaultModel string `mapstructure:"default_model" json:"default_model"`

	// Cache (leer = In-Memory)
	RedisAddr string        `mapstructure:"redis_addr" json:"redis_addr"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" json:"cache_ttl"`
	// Höchstzahl Einträge im Speicher-Cache
	MemoryCacheSize int `mapstructure:"memory_cache_size" json:"memory_cache_size"`

	// Sprachausgabe
	TTSBaseURL    string        `mapstructure:"tts_base_url" json:"tts_base_url"`
	TTSTimeout    time.Duration `mapstructure:"tts_timeout" json:"tts_timeout"`
	TTSMaxRetries int           `mapstructure:"tts_max_retries" json:"tts_max_retries"`
	TTSBackoff    time.Duration `mapstructure:"tts_backoff" json:"tts_backoff"`

	// Prompt-Budgets
	SummaryCharBudget int `mapstructure:"summary_char_budget" json:"summary_char_budget"`
	ContextCharBudget int `mapstructure:"context_char_budget" json:"context_char_budget"`

	// Sampling
	AnswerTemperature     float64 `mapstructure:"answer_temperature" json:"answer_temperature"`
	AnswerMaxTokens       int     `mapstructure:"answer_max_tokens" json:"answer_max_tokens"`
	HintTemperature       float64 `mapstructure:"hint_temperature" json:"hint_temperature"`
	HintMaxTokens         int     `mapstructure:"hint_max_tokens" json:"hint_max_tokens"`
	EvaluationTemperature float64 `mapstructure:"evaluation_temperature" json:"evaluation_temperature"`
	EvaluationMaxTokens   int     `mapstructure:"evaluation_max_tokens" json:"evaluation_max_tokens"`

	// Lern-Einstellungen
	Tuning Tuning `mapstructure:"tuning" json:"tuning"`
}

// Tuning: Teilpunkte und Schwellen der adaptiven Schwierigkeit
type Tuning struct {
	PartialCredit         float64 `mapstructure:"partial_credit" json:"partial_credit"`
	AdvancedThreshold     float64 `mapstructure:"advanced_threshold" json:"advanced_threshold"`
	IntermediateThreshold float64 `mapstructure:"intermediate_threshold" json:"intermediate_threshold"`
}

// DefaultTuning: 0.5 Teilpunkte, Schwellen 0.8 und 0.6
func DefaultTuning() Tuning {
	return Tuning{
		PartialCredit:         0.5,
		AdvancedThreshold:     0.8,
		IntermediateThreshold: 0.6,
	}
}

// Default gibt die Standardkonfiguration zurück
func Default() *Config {
	return &Config{
		ServerPort:            "5000",
		LogMode:               "dev",
		UploadPath:            "uploads",
		AudioPath:             filepath.Join("static", "audio"),
		DatabasePath:          "tutionbuddy.db",
		LLMProvider:           "gemini",
		GeminiModel:           "gemini-2.5-flash",
		OllamaURL:             "http://localhost:11434",
		DefaultModel:          "qwen2.5:7b",
		CacheTTL:              24 * time.Hour,
		MemoryCacheSize:       1000,
		TTSBaseURL:            "https://translate.google.%s/translate_tts",
		TTSTimeout:            20 * time.Second,
		TTSMaxRetries:         3,
		TTSBackoff:            500 * time.Millisecond,
		SummaryCharBudget:     8000,
		ContextCharBudget:     30000,
		AnswerTemperature:     0,
		AnswerMaxTokens:       4000,
		HintTemperature:       0.2,
		HintMaxTokens:         1000,
		EvaluationTemperature: 0.2,
		EvaluationMaxTokens:   800,
		Tuning:                DefaultTuning(),
	}
}

// Load lädt .env, Konfigurationsdatei (falls vorhanden) und TUTOR_* Umgebungsvariablen
func Load(path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.Wrap(err, "config.godotenv")
		}
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix("TUTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("gemini_api_key", "TUTOR_GEMINI_API_KEY", "GEMINI_API_KEY")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, errors.Wrapf(err, "config.read(%s)", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "config.stat(%s)", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "config.unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate prüft Schwellen und Pflichtwerte
func (c *Config) Validate() error {
	t := c.Tuning
	for name, val := range map[string]float64{
		"tuning.partial_credit":         t.PartialCredit,
		"tuning.advanced_threshold":     t.AdvancedThreshold,
		"tuning.intermediate_threshold": t.IntermediateThreshold,
	} {
		if val < 0 || val > 1 {
			return fmt.Errorf("%s muss zwischen 0 und 1 liegen (ist %v)", name, val)
		}
	}
	if t.IntermediateThreshold > t.AdvancedThreshold {
		return fmt.Errorf("tuning.intermediate_threshold (%v) größer als tuning.advanced_threshold (%v)",
			t.IntermediateThreshold, t.AdvancedThreshold)
	}
	switch c.LLMProvider {
	case "gemini", "ollama":
	default:
		return fmt.Errorf("unbekannter llm_provider %q", c.LLMProvider)
	}
	if c.TTSMaxRetries < 1 {
		return fmt.Errorf("tts_max_retries muss mindestens 1 sein")
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server_port", d.ServerPort)
	v.SetDefault("log_mode", d.LogMode)
	v.SetDefault("upload_path", d.UploadPath)
	v.SetDefault("audio_path", d.AudioPath)
	v.SetDefault("database_path", d.DatabasePath)
	v.SetDefault("llm_provider", d.LLMProvider)
	v.SetDefault("gemini_api_key", d.GeminiAPIKey)
	v.SetDefault("gemini_model", d.GeminiModel)
	v.SetDefault("ollama_url", d.OllamaURL)
	v.SetDefault("default_model", d.DefaultModel)
	v.SetDefault("redis_addr", d.RedisAddr)
	v.SetDefault("cache_ttl", d.CacheTTL)
	v.SetDefault("memory_cache_size", d.MemoryCacheSize)
	v.SetDefault("tts_base_url", d.TTSBaseURL)
	v.SetDefault("tts_timeout", d.TTSTimeout)
	v.SetDefault("tts_max_retries", d.TTSMaxRetries)
	v.SetDefault("tts_backoff", d.TTSBackoff)
	v.SetDefault("summary_char_budget", d.SummaryCharBudget)
	v.SetDefault("context_char_budget", d.ContextCharBudget)
	v.SetDefault("answer_temperature", d.AnswerTemperature)
	v.SetDefault("answer_max_tokens", d.AnswerMaxTokens)
	v.SetDefault("hint_temperature", d.HintTemperature)
	v.SetDefault("hint_max_tokens", d.HintMaxTokens)
	v.SetDefault("evaluation_temperature", d.EvaluationTemperature)
	v.SetDefault("evaluation_max_tokens", d.EvaluationMaxTokens)
	v.SetDefault("tuning.partial_credit", d.Tuning.PartialCredit)
	v.SetDefault("tuning.advanced_threshold", d.Tuning.AdvancedThreshold)
	v.SetDefault("tuning.intermediate_threshold", d.Tuning.IntermediateThreshold)
}
