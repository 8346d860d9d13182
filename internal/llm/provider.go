package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tutionbuddy/internal/config"
	"tutionbuddy/internal/logger"
)

// ErrEmptyResponse: das Modell hat keinen Text geliefert
var ErrEmptyResponse = errors.New("leere Modellantwort")

// Provider definiert das Interface für LLM-Backends
type Provider interface {
	// Generate erzeugt eine Antwort basierend auf dem Prompt
	Generate(ctx context.Context, prompt string, options *GenerateOptions) (*GenerateResponse, error)

	// GenerateStream erzeugt eine Streaming-Antwort
	GenerateStream(ctx context.Context, prompt string, options *GenerateOptions) (<-chan StreamChunk, error)

	// GetModels gibt verfügbare Modelle zurück
	GetModels(ctx context.Context) ([]ModelInfo, error)

	// IsAvailable prüft, ob das Backend erreichbar ist
	IsAvailable(ctx context.Context) bool

	GetName() string
	SetModel(model string)
	GetCurrentModel() string
}

// GenerateOptions enthält optionale Parameter für die Generierung.
// Temperature wird immer gesendet, auch 0.
type GenerateOptions struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	System      string  `json:"system,omitempty"`
}

// GenerateResponse enthält die Antwort des LLM
type GenerateResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	TotalTokens  int    `json:"total_tokens"`
	PromptTokens int    `json:"prompt_tokens"`
	Done         bool   `json:"done"`
}

// ModelInfo enthält Informationen über ein Modell
type ModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at,omitempty"`
	Size       int64     `json:"size,omitempty"`
}

// StreamChunk repräsentiert einen Chunk im Streaming-Modus
type StreamChunk struct {
	Content string `json:"content"`
	Done    bool   `json:"done"`
	Error   error  `json:"-"`
}

// Complete ruft das Modell auf und liefert den getrimmten Text.
// Leere Antworten sind ein Fehler (ErrEmptyResponse).
func Complete(ctx context.Context, p Provider, prompt string, options *GenerateOptions) (string, error) {
	resp, err := p.Generate(ctx, prompt, options)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// NewProvider wählt das Backend anhand der Konfiguration
func NewProvider(ctx context.Context, cfg *config.Config, log *logger.Logger) (Provider, error) {
	switch cfg.LLMProvider {
	case "ollama":
		return NewOllamaProvider(cfg.OllamaURL, cfg.DefaultModel, log), nil
	case "gemini":
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
	default:
		return nil, fmt.Errorf("unbekannter llm_provider %q", cfg.LLMProvider)
	}
}
