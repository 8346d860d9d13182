package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"tutionbuddy/internal/logger"
)

// GeminiProvider spricht die Gemini API über das genai SDK an
type GeminiProvider struct {
	client *genai.Client
	log    *logger.Logger

	mu    sync.RWMutex
	model string
}

// NewGeminiProvider erstellt einen Gemini-Provider; ohne API-Key ein Fehler
func NewGeminiProvider(ctx context.Context, apiKey, model string, log *logger.Logger) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API-Key fehlt (TUTOR_GEMINI_API_KEY oder GEMINI_API_KEY)")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if log == nil {
		log = logger.Nop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini-client erstellen: %w", err)
	}

	return &GeminiProvider{client: client, model: model, log: log}, nil
}

func (g *GeminiProvider) GetName() string {
	return "Gemini"
}

func (g *GeminiProvider) SetModel(model string) {
	if model == "" {
		return
	}
	g.mu.Lock()
	g.model = model
	g.mu.Unlock()
}

func (g *GeminiProvider) GetCurrentModel() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.model
}

func (g *GeminiProvider) IsAvailable(ctx context.Context) bool {
	_, err := g.GetModels(ctx)
	return err == nil
}

func (g *GeminiProvider) GetModels(ctx context.Context) ([]ModelInfo, error) {
	var models []ModelInfo
	for m, err := range g.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("gemini-modelle abrufen: %w", err)
		}
		models = append(models, ModelInfo{Name: strings.TrimPrefix(m.Name, "models/")})
	}
	return models, nil
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, options *GenerateOptions) (*GenerateResponse, error) {
	model := g.modelFor(options)
	g.log.Debug("[Gemini] Sende Anfrage", "model", model, "prompt_chars", len(prompt))

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), contentConfig(options))
	if err != nil {
		return nil, fmt.Errorf("gemini-anfrage fehlgeschlagen: %w", err)
	}

	out := &GenerateResponse{
		Content: resp.Text(),
		Model:   model,
		Done:    true,
	}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	g.log.Debug("✓ [Gemini] Antwort erhalten", "chars", len(out.Content))
	return out, nil
}

func (g *GeminiProvider) GenerateStream(ctx context.Context, prompt string, options *GenerateOptions) (<-chan StreamChunk, error) {
	model := g.modelFor(options)
	ch := make(chan StreamChunk, 100)

	go func() {
		defer close(ch)
		for resp, err := range g.client.Models.GenerateContentStream(ctx, model, genai.Text(prompt), contentConfig(options)) {
			if err != nil {
				sendChunk(ctx, ch, StreamChunk{Error: err})
				return
			}
			if !sendChunk(ctx, ch, StreamChunk{Content: resp.Text()}) {
				return
			}
		}
		sendChunk(ctx, ch, StreamChunk{Done: true})
	}()

	return ch, nil
}

func (g *GeminiProvider) modelFor(options *GenerateOptions) string {
	if options != nil && options.Model != "" {
		return options.Model
	}
	return g.GetCurrentModel()
}

func contentConfig(options *GenerateOptions) *genai.GenerateContentConfig {
	if options == nil {
		return nil
	}
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(options.Temperature)),
	}
	if options.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(options.System, genai.RoleUser)
	}
	return cfg
}
