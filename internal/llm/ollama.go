package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"tutionbuddy/internal/logger"
)

// OllamaProvider implementiert den Provider für einen lokalen Ollama-Server
type OllamaProvider struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger

	mu           sync.RWMutex
	defaultModel string

	// sem limitiert gleichzeitige Anfragen (verhindert Speicherüberlauf)
	sem        chan struct{}
	maxRetries int
	retryDelay time.Duration
}

// NewOllamaProvider erstellt einen neuen Ollama-Provider
func NewOllamaProvider(baseURL, defaultModel string, log *logger.Logger) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if defaultModel == "" {
		defaultModel = "qwen2.5:7b"
	}
	if log == nil {
		log = logger.Nop()
	}

	provider := &OllamaProvider{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		defaultModel: defaultModel,
		client:       &http.Client{Timeout: 15 * time.Minute},
		log:          log,
		sem:          make(chan struct{}, 1),
		maxRetries:   3,
		retryDelay:   2 * time.Second,
	}

	// Prüfe ob das Modell existiert, sonst erstes verfügbares nehmen
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	models, err := provider.GetModels(ctx)
	if err == nil && len(models) > 0 {
		found := false
		for _, m := range models {
			if m.Name == defaultModel {
				found = true
				break
			}
		}
		if !found {
			log.Warn("⚠️  [Ollama] Modell nicht gefunden, verwende erstes verfügbares",
				"wanted", defaultModel, "using", models[0].Name)
			provider.defaultModel = models[0].Name
		}
	}

	return provider
}

func (o *OllamaProvider) GetName() string {
	return "Ollama"
}

func (o *OllamaProvider) SetModel(model string) {
	if model == "" {
		return
	}
	o.mu.Lock()
	o.defaultModel = model
	o.mu.Unlock()
}

func (o *OllamaProvider) GetCurrentModel() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.defaultModel
}

func (o *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (o *OllamaProvider) GetModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama nicht erreichbar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	var result struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Models, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, options *GenerateOptions) (*GenerateResponse, error) {
	// Nur eine Anfrage gleichzeitig an Ollama
	select {
	case o.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-o.sem }()

	return o.generateWithRetry(ctx, prompt, options)
}

// statusError ist eine Nicht-200-Antwort von Ollama
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ollama-fehler (%d): %s", e.code, strings.TrimSpace(e.body))
}

// retryable: Serverfehler oder abgestürzter Runner
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError || strings.Contains(se.body, "terminated")
	}
	return false
}

func (o *OllamaProvider) generateWithRetry(ctx context.Context, prompt string, options *GenerateOptions) (*GenerateResponse, error) {
	model := o.modelFor(options)

	attempt := 0
	operation := func() (*GenerateResponse, error) {
		attempt++
		resp, err := o.doGenerate(ctx, prompt, model, options)
		if err == nil {
			return resp, nil
		}
		if !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		if attempt < o.maxRetries {
			o.log.Warn("🔄 [Ollama] Serverfehler, versuche erneut", "attempt", attempt, "max", o.maxRetries, "error", err)
		}
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = o.retryDelay
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(o.maxRetries)),
	)
}

func (o *OllamaProvider) requestBody(prompt, model string, options *GenerateOptions, stream bool) ([]byte, error) {
	reqBody := map[string]interface{}{
		"model":  model,
		"prompt": prompt,
		"stream": stream,
	}
	if options != nil {
		opts := map[string]interface{}{"temperature": options.Temperature}
		if options.MaxTokens > 0 {
			opts["num_predict"] = options.MaxTokens
		}
		reqBody["options"] = opts
		if options.System != "" {
			reqBody["system"] = options.System
		}
	}
	return json.Marshal(reqBody)
}

func (o *OllamaProvider) doGenerate(ctx context.Context, prompt, model string, options *GenerateOptions) (*GenerateResponse, error) {
	o.log.Debug("[Ollama] Sende Anfrage", "url", o.baseURL+"/api/generate", "model", model, "prompt_chars", len(prompt))

	jsonData, err := o.requestBody(prompt, model, options, false)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		o.log.Warn("❌ [Ollama] Netzwerk-Fehler", "after", time.Since(start), "error", err)
		return nil, fmt.Errorf("ollama-anfrage fehlgeschlagen: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}

	var result struct {
		Response        string `json:"response"`
		Model           string `json:"model"`
		Done            bool   `json:"done"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	o.log.Debug("✓ [Ollama] Antwort erhalten", "after", time.Since(start), "chars", len(result.Response))

	return &GenerateResponse{
		Content:      result.Response,
		Model:        result.Model,
		Done:         result.Done,
		PromptTokens: result.PromptEvalCount,
		TotalTokens:  result.PromptEvalCount + result.EvalCount,
	}, nil
}

func (o *OllamaProvider) GenerateStream(ctx context.Context, prompt string, options *GenerateOptions) (<-chan StreamChunk, error) {
	jsonData, err := o.requestBody(prompt, o.modelFor(options), options, true)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}

	ch := make(chan StreamChunk, 100)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		decoder := json.NewDecoder(resp.Body)
		for {
			var chunk struct {
				Response string `json:"response"`
				Done     bool   `json:"done"`
			}
			if err := decoder.Decode(&chunk); err != nil {
				if err != io.EOF {
					sendChunk(ctx, ch, StreamChunk{Error: err})
				}
				return
			}

			if !sendChunk(ctx, ch, StreamChunk{Content: chunk.Response, Done: chunk.Done}) || chunk.Done {
				return
			}
		}
	}()

	return ch, nil
}

func (o *OllamaProvider) modelFor(options *GenerateOptions) string {
	if options != nil && options.Model != "" {
		return options.Model
	}
	return o.GetCurrentModel()
}

// sendChunk blockiert höchstens bis zum Abbruch des Kontexts
func sendChunk(ctx context.Context, ch chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case ch <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
