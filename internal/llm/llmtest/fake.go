// Package llmtest stellt einen scriptbaren Provider für Tests bereit.
package llmtest

import (
	"context"
	"sync"

	"tutionbuddy/internal/llm"
)

// Fake antwortet über Respond und merkt sich alle Prompts
type Fake struct {
	Respond func(prompt string, opts *llm.GenerateOptions) (string, error)

	mu      sync.Mutex
	prompts []string
	options []*llm.GenerateOptions
	model   string
}

// Reply antwortet immer mit text
func Reply(text string) *Fake {
	return &Fake{Respond: func(string, *llm.GenerateOptions) (string, error) { return text, nil }}
}

// Fail antwortet immer mit err
func Fail(err error) *Fake {
	return &Fake{Respond: func(string, *llm.GenerateOptions) (string, error) { return "", err }}
}

func (f *Fake) Generate(_ context.Context, prompt string, opts *llm.GenerateOptions) (*llm.GenerateResponse, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.options = append(f.options, opts)
	f.mu.Unlock()

	text, err := f.Respond(prompt, opts)
	if err != nil {
		return nil, err
	}
	return &llm.GenerateResponse{Content: text, Model: f.GetCurrentModel(), Done: true}, nil
}

func (f *Fake) GenerateStream(ctx context.Context, prompt string, opts *llm.GenerateOptions) (<-chan llm.StreamChunk, error) {
	resp, err := f.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	ch := make(chan llm.StreamChunk, 2)
	ch <- llm.StreamChunk{Content: resp.Content}
	ch <- llm.StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

func (f *Fake) GetModels(context.Context) ([]llm.ModelInfo, error) {
	return []llm.ModelInfo{{Name: "fake-small"}, {Name: "fake-large"}}, nil
}

func (f *Fake) IsAvailable(context.Context) bool { return true }

func (f *Fake) GetName() string { return "fake" }

func (f *Fake) SetModel(model string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.model = model
}

func (f *Fake) GetCurrentModel() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.model == "" {
		return "fake-small"
	}
	return f.model
}

// Prompts liefert eine Kopie aller bisherigen Prompts
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

// Options liefert die Optionen aller bisherigen Aufrufe
func (f *Fake) Options() []*llm.GenerateOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*llm.GenerateOptions(nil), f.options...)
}

// Calls zählt die Aufrufe
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}
