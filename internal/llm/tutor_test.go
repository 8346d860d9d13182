package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutionbuddy/internal/config"
	"tutionbuddy/internal/models"
)

// fakeProvider ersetzt das Modell in Tests
type fakeProvider struct {
	generate func(prompt string, opts *GenerateOptions) (string, error)
	prompts  []string
	options  []*GenerateOptions
}

func (f *fakeProvider) Generate(_ context.Context, prompt string, opts *GenerateOptions) (*GenerateResponse, error) {
	f.prompts = append(f.prompts, prompt)
	f.options = append(f.options, opts)
	text, err := f.generate(prompt, opts)
	if err != nil {
		return nil, err
	}
	return &GenerateResponse{Content: text, Done: true}, nil
}

func (f *fakeProvider) GenerateStream(ctx context.Context, prompt string, opts *GenerateOptions) (<-chan StreamChunk, error) {
	resp, err := f.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	ch := make(chan StreamChunk, 2)
	ch <- StreamChunk{Content: resp.Content}
	ch <- StreamChunk{Done: true}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) GetModels(context.Context) ([]ModelInfo, error) { return nil, nil }
func (f *fakeProvider) IsAvailable(context.Context) bool              { return true }
func (f *fakeProvider) GetName() string                               { return "fake" }
func (f *fakeProvider) SetModel(string)                               {}
func (f *fakeProvider) GetCurrentModel() string                       { return "fake" }

func reply(text string) *fakeProvider {
	return &fakeProvider{generate: func(string, *GenerateOptions) (string, error) { return text, nil }}
}

var testPages = []models.Page{
	{PageNumber: 2, Content: "Roots take in water."},
	{PageNumber: 1, Content: "Plants need sunlight."},
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	text, err := Complete(ctx, reply("  hello \n"), "p", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = Complete(ctx, reply("   "), "p", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	boom := errors.New("boom")
	_, err = Complete(ctx, &fakeProvider{generate: func(string, *GenerateOptions) (string, error) { return "", boom }}, "p", nil)
	assert.ErrorIs(t, err, boom)
}

func TestAskQuestion(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		wantInText []string
	}{
		{name: "english subject", subject: "Science", wantInText: []string{"Respond ONLY in English", "--- Page 1 ---\nPlants need sunlight."}},
		{name: "hindi subject", subject: "Hindi", wantInText: []string{"Respond ONLY in Hindi"}},
		{name: "maths uses steps", subject: "Maths", wantInText: []string{"**Step 1:**"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := reply("**Plants** need light")
			tutor := NewTutor(p, config.Default(), nil)
			doc := &models.Document{ID: "d1", LessonTitle: "Green Plants", Subject: tt.subject}

			ans, err := tutor.AskQuestion(context.Background(), doc, testPages, "What do plants need?")
			require.NoError(t, err)
			assert.Equal(t, "✨ Plants ✨ need light", ans.Answer)
			assert.Equal(t, 2, ans.TotalPages)
			assert.Equal(t, "Green Plants", ans.DocumentTitle)

			require.Len(t, p.prompts, 1)
			for _, want := range tt.wantInText {
				assert.Contains(t, p.prompts[0], want)
			}
			assert.Less(t, strings.Index(p.prompts[0], "Page 1"), strings.Index(p.prompts[0], "Page 2"))
			assert.Equal(t, 4000, p.options[0].MaxTokens)
		})
	}
}

func TestAskQuestionErrors(t *testing.T) {
	tutor := NewTutor(reply(""), config.Default(), nil)
	doc := &models.Document{ID: "d1", Subject: "Science"}

	_, err := tutor.AskQuestion(context.Background(), doc, nil, "q")
	assert.ErrorIs(t, err, ErrNoPages)

	_, err = tutor.AskQuestion(context.Background(), doc, testPages, "q")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestSummarizeUsesBudget(t *testing.T) {
	cfg := config.Default()
	cfg.SummaryCharBudget = 40
	p := reply("A short summary")
	tutor := NewTutor(p, cfg, nil)

	long := []models.Page{{PageNumber: 1, Content: strings.Repeat("leaf ", 100)}}
	out, err := tutor.Summarize(context.Background(), &models.Document{Subject: "Science"}, long)
	require.NoError(t, err)
	assert.Equal(t, "A short summary", out)
	assert.Contains(t, p.prompts[0], "[... truncated ...]")
	assert.NotContains(t, p.prompts[0], strings.Repeat("leaf ", 20))
}

func TestGenerateQuiz(t *testing.T) {
	raw := `Here is your quiz!

Question 1: What do plants need to make food?
Type: Multiple Choice
Options: Sunlight | Sand | Plastic
Answer: Sunlight
Page: 1

**Question 2:** Roots take in water. True or false?
Type: True False
Answer: True
Page: [2]`

	tutor := NewTutor(reply(raw), config.Default(), nil)
	quiz, err := tutor.GenerateQuiz(context.Background(), &models.Document{Subject: "Science"}, testPages, 5)
	require.NoError(t, err)
	require.Len(t, quiz, 2)

	assert.Equal(t, "What do plants need to make food?", quiz[0].Question)
	assert.Equal(t, []string{"Sunlight", "Sand", "Plastic"}, quiz[0].Options)
	assert.Equal(t, "Sunlight", quiz[0].Answer)
	assert.Equal(t, 1, quiz[0].Page)

	assert.Equal(t, "Roots take in water. True or false?", quiz[1].Question)
	assert.Equal(t, "True False", quiz[1].Type)
	assert.Equal(t, 2, quiz[1].Page)

	_, err = NewTutor(reply("no questions here"), config.Default(), nil).
		GenerateQuiz(context.Background(), &models.Document{}, testPages, 3)
	assert.Error(t, err)
}

func TestMakeKidFriendly(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"## Main idea", "🎯 Main idea"},
		{"### Fun fact", "🌟 Fun fact"},
		{"# Lesson", "📚 Lesson"},
		{"This is **important**", "This is ✨ important ✨"},
		{"- first\n- second", "🔹 first\n🔹 second"},
		{"* star item", "🔸 star item"},
		{"1. one\n2. two", "1️⃣ one\n2️⃣ two"},
		{"The Earth is round", "The 🌎 Earth is round"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MakeKidFriendly(tt.in), tt.in)
	}
}
