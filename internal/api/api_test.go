package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutionbuddy/internal/cache"
	"tutionbuddy/internal/config"
	"tutionbuddy/internal/llm"
	"tutionbuddy/internal/llm/llmtest"
	"tutionbuddy/internal/logger"
	"tutionbuddy/internal/narration"
	"tutionbuddy/internal/storage"
	"tutionbuddy/internal/subjects"
)

type synthFunc func(ctx context.Context, text string, profile subjects.Profile) (string, error)

func (f synthFunc) Synthesize(ctx context.Context, text string, profile subjects.Profile) (string, error) {
	return f(ctx, text, profile)
}

var okSynth = synthFunc(func(context.Context, string, subjects.Profile) (string, error) {
	return "/static/audio/tts_test.mp3", nil
})

type testServer struct {
	router http.Handler
	store  *storage.SQLiteStorage
	cfg    *config.Config
}

func newTestServer(t *testing.T, provider llm.Provider, synth narration.Synthesizer) *testServer {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.UploadPath = filepath.Join(dir, "uploads")
	cfg.AudioPath = filepath.Join(dir, "audio")

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var narrator *narration.Narrator
	if synth != nil {
		narrator = narration.NewNarrator(synth, cache.NewMemoryCache(100, 0), time.Hour, "", logger.Nop())
	}

	h := NewHandler(store, provider, narrator, cache.NewMemoryCache(100, 0), cfg, logger.Nop())
	return &testServer{router: NewRouter(h), store: store, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func (s *testServer) upload(t *testing.T, filename, content string, fields map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (s *testServer) uploadedFiles(t *testing.T) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(s.cfg.UploadPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

const lessonText = "Plants need water and sunlight.\n\nLeaves make food for the plant."

func (s *testServer) seedDocument(t *testing.T) string {
	t.Helper()
	rec, out := s.upload(t, "plants.txt", lessonText, map[string]string{"subject": "evs", "lesson_title": "Plants Around Us"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return out["id"].(string)
}

func TestHealthAndSubjects(t *testing.T) {
	s := newTestServer(t, llmtest.Reply("ok"), nil)

	rec, out := s.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "fake", out["llm_provider"])
	assert.Equal(t, false, out["narration"])

	rec, out = s.do(t, http.MethodGet, "/api/v1/subjects", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["subjects"], len(subjects.All()))
}

func TestSetModel(t *testing.T) {
	fake := llmtest.Reply("ok")
	s := newTestServer(t, fake, nil)

	rec, out := s.do(t, http.MethodPost, "/api/v1/models", map[string]string{"model": "fake-large"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fake-large", out["current_model"])
	assert.Equal(t, "fake-large", fake.GetCurrentModel())

	rec, _ = s.do(t, http.MethodPost, "/api/v1/models", map[string]string{"model": "gpt-9"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out = s.do(t, http.MethodPost, "/api/v1/models", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]interface{}{"model": "this field is required"}, out["fields"])
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestServer(t, llmtest.Reply("ok"), nil)

	rec, out := s.upload(t, "plants.txt", lessonText, map[string]string{"subject": "evs", "lesson_title": "Plants Around Us", "chapter_number": "3"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := out["id"].(string)
	assert.Equal(t, "Science", out["subject"])
	assert.Equal(t, "Plants Around Us", out["lesson_title"])
	assert.Equal(t, float64(1), out["total_pages"])
	require.Len(t, s.uploadedFiles(t), 1)

	rec, out = s.do(t, http.MethodGet, "/api/v1/documents?subject=science", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), out["count"])

	rec, out = s.do(t, http.MethodGet, "/api/v1/documents?subject=Maths", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), out["count"])

	rec, out = s.do(t, http.MethodGet, "/api/v1/documents/"+id+"/pages", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), out["count"])

	rec, out = s.do(t, http.MethodGet, "/api/v1/documents/"+id+"/pages/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, lessonText, out["content"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/documents/"+id+"/pages/9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/documents/"+id+"/pages/zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/documents/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.uploadedFiles(t))

	rec, _ = s.do(t, http.MethodGet, "/api/v1/documents/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadFailuresLeaveNothing(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
		field    string
	}{
		{"unsupported extension", "virus.exe", "MZ", map[string]string{"subject": "Maths"}, "file"},
		{"empty extraction", "blank.txt", " \n\n \n", map[string]string{"subject": "Maths"}, "file"},
		{"missing subject", "plants.txt", lessonText, map[string]string{}, "subject"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, llmtest.Reply("ok"), nil)

			rec, out := s.upload(t, tt.filename, tt.content, tt.fields)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			fields, ok := out["fields"].(map[string]interface{})
			require.True(t, ok, rec.Body.String())
			assert.Contains(t, fields, tt.field)

			assert.Empty(t, s.uploadedFiles(t))
			docs, err := s.store.ListDocuments(context.Background(), "")
			require.NoError(t, err)
			assert.Empty(t, docs)
		})
	}
}

func TestAsk(t *testing.T) {
	fake := llmtest.Reply("Plants need **water**.")
	s := newTestServer(t, fake, okSynth)
	id := s.seedDocument(t)

	body := map[string]interface{}{"document_id": id, "question": "What do plants need?", "narrate": true}
	rec, out := s.do(t, http.MethodPost, "/api/v1/ask", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Plants need ✨ water ✨.", out["answer"])
	assert.Equal(t, "Plants Around Us", out["document_title"])
	assert.Equal(t, "Science", out["subject"])
	assert.Equal(t, float64(1), out["total_pages"])
	assert.Equal(t, "/static/audio/tts_test.mp3", out["audio_url"])
	assert.Nil(t, out["fallback"])

	rec, out = s.do(t, http.MethodPost, "/api/v1/ask", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Plants need ✨ water ✨.", out["answer"])
	assert.Equal(t, 1, fake.Calls(), "second answer comes from the cache")

	prompt := fake.Prompts()[0]
	assert.Contains(t, prompt, "Leaves make food for the plant.")
	assert.Contains(t, prompt, "Respond ONLY in English.")
}

func TestAskErrors(t *testing.T) {
	s := newTestServer(t, llmtest.Fail(errors.New("quota")), nil)
	id := s.seedDocument(t)

	rec, out := s.do(t, http.MethodPost, "/api/v1/ask", map[string]string{"document_id": id, "question": "Why is the sky blue?"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["fallback"])
	assert.NotEmpty(t, out["answer"])

	rec, out = s.do(t, http.MethodPost, "/api/v1/ask", map[string]string{"document_id": id})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]interface{}{"question": "this field is required"}, out["fields"])

	rec, out = s.do(t, http.MethodPost, "/api/v1/ask", map[string]string{"document_id": "missing", "question": "Hi?"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, out["error"], "not found")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader("{not json"))
	res := httptest.NewRecorder()
	s.router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestAskStream(t *testing.T) {
	s := newTestServer(t, llmtest.Reply("Plants drink water."), nil)
	id := s.seedDocument(t)

	srv := httptest.NewServer(s.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ask/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"document_id": id, "question": "What do plants drink?"}))

	var text strings.Builder
	for {
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		require.Nil(t, msg["error"])
		text.WriteString(msg["content"].(string))
		if msg["done"] == true {
			break
		}
	}
	assert.Equal(t, "Plants drink water.", text.String())
}

func TestQuizSummaryRead(t *testing.T) {
	fake := &llmtest.Fake{Respond: func(prompt string, _ *llm.GenerateOptions) (string, error) {
		if strings.Contains(prompt, "quiz questions") {
			return "Question 1: What do plants need?\nType: Short Answer\nAnswer: Water\nPage: 1", nil
		}
		return "Plants need water. Leaves make food.", nil
	}}
	s := newTestServer(t, fake, okSynth)
	id := s.seedDocument(t)

	rec, out := s.do(t, http.MethodPost, "/api/v1/documents/"+id+"/quiz", map[string]int{"num_questions": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	questions := out["questions"].([]interface{})
	require.Len(t, questions, 1)
	assert.Equal(t, "Water", questions[0].(map[string]interface{})["answer"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/documents/"+id+"/quiz", map[string]int{"num_questions": 50})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out = s.do(t, http.MethodPost, "/api/v1/documents/"+id+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, out["summary"])
	calls := fake.Calls()
	_, _ = s.do(t, http.MethodPost, "/api/v1/documents/"+id+"/summary", nil)
	assert.Equal(t, calls, fake.Calls(), "summary is cached")

	rec, out = s.do(t, http.MethodPost, "/api/v1/documents/"+id+"/read", map[string]interface{}{"page_number": 1, "narrate": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	chunks := out["chunks"].([]interface{})
	require.NotEmpty(t, chunks)
	first := chunks[0].(map[string]interface{})
	assert.Equal(t, "Plants need water and sunlight", first["text"])
	assert.Equal(t, "/static/audio/tts_test.mp3", first["audio_url"])

	rec, _ = s.do(t, http.MethodPost, "/api/v1/documents/"+id+"/read", map[string]int{"page_number": 4})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func homeworkTutor() *llmtest.Fake {
	return &llmtest.Fake{Respond: func(prompt string, _ *llm.GenerateOptions) (string, error) {
		if strings.Contains(prompt, "Student's answer:") {
			return "**Evaluation:** correct\n**Encouragement:** Super!", nil
		}
		return "Which numbers do you see?", nil
	}}
}

func TestHomeworkFlow(t *testing.T) {
	s := newTestServer(t, homeworkTutor(), nil)

	rec, out := s.do(t, http.MethodPost, "/api/v1/homework/sessions", map[string]string{"subject": "Maths", "kind": "homework"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := out["session"].(map[string]interface{})
	id := session["session_id"].(string)
	assert.True(t, strings.HasPrefix(id, "hw_"))
	assert.Contains(t, out["welcome_message"], "Maths homework")

	rec, out = s.do(t, http.MethodPost, "/api/v1/homework/hint", map[string]interface{}{
		"session_id": id, "question": "What is 7 + 5?", "request_hint": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "hint", out["type"])
	hint := out["hint"].(map[string]interface{})
	assert.Equal(t, float64(1), hint["hint_level"])
	assert.Equal(t, "gentle_nudge", hint["hint_type"])
	assert.Equal(t, "Which numbers do you see?", hint["hint_text"])

	rec, out = s.do(t, http.MethodPost, "/api/v1/homework/hint", map[string]interface{}{
		"session_id": id, "question": "What is 7 + 5?", "student_response": "12",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "evaluation", out["type"])
	eval := out["evaluation"].(map[string]interface{})
	assert.Equal(t, "correct", eval["evaluation_level"])
	assert.Equal(t, true, eval["is_correct"])

	rec, out = s.do(t, http.MethodPost, "/api/v1/homework/hint", map[string]interface{}{
		"session_id": id, "question": "What is 9 - 4?",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "question", out["type"])

	rec, out = s.do(t, http.MethodGet, "/api/v1/homework/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), out["total_hints_used"])
	questions := out["questions"].([]interface{})
	require.Len(t, questions, 2)
	states := map[string]interface{}{}
	for _, q := range questions {
		q := q.(map[string]interface{})
		states[q["text"].(string)] = q["state"]
	}
	assert.Equal(t, "evaluated", states["What is 7 + 5?"])
	assert.Equal(t, "unstarted", states["What is 9 - 4?"])

	rec, out = s.do(t, http.MethodPost, "/api/v1/homework/sessions/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := out["summary"].(map[string]interface{})
	assert.Equal(t, "completed", summary["status"])
	assert.Equal(t, float64(1), summary["correct_answers"])

	rec, out = s.do(t, http.MethodPost, "/api/v1/homework/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "submitted", out["summary"].(map[string]interface{})["status"])

	rec, out = s.do(t, http.MethodGet, "/api/v1/homework/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	perf := out["subject_performance"].(map[string]interface{})
	assert.Equal(t, float64(100), perf["Maths"].(map[string]interface{})["success_rate"])

	rec, out = s.do(t, http.MethodGet, "/api/v1/homework/progress/maths", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Maths", out["subject"])
	assert.Equal(t, "advanced", out["difficulty_level"])
	assert.NotNil(t, out["progress"])
}

func TestHomeworkErrors(t *testing.T) {
	s := newTestServer(t, llmtest.Fail(errors.New("offline")), nil)

	rec, out := s.do(t, http.MethodPost, "/api/v1/homework/hint", map[string]interface{}{
		"subject": "Hindi", "question": "संज्ञा क्या है?", "request_hint": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["success"])
	hint := out["hint"].(map[string]interface{})
	assert.Equal(t, true, hint["fallback"])
	assert.NotEmpty(t, hint["hint_text"])

	rec, out = s.do(t, http.MethodPost, "/api/v1/homework/hint", map[string]interface{}{"question": "2 + 2?"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["fields"], "subject")

	rec, _ = s.do(t, http.MethodPost, "/api/v1/homework/sessions", map[string]string{"subject": "Maths", "kind": "party"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/homework/sessions/hw_nope/complete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/homework/sessions/hw_nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out = s.do(t, http.MethodGet, "/api/v1/homework/progress/Telugu", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "basic", out["difficulty_level"])
	assert.Nil(t, out["progress"])
}

func TestAudioEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		synth   narration.Synthesizer
		success bool
	}{
		{"synthesized", okSynth, true},
		{"synthesis fails", synthFunc(func(context.Context, string, subjects.Profile) (string, error) {
			return "", errors.New("tts down")
		}), false},
		{"no narrator", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, llmtest.Reply("ok"), tt.synth)
			rec, out := s.do(t, http.MethodPost, "/api/v1/audio", map[string]string{"text": "Well done!", "subject": "English"})
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.success, out["success"])
			if tt.success {
				assert.Equal(t, "/static/audio/tts_test.mp3", out["audio_url"])
			} else {
				assert.NotEmpty(t, out["message"])
			}
		})
	}

	s := newTestServer(t, llmtest.Reply("ok"), okSynth)
	rec, _ := s.do(t, http.MethodPost, "/api/v1/audio", map[string]string{"subject": "English"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaticAudio(t *testing.T) {
	s := newTestServer(t, llmtest.Reply("ok"), nil)
	require.NoError(t, os.MkdirAll(s.cfg.AudioPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.cfg.AudioPath, "tts_abc.mp3"), []byte("ID3"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/static/audio/tts_abc.mp3", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ID3", rec.Body.String())
}
