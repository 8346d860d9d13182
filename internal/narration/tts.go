package narration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"tutionbuddy/internal/config"
	"tutionbuddy/internal/logger"
	"tutionbuddy/internal/subjects"
)

// AudioURLPrefix ist der öffentliche Pfad der Audiodateien
const AudioURLPrefix = "/static/audio/"

// Synthesizer wandelt bereinigten Text in eine abrufbare Audiodatei um
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, profile subjects.Profile) (string, error)
}

// TranslateTTS nutzt den translate_tts Endpunkt (MP3, max. 100 Zeichen pro Anfrage)
type TranslateTTS struct {
	baseURL    string
	audioDir   string
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

// NewTranslateTTS erstellt den TTS-Client aus der Konfiguration
func NewTranslateTTS(cfg *config.Config, log *logger.Logger) *TranslateTTS {
	if log == nil {
		log = logger.Nop()
	}
	retries := cfg.TTSMaxRetries
	if retries < 1 {
		retries = 1
	}
	return &TranslateTTS{
		baseURL:    cfg.TTSBaseURL,
		audioDir:   cfg.AudioPath,
		client:     &http.Client{Timeout: cfg.TTSTimeout},
		maxRetries: retries,
		backoff:    cfg.TTSBackoff,
		log:        log,
	}
}

// Synthesize lädt alle Teilstücke und schreibt sie hintereinander in eine MP3-Datei
func (t *TranslateTTS) Synthesize(ctx context.Context, text string, profile subjects.Profile) (string, error) {
	chunks := SpeechChunks(text, SpeechChunkSize)
	if len(chunks) == 0 {
		return "", errors.New("tts: kein sprechbarer Text")
	}

	var audio bytes.Buffer
	for i, chunk := range chunks {
		part, err := t.fetchWithRetry(ctx, chunk, i, len(chunks), profile)
		if err != nil {
			return "", errors.Wrapf(err, "tts chunk %d/%d", i+1, len(chunks))
		}
		audio.Write(part)
	}

	if err := os.MkdirAll(t.audioDir, 0o755); err != nil {
		return "", errors.Wrap(err, "tts: audio-verzeichnis")
	}
	filename := "tts_" + strings.ReplaceAll(uuid.NewString(), "-", "") + ".mp3"
	path := filepath.Join(t.audioDir, filename)
	if err := os.WriteFile(path, audio.Bytes(), 0o644); err != nil {
		_ = os.Remove(path)
		return "", errors.Wrap(err, "tts: datei schreiben")
	}

	t.log.Debug("🔊 [TTS] Audio erzeugt", "file", filename, "chunks", len(chunks), "bytes", audio.Len())
	return AudioURLPrefix + filename, nil
}

func (t *TranslateTTS) fetchWithRetry(ctx context.Context, chunk string, idx, total int, profile subjects.Profile) ([]byte, error) {
	attempt := 0
	operation := func() ([]byte, error) {
		attempt++
		data, err := t.fetch(ctx, chunk, idx, total, profile)
		if err != nil && attempt < t.maxRetries {
			t.log.Warn("🔄 [TTS] Anfrage fehlgeschlagen, neuer Versuch", "attempt", attempt, "error", err)
		}
		return data, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(t.backoff)),
		backoff.WithMaxTries(uint(t.maxRetries)),
	)
}

func (t *TranslateTTS) endpoint(profile subjects.Profile) string {
	tld := profile.VoiceTLD
	if tld == "" {
		tld = "com"
	}
	if strings.Contains(t.baseURL, "%s") {
		return fmt.Sprintf(t.baseURL, tld)
	}
	return t.baseURL
}

func (t *TranslateTTS) fetch(ctx context.Context, chunk string, idx, total int, profile subjects.Profile) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", chunk)
	q.Set("tl", profile.VoiceLang)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(len([]rune(chunk))))
	q.Set("client", "tw-ob")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint(profile)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("tts-fehler (%d)", resp.StatusCode)
		// Nur Serverfehler und Drosselung sind vorübergehend
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("tts: leere Audiodaten")
	}
	return data, nil
}
