package narration

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	"tutionbuddy/internal/cache"
	"tutionbuddy/internal/logger"
	"tutionbuddy/internal/subjects"
)

// Narrator verbindet Bereinigung, Cache und Synthese.
// Fehler führen nie zum Abbruch: ohne Audio wird "" geliefert.
type Narrator struct {
	synth    Synthesizer
	cache    cache.Cache
	ttl      time.Duration
	audioDir string
	log      *logger.Logger
}

// NewNarrator erstellt einen Narrator; cache darf nil sein
func NewNarrator(synth Synthesizer, c cache.Cache, ttl time.Duration, audioDir string, log *logger.Logger) *Narrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Narrator{synth: synth, cache: c, ttl: ttl, audioDir: audioDir, log: log}
}

// Narrate liefert die Audio-URL für den Text oder "" bei Fehlern
func (n *Narrator) Narrate(ctx context.Context, text, subject string) string {
	cleaned := CleanForSpeech(text)
	if cleaned == "" {
		return ""
	}
	profile := subjects.Lookup(subject)
	key := cache.Key("audio", profile.VoiceLang, profile.VoiceTLD, cleaned)

	if n.cache != nil {
		if url, err := n.cache.Get(ctx, key); err == nil && n.exists(url) {
			return url
		}
	}

	url, err := n.synth.Synthesize(ctx, cleaned, profile)
	if err != nil {
		n.log.Warn("⚠️ [TTS] Sprachausgabe fehlgeschlagen", "subject", profile.Name, "error", err)
		return ""
	}

	if n.cache != nil {
		if err := n.cache.Set(ctx, key, url, n.ttl); err != nil {
			n.log.Warn("⚠️ [Cache] Audio-URL nicht gespeichert", "error", err)
		}
	}
	return url
}

// exists prüft, ob die Datei hinter einer gecachten URL noch vorhanden ist
func (n *Narrator) exists(url string) bool {
	if n.audioDir == "" {
		return true
	}
	_, err := os.Stat(filepath.Join(n.audioDir, path.Base(url)))
	return err == nil
}
