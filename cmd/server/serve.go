package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tutionbuddy/internal/api"
	"tutionbuddy/internal/cache"
	"tutionbuddy/internal/config"
	"tutionbuddy/internal/llm"
	"tutionbuddy/internal/logger"
	"tutionbuddy/internal/narration"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTP-Server starten",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info("🎓 TUTIONBUDDY - Start")
	log.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	for _, dir := range []string{cfg.UploadPath, cfg.AudioPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("verzeichnis %s: %w", dir, err)
		}
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("🤖 Initialisiere LLM-Provider...", "provider", cfg.LLMProvider)
	provider, err := llm.NewProvider(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	checkProvider(ctx, provider, log)

	c := openCache(ctx, cfg, log)
	defer c.Close()

	narrator := narration.NewNarrator(narration.NewTranslateTTS(cfg, log), c, cfg.CacheTTL, cfg.AudioPath, log)

	handler := api.NewHandler(store, provider, narrator, c, cfg, log)
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("✅ Server läuft", "url", "http://localhost:"+cfg.ServerPort, "uploads", cfg.UploadPath)
		log.Info("💡 Drücke Strg+C zum Beenden")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("⏹️ Server wird heruntergefahren...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("⚠️ Shutdown unvollständig", "error", err)
		return err
	}
	log.Info("👋 Server beendet")
	return nil
}

// checkProvider meldet Erreichbarkeit und Modelle, bricht aber nie ab
func checkProvider(ctx context.Context, provider llm.Provider, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if !provider.IsAvailable(ctx) {
		log.Warn("⚠️ LLM nicht erreichbar, Antworten kommen aus den Ersatztexten", "provider", provider.GetName())
		return
	}
	models, err := provider.GetModels(ctx)
	if err != nil {
		log.Warn("⚠️ Modellliste nicht abrufbar", "error", err)
		return
	}
	log.Info("   ✓ LLM erreichbar", "provider", provider.GetName(), "models", len(models), "current", provider.GetCurrentModel())
}

// openCache nutzt Redis falls konfiguriert, sonst einen Speicher-Cache
func openCache(ctx context.Context, cfg *config.Config, log *logger.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		log.Info("🗄️ Cache im Speicher")
		return cache.NewMemoryCache(cfg.MemoryCacheSize, cfg.CacheTTL)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rc, err := cache.NewRedisCache(pingCtx, cfg.RedisAddr)
	if err != nil {
		log.Warn("⚠️ Redis nicht erreichbar, nutze Speicher-Cache", "addr", cfg.RedisAddr, "error", err)
		return cache.NewMemoryCache(cfg.MemoryCacheSize, cfg.CacheTTL)
	}
	log.Info("🗄️ Redis-Cache verbunden", "addr", cfg.RedisAddr)
	return rc
}
