// Command server exposes the medical RAG engine over HTTP.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	medrag "github.com/KilianLavenan/medical-rag-chat"
	"github.com/KilianLavenan/medical-rag-chat/llm"
	"github.com/KilianLavenan/medical-rag-chat/store"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// .env is optional.
	godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	// Check before opening the store: opening creates the path, so the
	// presence test must come first.
	needIngest := !store.Exists(cfg.Store.Path)

	engine, err := medrag.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	// Build the index on first start so /chat is answerable immediately.
	if needIngest {
		if err := engine.Ingest(context.Background()); err != nil {
			slog.Error("ingestion failed", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("existing index found, skipping ingestion", "path", cfg.Store.Path)
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      newRouter(engine),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // chat turns wait on the LLM
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

// loadConfig builds the engine configuration from defaults, an optional JSON
// file, and environment overrides.
func loadConfig(path string) (medrag.Config, error) {
	cfg := medrag.DefaultConfig()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *medrag.Config) {
	if v := os.Getenv("MEDRAG_DOCUMENT"); v != "" {
		cfg.DocumentPath = v
	}
	if v := os.Getenv("MEDRAG_IMAGE_CACHE"); v != "" {
		cfg.ImageCachePath = v
	}
	if v := os.Getenv("MEDRAG_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("MEDRAG_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	applyLLMEnv("MEDRAG_CHAT", &cfg.Chat)
	applyLLMEnv("MEDRAG_EMBED", &cfg.Embedding)
	applyLLMEnv("MEDRAG_VISION", &cfg.Vision)

	for _, c := range []*llm.Config{&cfg.Chat, &cfg.Embedding, &cfg.Vision} {
		if c.APIKey == "" && c.Provider == "openai" {
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

func applyLLMEnv(prefix string, c *llm.Config) {
	if v := os.Getenv(prefix + "_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(prefix + "_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv(prefix + "_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(prefix + "_API_KEY"); v != "" {
		c.APIKey = v
	}
}
