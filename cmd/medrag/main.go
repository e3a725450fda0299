// Command medrag ingests the configured care protocol document and answers
// questions about it in an interactive terminal session.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	medrag "github.com/KilianLavenan/medical-rag-chat"
	"github.com/KilianLavenan/medical-rag-chat/llm"
	"github.com/KilianLavenan/medical-rag-chat/store"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	docPath := flag.String("doc", "", "Override the source document path")
	ask := flag.String("ask", "", "Ask a single question and exit")
	reingest := flag.Bool("reingest", false, "Re-run ingestion even if an index exists")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// .env is optional.
	godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *docPath != "" {
		cfg.DocumentPath = *docPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Check before opening the store: opening creates the path, so the
	// presence test must come first.
	needIngest := *reingest || !store.Exists(cfg.Store.Path)

	engine, err := medrag.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	if needIngest {
		if err := engine.Ingest(ctx); err != nil {
			slog.Error("ingestion failed", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("existing index found, skipping ingestion", "path", cfg.Store.Path)
	}

	if *ask != "" {
		answer, err := engine.Ask(ctx, *ask, nil)
		if err != nil {
			slog.Error("answering question", "error", err)
			os.Exit(1)
		}
		fmt.Println(answer)
		return
	}

	chat(ctx, engine)
}

// chat runs the interactive loop, carrying the conversation history across
// turns.
func chat(ctx context.Context, engine *medrag.Engine) {
	fmt.Println("Assistant médical - pneumopathies communautaires. Tapez 'exit' pour quitter.")

	var history []llm.Message
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return
		}

		answer, err := engine.Ask(ctx, question, history)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("answering question", "error", err)
			continue
		}
		fmt.Println(answer)
		fmt.Println()

		history = append(history,
			llm.Message{Role: "user", Content: question},
			llm.Message{Role: "assistant", Content: answer},
		)
	}
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

	// Fallback: the well-known provider key.
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
