// SecondBrain - personal RAG assistant with structured memory
// License: MIT
//
// Copyright (c) 2026 SecondBrain contributors

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dotsetgreg/secondbrain/pkg/brain"
	"github.com/dotsetgreg/secondbrain/pkg/config"
	"github.com/dotsetgreg/secondbrain/pkg/embedding"
	"github.com/dotsetgreg/secondbrain/pkg/ingest"
	"github.com/dotsetgreg/secondbrain/pkg/intent"
	"github.com/dotsetgreg/secondbrain/pkg/memory"
	"github.com/dotsetgreg/secondbrain/pkg/providers"
	"github.com/dotsetgreg/secondbrain/pkg/vectorindex"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const appName = "secondbrain"

// formatVersion returns the version string with optional git commit
func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func printVersion() {
	fmt.Printf("%s %s\n", appName, formatVersion())
	if buildTime != "" {
		fmt.Printf("  Build: %s\n", buildTime)
	}
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	fmt.Printf("  Go: %s\n", goVer)
}

func main() {
	if err := executeCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg   *config.Config
	brain *brain.Brain
	auto  *brain.AutoExporter
	close func()
}

// bootstrap loads configuration and wires the full pipeline: SQLite-backed
// memory, embedded vector index, intent resolver, provider chain, ingestor.
func bootstrap(cfgPath string) (*app, error) {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(log)

	if cfgPath == "" {
		cfgPath = defaultConfigPath()
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataPath(""), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := memory.NewSQLiteStore(cfg.MemoryDBPath())
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	manager := memory.NewManager(store, log)

	index, err := openIndex(cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	exporter := memory.NewExporter(manager, index, log)
	resolver := intent.NewResolver(manager, exporter, log)
	ingestor := ingest.NewIngestor(ingest.FileExtractor{}, ingest.Chunker{}, index, log)

	var auto *brain.AutoExporter
	if cfg.Export.AutoCron != "" {
		auto, err = brain.NewAutoExporter(exporter, cfg.Export.AutoCron, log)
		if err != nil {
			index.Close()
			store.Close()
			return nil, fmt.Errorf("auto export: %w", err)
		}
	}

	b, err := brain.New(brain.Config{
		Resolver:   resolver,
		Memory:     manager,
		Exporter:   exporter,
		Index:      index,
		Ingestor:   ingestor,
		Completer:  buildCompleter(cfg, log),
		AutoExport: auto,
		Timeout:    time.Duration(cfg.Chat.TimeoutSeconds) * time.Second,
		Log:        log,
	})
	if err != nil {
		index.Close()
		store.Close()
		return nil, err
	}

	return &app{
		cfg:   cfg,
		brain: b,
		auto:  auto,
		close: func() {
			index.Close()
			store.Close()
		},
	}, nil
}

// openIndex builds the persistent vector index. With an OpenAI key the
// hosted embedding model is used (behind a ristretto cache); otherwise the
// deterministic local embedder keeps everything offline.
func openIndex(cfg *config.Config, log *slog.Logger) (vectorindex.Index, error) {
	var embedder embedding.Embedder
	if key := cfg.Providers.OpenAI.APIKey; key != "" {
		oe, err := embedding.NewOpenAIEmbedder(key, cfg.Providers.OpenAI.EmbeddingModel)
		if err != nil {
			return nil, fmt.Errorf("openai embedder: %w", err)
		}
		embedder = oe
	} else {
		log.Warn("no OpenAI API key, using local embeddings")
		embedder = embedding.NewLocalEmbedder()
	}

	if cfg.Index.EmbeddingCache > 0 {
		cached, err := embedding.NewCachedEmbedder(embedder, cfg.Index.EmbeddingCache)
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		embedder = cached
	}

	index, err := vectorindex.NewChromemIndex(embedder, cfg.IndexDirPath())
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	return index, nil
}

// buildCompleter assembles the generation fallback chain in priority order:
// OpenAI first, Anthropic second. With no keys the brain runs on templated
// answers alone.
func buildCompleter(cfg *config.Config, log *slog.Logger) providers.Completer {
	var completers []providers.Completer
	if key := cfg.Providers.OpenAI.APIKey; key != "" {
		if c, err := providers.NewOpenAICompleter(key, cfg.Providers.OpenAI.Model); err == nil {
			completers = append(completers, c)
		} else {
			log.Warn("openai completer unavailable", "error", err)
		}
	}
	if key := cfg.Providers.Anthropic.APIKey; key != "" {
		if c, err := providers.NewAnthropicCompleter(key, cfg.Providers.Anthropic.Model); err == nil {
			completers = append(completers, c)
		} else {
			log.Warn("anthropic completer unavailable", "error", err)
		}
	}
	if len(completers) == 0 {
		log.Warn("no LLM providers configured, answers fall back to document excerpts")
		return nil
	}
	return providers.NewChain(log, completers...)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".secondbrain", "config.json")
}
