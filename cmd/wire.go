package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/latestcomment/go-ai-debate/internal/config"
	"github.com/latestcomment/go-ai-debate/internal/guardrail"
	"github.com/latestcomment/go-ai-debate/internal/logging"
	"github.com/latestcomment/go-ai-debate/internal/models"
	"github.com/latestcomment/go-ai-debate/internal/services"
	"github.com/latestcomment/go-ai-debate/internal/store"
)

type deps struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   store.Store
	watch   *services.WatchService
	debates *services.DebateService
}

func loadConfig() (*config.Config, error) {
	if envFile != "" {
		return config.Load(envFile)
	}
	return config.Load()
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.DBPath == "" {
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(cfg.DBPath)
}

func buildDeps() (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ai, err := services.NewAIService(services.AIConfig{
		APIKey:           cfg.OpenRouterAPIKey,
		Model:            cfg.AIModel,
		BaseURL:          cfg.AIBaseURL,
		MaxTokensPerTurn: cfg.MaxTokensPerTurn,
		RequestsPerSec:   cfg.GenerationRPS,
	})
	if err != nil {
		return nil, err
	}

	guard, err := guardrail.New(ai, guardrail.Config{
		RewriteEnabled:   cfg.RewriteEnabled(),
		MaxTokensPerTurn: cfg.MaxTokensPerTurn,
		RewriteTimeout:   cfg.RewriteTimeout,
		ExtraPatterns:    cfg.ExtraPatterns(),
	}, logger)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	watch := services.NewWatchService(models.NewChannelManager(), logger)
	debates := services.NewDebateService(st, ai, guard, watch, services.DebateConfig{
		DefaultStyle:      cfg.DefaultStyle,
		GenerationTimeout: cfg.GenerationTimeout,
	}, logger)

	return &deps{cfg: cfg, logger: logger, store: st, watch: watch, debates: debates}, nil
}
