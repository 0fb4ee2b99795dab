package main

import (
	"context"
	"log/slog"
	"os"

	"debate-adjudicator/internal/adjudication"
	"debate-adjudicator/internal/config"
	"debate-adjudicator/internal/db"
	"debate-adjudicator/internal/llm"
	"debate-adjudicator/internal/worker"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	ctx := context.Background()

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		fatal("load config", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid config", err)
	}

	dbase, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("open database", err)
	}
	defer dbase.Close()

	gem, err := llm.NewGemini(ctx, cfg.Gemini)
	if err != nil {
		fatal("gemini client", err)
	}
	defer gem.Close()

	// The worker only adjudicates stored sessions, so it needs no upload reader or archive.
	svc := &adjudication.Service{Engine: adjudication.NewEngine(gem), Store: db.NewStore(dbase)}

	slog.Info("worker starting", "redis", cfg.RedisAddr, "concurrency", cfg.WorkerConcurrency)
	if err := worker.Run(cfg.RedisAddr, cfg.WorkerConcurrency, svc); err != nil {
		fatal("worker", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
