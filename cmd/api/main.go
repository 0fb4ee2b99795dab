package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"debate-adjudicator/internal/adjudication"
	"debate-adjudicator/internal/config"
	"debate-adjudicator/internal/db"
	"debate-adjudicator/internal/debate"
	httpSrv "debate-adjudicator/internal/http"
	"debate-adjudicator/internal/llm"
	"debate-adjudicator/internal/migrations"
	"debate-adjudicator/internal/storage"
	"debate-adjudicator/internal/transcript"
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

	// Run embedded migrations (idempotent)
	if err := migrations.Run(cfg.DatabaseURL); err != nil {
		fatal("migrate", err)
	}
	dbase, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("open database", err)
	}
	defer dbase.Close()
	store := db.NewStore(dbase)

	gem, err := llm.NewGemini(ctx, cfg.Gemini)
	if err != nil {
		fatal("gemini client", err)
	}
	defer gem.Close()

	uploads, err := transcript.NewReader(cfg.UploadDir)
	if err != nil {
		fatal("upload dir", err)
	}

	svc := &adjudication.Service{Engine: adjudication.NewEngine(gem), Store: store, Uploads: uploads}
	api := &httpSrv.Server{
		Store:       store,
		Adjudicator: svc,
		Writer:      &debate.Writer{LLM: gem},
	}

	// Archiving uploads is optional; leave both sides nil when MinIO is not configured.
	if cfg.MinIO.Endpoint != "" {
		s3c, err := storage.New(ctx, cfg.MinIO)
		if err != nil {
			fatal("object storage", err)
		}
		svc.Archive = s3c
		api.Archive = s3c
	} else {
		slog.Info("MINIO_ENDPOINT not set; uploaded transcripts will not be archived")
	}

	asq := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer asq.Close()
	api.Queue = asq

	srv := httpSrv.NewServer(cfg.HTTPAddr, api)
	slog.Info("api listening", "addr", cfg.HTTPAddr, "model", cfg.Gemini.Model)
	if err := srv.ListenAndServe(); err != nil {
		fatal("http server", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
