package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/healthscan-ai/internal/application"
	appchat "github.com/bryanwahyu/healthscan-ai/internal/application/chat"
	appscans "github.com/bryanwahyu/healthscan-ai/internal/application/scans"
	"github.com/bryanwahyu/healthscan-ai/internal/config"
	domain "github.com/bryanwahyu/healthscan-ai/internal/domain/scans"
	"github.com/bryanwahyu/healthscan-ai/internal/infra/ai/gemini"
	"github.com/bryanwahyu/healthscan-ai/internal/infra/ai/openai"
	"github.com/bryanwahyu/healthscan-ai/internal/infra/db/mysql"
	"github.com/bryanwahyu/healthscan-ai/internal/infra/db/postgres"
	"github.com/bryanwahyu/healthscan-ai/internal/infra/httpserver"
	"github.com/bryanwahyu/healthscan-ai/internal/infra/notify"
	"github.com/bryanwahyu/healthscan-ai/internal/infra/storage"
	"github.com/bryanwahyu/healthscan-ai/internal/middleware"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("loading config %s: %v", configPath, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var repo domain.Repository
	checkers := map[string]middleware.HealthChecker{}

	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysql.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("connecting mysql: %v", err)
		}
		defer db.Close()
		repo = mysql.NewScanRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("connecting postgres: %v", err)
		}
		defer db.Close()
		repo = postgres.NewScanRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	default:
		log.Fatalf("unsupported database driver %q", cfg.Database.Driver)
	}

	store, err := storage.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("connecting minio: %v", err)
	}
	checkers["storage"] = &middleware.StorageHealthChecker{Store: store}

	hub := notify.NewHub(cfg.SubscribeTimeout())

	scanSvc := &appscans.Service{
		Repo:      repo,
		Objects:   store,
		Analyzer:  domain.StaticAnalyzer{},
		Generator: gemini.New(cfg.AI.Gemini.APIKey, cfg.AI.Gemini.Model, cfg.AI.Gemini.Endpoint),
		Events:    hub,
		Clock:     application.SystemClock{},
	}

	chatSvc := appchat.NewService(openai.NewClient(cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.Model, ""))

	srv := &httpserver.Server{
		Scans:          scanSvc,
		Chat:           chatSvc,
		Hub:            hub,
		MaxUploadBytes: cfg.Scan.MaxUploadBytes,
		RateBurst:      cfg.Server.RateBurst,
		RatePerSec:     cfg.Server.RatePerSec,
		Checkers:       checkers,
		APIKey:         cfg.Server.APIKey,
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
		// no global write timeout: the event stream stays open until the
		// subscribe timeout closes it
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("health scan API listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
