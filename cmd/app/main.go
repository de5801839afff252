package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/ai"
	"github.com/mevzuatgpt/regproc/internal/bunny"
	cfgpkg "github.com/mevzuatgpt/regproc/internal/config"
	"github.com/mevzuatgpt/regproc/internal/inventory"
	logpkg "github.com/mevzuatgpt/regproc/internal/logger"
	"github.com/mevzuatgpt/regproc/internal/metrics"
	"github.com/mevzuatgpt/regproc/internal/pipeline"
	"github.com/mevzuatgpt/regproc/internal/queue"
	"github.com/mevzuatgpt/regproc/internal/scraper"
	"github.com/mevzuatgpt/regproc/internal/store"
	"github.com/mevzuatgpt/regproc/internal/web"
)

func main() {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	rq, err := queue.NewRedisQueue(cfg.Queue.RedisURL, cfg.Queue.Stream, cfg.Queue.Group)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rq.Close()

	rs, err := store.NewRedisStatus(cfg.Queue.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init redis status store")
	}
	defer rs.Close()

	var aiClient ai.Client
	if cfg.AI.APIKey != "" {
		aiClient = ai.NewDeepSeekClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.RequestTimeout)
	} else {
		log.Warn().Msg("DEEPSEEK_API_KEY not set, sectioning and metadata run without AI")
	}

	var cdn pipeline.FileUploader
	if cfg.Bunny.APIKey != "" {
		cdn = bunny.NewClient(cfg.Bunny)
	}

	var portal *inventory.PortalClient
	if cfg.PortalAPI.BaseURL != "" {
		portal = inventory.NewPortalClient(cfg.PortalAPI)
	}

	deps := pipeline.Dependencies{
		Config: cfg,
		AI:     aiClient,
		CDN:    cdn,
		Status: rs,
	}
	if portal != nil {
		deps.Portal = portal
	}
	pipe := pipeline.New(deps)

	scanner := &pipeline.Scanner{Scraper: scraper.New(cfg.Scraper)}
	if portal != nil {
		scanner.Portal = portal
	}
	if cfg.Mongo.URI != "" {
		ms, err := inventory.NewMetadataStore(context.Background(), cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("metadata inventory unavailable")
		} else {
			defer ms.Close(context.Background())
			scanner.Metadata = ms
		}
	}

	api := &web.API{Queue: rq, Status: rs, Scanner: scanner}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if v := os.Getenv("RUN_WORKER"); v == "" || v == "1" || v == "true" {
		worker := &pipeline.Worker{
			Consumer: fmt.Sprintf("worker-%d", os.Getpid()),
			Queue:    rq,
			Pipeline: pipe,
			Status:   rs,
		}
		go worker.Run(workerCtx)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	stopWorker()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("shutdown complete")
}
