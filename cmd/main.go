package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/clipscholar/video-study-generator/internal/config"
	"github.com/clipscholar/video-study-generator/internal/history"
	"github.com/clipscholar/video-study-generator/internal/httpapi"
	"github.com/clipscholar/video-study-generator/internal/llm"
	"github.com/clipscholar/video-study-generator/internal/search"
	"github.com/clipscholar/video-study-generator/internal/study"
	"github.com/clipscholar/video-study-generator/pkg/log"
)

type cronEngine interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()
	log.InitLogger(log.ParseLevel(os.Getenv("LOG_LEVEL")))
	defer func() { _ = log.GetLogger().Sync() }()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	searchClient, err := search.NewClient(&search.Config{
		APIKey:  cfg.Search.APIKey,
		APIURL:  cfg.Search.APIURL,
		Timeout: cfg.Search.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to create search client: %v", err)
	}

	genClient, err := llm.NewClient(&llm.Config{
		APIKey:      cfg.LLM.APIKey,
		APIURL:      cfg.LLM.APIURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to create LLM client: %v", err)
	}

	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		log.Fatal("Failed to open history store: %v", err)
	}
	defer func() { _ = store.Close() }()

	cache := study.NewGenerationCache(
		study.WithTTL(cfg.Cache.TTL),
		study.WithCooldown(cfg.Cache.Cooldown),
	)
	svc := study.NewService(
		search.NewFuser(searchClient),
		genClient,
		study.WithCache(cache),
		study.WithRecorder(store),
		study.WithDefaultOptions(study.Options{
			MaxHits:            cfg.Generation.MaxHits,
			MaxContextChars:    cfg.Generation.MaxContextChars,
			TopicsCount:        cfg.Generation.TopicsCount,
			FlashcardsPerTopic: cfg.Generation.FlashcardsPerTopic,
			QuizPerTopic:       cfg.Generation.QuizPerTopic,
		}),
		study.WithTargetLanguage(cfg.Generation.TargetLanguage),
	)
	srv := httpapi.NewServer(svc,
		httpapi.WithHistory(store),
		httpapi.WithSweepSchedule(cfg.Cache.SweepCron),
	)

	engine := cron.New()
	if _, err := engine.AddFunc(cfg.Cache.SweepCron, func() {
		if dropped := cache.Sweep(); dropped > 0 {
			log.Debug("Cache sweep dropped %d expired entries", dropped)
		}
	}); err != nil {
		log.Fatal("Invalid cache sweep cron expression %q: %v", cfg.Cache.SweepCron, err)
	}
	if _, err := engine.AddFunc("@daily", func() {
		pruned, err := store.Prune(context.Background(), cfg.History.Retention)
		if err != nil {
			log.Warn("History prune failed: %v", err)
			return
		}
		if pruned > 0 {
			log.Info("Pruned %d old generation runs", pruned)
		}
	}); err != nil {
		log.Fatal("Failed to schedule history prune: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting study material service on %s", cfg.Server.Addr)
	if err := runWithComponents(ctx, cfg, engine, srv); err != nil {
		log.Fatal("Service exited: %v", err)
	}
}

// runWithComponents runs the cron engine and HTTP server until the context is
// cancelled or the server fails, then shuts both down in order.
func runWithComponents(ctx context.Context, cfg *config.Config, engine cronEngine, srv httpServer) error {
	engine.Start()
	defer func() {
		<-engine.Stop().Done()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Server.Addr)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
