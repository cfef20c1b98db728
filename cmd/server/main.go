package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caixapos/backend/internal/cache"
	"caixapos/backend/internal/config"
	"caixapos/backend/internal/httpapi"
	"caixapos/backend/internal/outbox"
	"caixapos/backend/internal/remote"
	pgremote "caixapos/backend/internal/remote/postgres"
	"caixapos/backend/internal/service"
	"caixapos/backend/internal/store/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("invalid TIMEZONE %q: %v", cfg.Timezone, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo := memory.New()
	closers := make([]func() error, 0, 2)

	remoteStore := remote.Store(remote.Noop{})
	if cfg.DatabaseURL != "" {
		pg, err := pgremote.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("remote store unavailable (%v), running local-only", err)
		} else {
			remoteStore = pg
			closers = append(closers, pg.Close)
			log.Println("remote store: postgres")
		}
	} else {
		log.Println("remote store: noop")
	}

	reportCache := cache.ReportCache(cache.NoopReportCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisReportCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			reportCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	ob := outbox.New(cfg.OutboxBuffer, cfg.OutboxMaxAttempts, cfg.OutboxRetryBackoff)
	ob.Start(workerCtx)

	svc := service.New(repo, remoteStore, ob, reportCache, loc, cfg.ReportCacheTTL)
	svc.Bootstrap(ctx)

	api := httpapi.New(svc, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("register backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	ob.Stop()

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}
