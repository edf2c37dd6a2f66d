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

	"tijara/backend/internal/cache"
	"tijara/backend/internal/config"
	"tijara/backend/internal/estimate"
	"tijara/backend/internal/httpapi"
	"tijara/backend/internal/media"
	"tijara/backend/internal/service"
	"tijara/backend/internal/store"
	"tijara/backend/internal/store/memory"
	pgstore "tijara/backend/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		} else {
			repo = pg
			closers = append(closers, pg.Close)
			log.Println("repository: postgres")
		}
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	estimateStore := cache.EstimateStore(cache.NoopEstimateStore{})
	if cfg.RedisAddr != "" {
		redisStore := cache.NewRedisEstimateStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisStore.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop estimate store", err)
		} else {
			estimateStore = redisStore
			closers = append(closers, redisStore.Close)
			log.Println("estimate store: redis")
		}
	} else {
		log.Println("estimate store: noop")
	}

	mediaStore, err := media.NewDiskStore(cfg.MediaDir, cfg.MediaMaxBytes)
	if err != nil {
		log.Fatalf("media dir unavailable: %v", err)
	}

	// The costing page keeps estimates in memory only; the sales page persists
	// its list through the estimate store with a staleness TTL.
	costing := estimate.New(nil, "", 0, false)
	sales := estimate.New(estimateStore, "sales:estimates", time.Duration(cfg.SalesCacheTTLHours)*time.Hour, true)

	svc := service.New(repo, costing, sales)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, mediaStore, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("tijara backend listening on %s", cfg.Address())
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

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
