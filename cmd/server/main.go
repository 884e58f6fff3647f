package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sphera-labs/sphera-backend/internal/config"
	"github.com/sphera-labs/sphera-backend/internal/httpapi"
	"github.com/sphera-labs/sphera-backend/internal/hub"
	"github.com/sphera-labs/sphera-backend/internal/metadata"
	"github.com/sphera-labs/sphera-backend/internal/players"
	"github.com/sphera-labs/sphera-backend/internal/stats"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	store := players.NewStore(cfg.PlayersCSV)
	meta := metadata.NewClient(cfg.IPFSGateway, cfg.MetadataDir, logger)
	refresher := stats.NewRefresher(store, meta, logger)

	h := hub.NewHub(ctx, logger)
	api := &httpapi.PlayerAPI{Store: store, Meta: meta, Log: logger}
	handler := httpapi.SetupRoutes(h, api, logger, cfg.ClientURL, cfg.OriginPatterns())

	stopRefresh, err := refresher.Schedule(ctx, cfg.StatsRefreshAt)
	if err != nil {
		logger.Fatal("failed to schedule stats refresh", zap.Error(err))
	}
	defer stopRefresh()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		h.Inbox() <- hub.Shutdown{}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}
