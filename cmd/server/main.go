package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/srijanmgr/chiyapasal/internal/billing"
	"github.com/srijanmgr/chiyapasal/internal/catalog"
	"github.com/srijanmgr/chiyapasal/internal/config"
	"github.com/srijanmgr/chiyapasal/internal/dashboard"
	"github.com/srijanmgr/chiyapasal/internal/handlers"
	"github.com/srijanmgr/chiyapasal/internal/logging"
	loggingmw "github.com/srijanmgr/chiyapasal/internal/middleware/logging"
	"github.com/srijanmgr/chiyapasal/internal/notify"
	"github.com/srijanmgr/chiyapasal/internal/ordering"
	"github.com/srijanmgr/chiyapasal/internal/storage"
	httpserver "github.com/srijanmgr/chiyapasal/internal/transport/http"
)

func main() {
	cfg := config.Load()
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := storage.Open(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	menu := catalog.Default()
	if cfg.CatalogPath != "" {
		menu, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			log.Fatalf("catalog: %v", err)
		}
	}

	if err := handlers.EnsureStaff(context.Background(), db, cfg.StaffUsername, cfg.StaffPassword); err != nil {
		log.Fatalf("staff account: %v", err)
	}

	orderStore := storage.NewOrderStore(db)
	settings := storage.NewSettingsStore(db)

	hub := notify.NewHub()
	notifiers := notify.Multi{hub}
	var kafkaNotifier *notify.KafkaNotifier
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier = notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		notifiers = append(notifiers, kafkaNotifier)
	}

	aggregator := dashboard.NewAggregator(orderStore, settings)

	runCtx, stopRun := context.WithCancel(logging.IntoContext(context.Background(), logger))
	go aggregator.Run(runCtx, hub, dashboard.DefaultPollInterval)

	deps := &httpserver.Deps{
		OrderHandler: &handlers.OrderHandler{
			Catalog: menu,
			Service: &ordering.Service{Catalog: menu, Store: orderStore, Notifier: notifiers},
		},
		AdminHandler: &handlers.AdminHandler{
			Aggregator: aggregator,
			Bills:      &billing.Generator{Store: orderStore},
			Store:      orderStore,
			Settings:   settings,
		},
		AuthHandler: &handlers.AuthHandler{DB: db, JWTSecret: cfg.JWTSecret},
		JWTSecret:   cfg.JWTSecret,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopRun()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if kafkaNotifier != nil {
		if err := kafkaNotifier.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
