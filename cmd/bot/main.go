package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/abitohelp/abitbot/internal/bot"
	"github.com/abitohelp/abitbot/internal/config"
	"github.com/abitohelp/abitbot/internal/database"
	"github.com/abitohelp/abitbot/internal/dialog"
	"github.com/abitohelp/abitbot/internal/events"
	"github.com/abitohelp/abitbot/internal/gateway"
	"github.com/abitohelp/abitbot/internal/identity"
	"github.com/abitohelp/abitbot/internal/logging"
	"github.com/abitohelp/abitbot/internal/media"
	"github.com/abitohelp/abitbot/internal/news"
	"github.com/abitohelp/abitbot/internal/notify"
	"github.com/abitohelp/abitbot/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting abitbot", "env", cfg.Env, "port", cfg.Port)

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		logger.Error("database init failed", "error", err.Error())
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logger.Error("migrations failed", "error", err.Error())
		os.Exit(1)
	}

	identityStore := identity.NewStore(db, cfg.SuperAdminID)
	eventRepo := events.NewRepository(db)
	mediaStore := media.NewStore(db)

	sessions, err := dialog.NewRedisStore(cfg.RedisURL)
	if err != nil {
		logger.Error("session store init failed", "error", err.Error())
		os.Exit(1)
	}
	defer sessions.Close()

	sender := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewaySecret, cfg.GatewayStubMode, logger)
	notifier := notify.New(logger, cfg.BroadcastDelay)

	if err := worker.InitClient(cfg.RedisURL); err != nil {
		logger.Error("task client init failed", "error", err.Error())
		os.Exit(1)
	}
	defer worker.CloseClient()

	handler := bot.New(bot.Deps{
		Identity:        identityStore,
		Events:          eventRepo,
		Media:           mediaStore,
		Sessions:        sessions,
		Sender:          sender,
		Notifier:        notifier,
		EnqueueAnnounce: worker.EnqueueAnnounceEvent,
		BotUsername:     cfg.BotUsername,
		Logger:          logger,
	})

	// News pipeline. The poller is optional: without a sources manifest the
	// stream still accepts items from external producers.
	sources, err := news.LoadSources(cfg.NewsSourcesPath)
	if err != nil {
		logger.Error("news sources manifest unreadable", "path", cfg.NewsSourcesPath, "error", err.Error())
		os.Exit(1)
	}
	var poller *news.Poller
	if len(sources) > 0 {
		publisher, err := news.NewPublisher(cfg.RedisURL)
		if err != nil {
			logger.Error("news publisher init failed", "error", err.Error())
			os.Exit(1)
		}
		defer publisher.Close()

		poller, err = news.NewPoller(sources, cfg.RedisURL, publisher, logger)
		if err != nil {
			logger.Error("news poller init failed", "error", err.Error())
			os.Exit(1)
		}
		defer poller.Close()
	} else {
		logger.Info("no news sources configured, poller disabled")
	}

	// Consumer names must be distinct per process or replicas steal each
	// other's pending stream entries.
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])
	consumer, err := news.NewConsumer(cfg.RedisURL, consumerName, logger)
	if err != nil {
		logger.Error("news consumer init failed", "error", err.Error())
		os.Exit(1)
	}
	defer consumer.Close()

	go func() {
		handleItem := news.HandleItem(db, identityStore, notifier, handler.DeliverNews, logger)
		if err := consumer.Consume(ctx, handleItem); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("news consumer stopped", "error", err.Error())
		}
	}()

	stopWorker, err := worker.Start(cfg, logger, worker.Deps{
		Repo:         eventRepo,
		Recipients:   identityStore,
		Notifier:     notifier,
		DeliverEvent: handler.DeliverEvent,
		Poller:       poller,
	})
	if err != nil {
		logger.Error("worker start failed", "error", err.Error())
		os.Exit(1)
	}
	defer stopWorker()

	stopScheduler, err := worker.StartScheduler(cfg, logger)
	if err != nil {
		logger.Error("scheduler start failed", "error", err.Error())
		os.Exit(1)
	}
	defer stopScheduler()

	router, err := gateway.NewRouter(cfg.GatewaySecret, logger, handler.HandleUpdate)
	if err != nil {
		logger.Error("router init failed", "error", err.Error())
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("webhook server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err.Error())
	}
	logger.Info("goodbye")
}
