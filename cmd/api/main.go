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

	"buildvive_backend/internal/chat"
	"buildvive_backend/internal/dispatch"
	"buildvive_backend/internal/email"
	"buildvive_backend/internal/escalation"
	"buildvive_backend/internal/events"
	apphttp "buildvive_backend/internal/http"
	"buildvive_backend/internal/http/router"
	"buildvive_backend/internal/notification"
	"buildvive_backend/internal/quotes"
	"buildvive_backend/internal/scheduler"
	"buildvive_backend/internal/sessions"
	"buildvive_backend/internal/store"
	"buildvive_backend/internal/triage"
	"buildvive_backend/platform/ai/moonshot"
	"buildvive_backend/platform/config"
	"buildvive_backend/platform/logger"
	"buildvive_backend/platform/validator"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var docStore *store.RedisStore
	if err := withRetry(ctx, log, "store connection", 5, 2*time.Second, func() error {
		s, err := store.NewRedisStore(ctx, cfg.GetRedisURL())
		if err != nil {
			return err
		}
		docStore = s
		return nil
	}); err != nil {
		log.Error("failed to connect to document store", "error", err)
		panic("failed to connect to document store: " + err.Error())
	}
	defer func() {
		_ = docStore.Close()
	}()
	log.Info("document store connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	schedClient, closeScheduler := initScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	var sender email.Sender
	if cfg.GetEmailEnabled() {
		sender = email.NewSender(cfg)
	} else {
		log.Warn("email sending disabled")
	}

	dispatchClient := dispatch.NewClient(cfg, log)
	if dispatchClient == nil {
		log.Warn("dispatch gateway not configured; escalation SMS alerts disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(sender, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	sessionsModule := sessions.NewModule(docStore, eventBus, cfg, log)
	quotesModule := quotes.NewModule(docStore, eventBus, val, log)

	var followUp escalation.FollowUpScheduler
	if schedClient != nil {
		followUp = schedClient
	}
	var notifier escalation.Notifier
	if dispatchClient != nil {
		notifier = dispatchClient
	}
	coordinator := escalation.New(sessionsModule.Service(), notifier, followUp, eventBus, log)

	chatModule := chat.NewModule(
		sessionsModule.Service(),
		quotesModule.Service(),
		coordinator,
		initAIResponder(cfg, log),
		val,
		log,
	)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   docStore,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			chatModule,
			sessionsModule,
			quotesModule,
		},
	}

	engine := router.New(app)
	server := &http.Server{Addr: cfg.HTTPAddr, Handler: engine}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	reaper := scheduler.NewSessionReaper(sessionsModule.Service(), cfg.GetSessionIdleTimeout(), log)
	g.Go(func() error {
		reaper.Run(gctx)
		return nil
	})

	if schedClient != nil {
		var alerter scheduler.FollowUpAlerter
		if dispatchClient != nil {
			alerter = dispatchClient
		}
		worker, err := scheduler.NewWorker(cfg, sessionsModule.Service(), alerter, cfg.GetOpsPhone(), log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
		} else {
			g.Go(func() error {
				worker.Run(gctx)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func initScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Warn("background scheduler disabled", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initAIResponder(cfg config.AIConfig, log *logger.Logger) triage.AIResponder {
	if !cfg.IsAIEnabled() {
		log.Warn("AI responder not configured; using rule-based responses only")
		return nil
	}

	client := moonshot.NewClient(moonshot.Config{
		APIKey:  cfg.GetAIAPIKey(),
		BaseURL: cfg.GetAIBaseURL(),
		Model:   cfg.GetAIModel(),
	})
	log.Info("AI responder initialized", "model", cfg.GetAIModel())
	return triage.NewMoonshotResponder(client, cfg.GetAITimeout())
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
