package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	boostbot "github.com/set-night/boostbot"
	"github.com/set-night/boostbot/internal/config"
	"github.com/set-night/boostbot/internal/conversation"
	"github.com/set-night/boostbot/internal/domain"
	"github.com/set-night/boostbot/internal/handler"
	"github.com/set-night/boostbot/internal/jobs"
	"github.com/set-night/boostbot/internal/middleware"
	"github.com/set-night/boostbot/internal/repository"
	"github.com/set-night/boostbot/internal/repository/memory"
	"github.com/set-night/boostbot/internal/service"
	"github.com/set-night/boostbot/internal/telegram"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("bot failed", "error", err)
		os.Exit(1)
	}
	slog.Info("bot stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Initialize services
	catalog := service.NewCatalogService(store)
	if err := catalog.Load(ctx, domain.DefaultCatalog()); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	balances := service.NewBalanceService(store)
	orders := service.NewOrderService(store, catalog)
	relay := service.NewRelayService(store)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)

	// Handler pointer for use in default handler closure
	var h *handler.Handler

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.UserLoader(cfg),
			middleware.RateLimit(limiter),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.HandleDefault(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get bot info: %w", err)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	machine := conversation.New(conversation.Deps{
		Balances: balances,
		Catalog:  catalog,
		Orders:   orders,
		Relay:    relay,
		Sessions: conversation.NewMemorySessionStore(),
		Notifier: telegram.NewSender(b),
		Events:   telegram.NewTelegramLogger(b, cfg),
	}, conversation.Options{
		AdminID:       cfg.AdminID,
		Currency:      cfg.Currency,
		PaymentCard:   cfg.PaymentCard,
		PaymentHolder: cfg.PaymentHolder,
		OrdersLimit:   cfg.OrdersListLimit,
	})

	// Initialize handler
	h = handler.New(handler.Deps{
		Bot:     b,
		Machine: machine,
	})

	// Register all handlers
	h.Register()

	scheduler := jobs.NewScheduler(machine, relay, limiter, jobs.Retention{
		SessionTTL:     cfg.SessionTTL,
		RelayRetention: cfg.RelayRetention,
	})
	if err := scheduler.Start(ctx, cfg.RetentionSchedule); err != nil {
		return err
	}
	defer scheduler.Stop()

	slog.Info("starting bot", "username", me.Username, "id", me.ID, "webhook", cfg.UseWebhook(), "storage", cfg.StorageDriver)
	if cfg.UseWebhook() {
		return runWebhook(ctx, cfg, b)
	}
	return runPolling(ctx, cfg, b)
}

// openStore returns the configured storage driver and its cleanup func.
func openStore(ctx context.Context, cfg *config.Config) (service.Store, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		slog.Warn("using in-memory storage, balances and orders are lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// Run migrations
	migrationsFS, err := fs.Sub(boostbot.MigrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	return repository.NewStore(pool), pool.Close, nil
}

func runPolling(ctx context.Context, cfg *config.Config, b *bot.Bot) error {
	// A leftover webhook blocks getUpdates
	if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{
		DropPendingUpdates: cfg.DropPendingUpdates,
	}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	b.Start(ctx)
	return nil
}

func runWebhook(ctx context.Context, cfg *config.Config, b *bot.Bot) error {
	if _, err := b.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:                cfg.FullWebhookURL(),
		DropPendingUpdates: cfg.DropPendingUpdates,
	}); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.WebhookPath(), b.WebhookHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b.StartWebhook(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("webhook server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
