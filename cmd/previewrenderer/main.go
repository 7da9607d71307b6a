// Command previewrenderer serves crawler-facing social preview documents
// for the Digital Bull site alongside the admin API for per-page SEO
// settings.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dibull/preview-renderer/internal/api"
	"github.com/dibull/preview-renderer/internal/classifier"
	"github.com/dibull/preview-renderer/internal/config"
	"github.com/dibull/preview-renderer/internal/logging"
	"github.com/dibull/preview-renderer/internal/notify"
	notifymemory "github.com/dibull/preview-renderer/internal/notify/memory"
	notifypubsub "github.com/dibull/preview-renderer/internal/notify/pubsub"
	"github.com/dibull/preview-renderer/internal/relay"
	"github.com/dibull/preview-renderer/internal/seo"
	"github.com/dibull/preview-renderer/internal/store"
	storememory "github.com/dibull/preview-renderer/internal/store/memory"
	storepostgres "github.com/dibull/preview-renderer/internal/store/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a config file (optional; env vars work alone)")
	flag.Parse()

	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync is best-effort
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("renderer exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	settings, err := newSettingsStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer settings.Close()

	notifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Warn("close notifier", zap.Error(err))
		}
	}()

	var contactRelay *relay.Relay
	if cfg.Contact.Enabled {
		contactRelay = relay.New(
			relay.NewHTTPCaptchaVerifier(cfg.Contact.CaptchaVerifyURL, cfg.Contact.CaptchaSecret),
			relay.NewHTTPEmailSender(cfg.Contact.EmailEndpoint, cfg.Contact.EmailAPIKey, cfg.Contact.EmailFrom, cfg.Contact.EmailTo),
			logger.Named("relay"),
		)
	}

	server := api.NewServer(
		settings,
		classifier.New(cfg.Classifier.Signatures),
		seo.NewResolver(cfg.SiteDefaults()),
		notifier,
		contactRelay,
		cfg,
		logger,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("preview renderer listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("base_url", cfg.Site.BaseURL),
			zap.String("db_provider", cfg.DB.Provider),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newSettingsStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.SettingsStore, error) {
	switch cfg.DB.Provider {
	case "postgres":
		s, err := storepostgres.New(ctx, storepostgres.Config{
			DSN:             cfg.DB.DSN,
			Table:           cfg.DB.Table,
			MaxConns:        int32(cfg.DB.MaxConns),
			MinConns:        int32(cfg.DB.MinConns),
			MaxConnLifetime: cfg.DB.ConnLifetime(),
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return s, nil
	case "memory":
		logger.Warn("using in-memory settings store; overrides are lost on restart")
		return storememory.New(), nil
	default:
		return nil, fmt.Errorf("unknown db.provider %q", cfg.DB.Provider)
	}
}

func newNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Publisher, error) {
	switch cfg.Notify.Provider {
	case "pubsub":
		p, err := notifypubsub.NewFromProject(ctx, cfg.Notify.ProjectID, cfg.Notify.Topic)
		if err != nil {
			return nil, fmt.Errorf("init pubsub publisher: %w", err)
		}
		return p, nil
	case "memory":
		return notifymemory.New(), nil
	case "noop":
		return notify.NoOp{}, nil
	default:
		logger.Warn("unknown notify provider, invalidation events disabled",
			zap.String("provider", cfg.Notify.Provider))
		return notify.NoOp{}, nil
	}
}
