// Package server wires the backend together: Postgres, Redis, object storage
// and mail behind the HTTP API, plus a separate metrics listener.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/logging"
	"github.com/dmitrijs2005/impacthands/internal/server/blob"
	"github.com/dmitrijs2005/impacthands/internal/server/codes"
	"github.com/dmitrijs2005/impacthands/internal/server/config"
	"github.com/dmitrijs2005/impacthands/internal/server/httpapi"
	"github.com/dmitrijs2005/impacthands/internal/server/mailer"
	"github.com/dmitrijs2005/impacthands/internal/server/metrics"
	"github.com/dmitrijs2005/impacthands/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/impacthands/internal/server/revocation"
	"github.com/dmitrijs2005/impacthands/internal/server/services"
	"github.com/dmitrijs2005/impacthands/internal/server/shared/db"
	"github.com/dmitrijs2005/impacthands/internal/server/shared/kv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	redis   *redis.Client
	metrics *metrics.Metrics
	api     *httpapi.Server
}

// NewApp connects to every backing service, applies migrations and builds
// the API. Connections opened before a failure are closed again.
func NewApp(ctx context.Context, c *config.Config) (app *App, err error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	met := metrics.New()

	sqlDB, err := db.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	defer func() {
		if err != nil {
			_ = sqlDB.Close()
		}
	}()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	rdb, err := kv.Open(ctx, c.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	defer func() {
		if err != nil {
			_ = rdb.Close()
		}
	}()

	store, err := blob.NewS3Store(ctx, blob.Options{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	var sender mailer.Sender
	if c.SMTPHost == "" {
		logger.Warn(ctx, "smtp host not set, one-time codes are written to the log")
		sender = mailer.NewLogSender(logger)
	} else {
		sender = mailer.NewSMTPSender(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword, c.SMTPFrom)
	}

	observeRevocation := func(d time.Duration) {
		met.RevocationCheckMillis.Observe(float64(d) / float64(time.Millisecond))
	}

	authService := services.NewAuthService(sqlDB, rm, codes.NewRedisStore(rdb),
		revocation.NewRedisList(rdb, observeRevocation), sender, c, met, logger)
	profileService := services.NewProfileService(sqlDB, rm, logger)
	storageService := services.NewStorageService(store, met, logger)
	enrollmentService := services.NewEnrollmentService(sqlDB, rm, met, logger)

	api := httpapi.NewServer(authService, profileService, storageService, enrollmentService,
		met, logger, c.PublicBaseURL)

	return &App{config: c, logger: logger, db: sqlDB, redis: rdb, metrics: met, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the API and the metrics endpoint until a signal arrives or
// either listener fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpapi.Serve(ctx, app.config.HTTPAddr, app.api.Routes(), app.logger)
	})
	g.Go(func() error {
		return httpapi.Serve(ctx, app.config.MetricsAddr, app.metrics.Handler(), app.logger.With("listener", "metrics"))
	})
	err := g.Wait()

	if cerr := app.redis.Close(); cerr != nil {
		app.logger.Warn(ctx, "close redis", "error", cerr)
	}
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Warn(ctx, "close db", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
