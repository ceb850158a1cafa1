package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"meetmed/internal/api"
	"meetmed/internal/auth"
	"meetmed/internal/config"
	"meetmed/internal/database"
	"meetmed/internal/domain"
	"meetmed/internal/events"
	"meetmed/internal/logging"
	"meetmed/internal/metrics"
	"meetmed/internal/notify"
	"meetmed/internal/repository"
	"meetmed/internal/scheduling"
	"meetmed/internal/service"
	"meetmed/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	rules, err := cfg.Booking.Rules()
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger,
		database.WithBusyTimeout(cfg.Database.BusyTimeoutMS),
		database.WithMigrationsTable(cfg.Database.MigrationsTable),
	)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sender, err := notify.NewSender(cfg.Email, &logger)
	if err != nil {
		return fmt.Errorf("init email sender: %w", err)
	}
	renderer, err := notify.NewRenderer(cfg.App.Name)
	if err != nil {
		return fmt.Errorf("init email templates: %w", err)
	}
	notifications := worker.NewNotificationWorker(db, sender, renderer, redisClient, worker.Options{
		Retry: worker.RetryPolicy{
			MaxRetries:    cfg.Notifications.MaxRetries,
			InitialDelay:  cfg.Notifications.BaseDelay,
			MaxDelay:      cfg.Notifications.MaxDelay,
			BackoffFactor: 2,
		},
		PollInterval: cfg.Notifications.PollInterval,
		QueueKey:     cfg.Notifications.QueueKey,
	}, &logger)

	bus := events.NewEventBus(&logger)
	service.NewNotificationDispatcher(db, notifications, &logger).Register(bus)

	services := buildServices(cfg, rules, db, sessionStore(redisClient, &logger), bus, &logger)

	var background sync.WaitGroup
	startBackground(ctx, &background, &logger, "notification worker", notifications.Start)
	startBackground(ctx, &background, &logger, "backup service", database.NewBackupService(db, cfg.Backup, &logger).Start)
	if cfg.Reminders.Enabled {
		at, err := scheduling.ParseClock(cfg.Reminders.Time)
		if err != nil {
			return err
		}
		reminders := worker.NewReminderScheduler(db, notifications, at, rules.Location, &logger)
		startBackground(ctx, &background, &logger, "reminder scheduler", reminders.Start)
	}

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg.API, services, &logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, services.Doctors, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	err = startServers(ctx, grpcServer, httpServer, cfg, &logger)
	stop()
	background.Wait()
	return err
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func buildServices(
	cfg *config.Config,
	rules scheduling.Rules,
	db *database.DB,
	sessions domain.SessionStore,
	bus *events.EventBus,
	logger *zerolog.Logger,
) api.Services {
	tokens := auth.NewTokenManager(cfg.API.Auth, nil)
	limits := service.LoginLimits{Attempts: cfg.API.Auth.LoginAttempts, Window: cfg.API.Auth.LoginWindow}
	slotStep := time.Duration(cfg.Booking.SlotStepMinutes) * time.Minute

	return api.Services{
		Accounts:     service.NewAccountService(db, sessions, tokens, auth.NewHasher(bcrypt.DefaultCost), limits, nil, logger),
		Appointments: service.NewAppointmentService(db, bus, rules, nil, logger),
		Doctors:      service.NewDoctorService(db, rules, slotStep, nil, logger),
		Clinics:      service.NewClinicService(db, logger),
		Reviews:      service.NewReviewService(db, rules.Location, nil, logger),
		Favorites:    service.NewFavoriteService(db, logger),
		Health:       db,
	}
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// sessionStore prefers redis and falls back to process memory while redis
// is unreachable.
func sessionStore(redisClient *redis.Client, logger *zerolog.Logger) domain.SessionStore {
	memory := repository.NewMemorySessionStore()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverSessionStore(repository.NewRedisSessionStore(redisClient), memory, logger)
}

func startBackground(ctx context.Context, wg *sync.WaitGroup, logger *zerolog.Logger, name string, fn func(context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn(ctx)
		logger.Debug().Str("worker", name).Msg("background worker exited")
	}()
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 2)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	event := logger.Info().Int("http_port", cfg.API.HTTP.Port)
	if grpcServer != nil {
		event = event.Str("grpc_addr", grpcServer.Addr())
	}
	event.Msg("API server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
