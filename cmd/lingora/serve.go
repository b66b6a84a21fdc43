package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lingora/lingora/internal/api"
	"github.com/lingora/lingora/internal/clock"
	"github.com/lingora/lingora/internal/completion"
	"github.com/lingora/lingora/internal/config"
	"github.com/lingora/lingora/internal/countdown"
	"github.com/lingora/lingora/internal/gate"
	"github.com/lingora/lingora/internal/identity"
	"github.com/lingora/lingora/internal/lesson"
	"github.com/lingora/lingora/internal/metrics"
	"github.com/lingora/lingora/internal/notify"
	"github.com/lingora/lingora/internal/quota"
	"github.com/lingora/lingora/internal/storage"
	"github.com/lingora/lingora/internal/storage/bolt"
	"github.com/lingora/lingora/internal/storage/memory"
	redisstore "github.com/lingora/lingora/internal/storage/redis"
	"github.com/lingora/lingora/internal/systemd"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Lingora server",
	Long:  `Start the Lingora API and metrics servers with the configured storage backend.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting Lingora")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	store := openStorage(cfg, logger)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	days, err := clock.NewDayKeeper(clock.RealClock{}, cfg.Quota.DailyResetTime)
	if err != nil {
		return fmt.Errorf("invalid daily_reset_time: %w", err)
	}

	notifier := buildNotifier(store, logger)
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close notifier")
		}
	}()

	quotaService := quota.NewService(store.Counters(), days, logger)
	completionService := completion.NewService(store.Flags(), days, notifier, logger)
	featureGate := gate.New(quotaService, completionService, days, notifier, logger)
	timer := countdown.New(store.Timers(), days, logger)

	scheduler := gate.NewRolloverScheduler(store, days, notifier, cfg.Quota.RetentionDays, logger)
	scheduler.Start()

	lessonClient, err := lesson.NewClient(cfg.OpenAI, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize lesson client: %w", err)
	}
	definer, err := lesson.NewDefiner(lessonClient, cfg.OpenAI.CacheSize)
	if err != nil {
		return fmt.Errorf("failed to initialize definer: %w", err)
	}
	reviewer := lesson.NewReviewer(lessonClient)
	ideas := lesson.NewIdeaGenerator(lessonClient)

	verifier := identity.NewVerifier(cfg.Auth.JWTSecret, 0)

	apiServer := api.NewServer(
		api.Config{
			ListenAddr:        fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.APIPort),
			DefinitionsPerDay: int64(cfg.Quota.DefinitionsPerDay),
			ReviewsPerDay:     int64(cfg.Quota.ReviewsPerDay),
			SessionSeconds:    cfg.Timer.SessionSeconds,
		},
		verifier, featureGate, quotaService, completionService, timer, definer, reviewer, ideas, days, logger,
	)

	if sdListeners.Activated && sdListeners.API != nil {
		apiServer.SetListener(sdListeners.API)
	}
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	metricsServer := metrics.NewServer(metricsAddr, logger)

	if sdListeners.Activated && sdListeners.Metrics != nil {
		metricsServer.SetListener(sdListeners.Metrics)
	}
	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	logger.Info().Msg("Lingora startup complete")
	logger.Info().Msgf("API: http://%s:%d/api", cfg.Server.BindAddress, cfg.Server.APIPort)
	logger.Info().Msgf("Metrics: http://%s/metrics", metricsAddr)

	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutdown signal received, gracefully stopping...")

	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	scheduler.Stop()

	if err := apiServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping API server")
	}
	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping metrics server")
	}

	logger.Info().Msg("Lingora stopped")
	return nil
}

// openStorage opens the configured backend. An unreachable backend
// degrades to the in-memory store so the features stay usable.
func openStorage(cfg *config.Config, logger zerolog.Logger) storage.Store {
	var (
		store storage.Store
		err   error
	)

	switch cfg.Storage.Type {
	case "redis":
		store, err = redisstore.Open(cfg.Redis)
	case "memory":
		return memory.Open()
	default:
		store, err = bolt.Open(cfg.Storage.Path)
	}

	if err != nil {
		logger.Warn().
			Err(err).
			Str("type", cfg.Storage.Type).
			Msg("Storage backend unavailable, falling back to in-memory store")
		return memory.Open()
	}

	logger.Info().Str("type", cfg.Storage.Type).Msg("Storage initialized")
	return store
}

// buildNotifier uses Redis pub/sub when the store is Redis-backed, so
// several instances share display-refresh events. Otherwise changes
// fan out in-process only.
func buildNotifier(store storage.Store, logger zerolog.Logger) notify.Notifier {
	if rs, ok := store.(*redisstore.Store); ok {
		return notify.NewRedis(rs.Client(), logger)
	}
	return notify.NewLocal()
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
