package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/AdiYohanes/mge-booking/internal/api"
	"github.com/AdiYohanes/mge-booking/internal/availability"
	"github.com/AdiYohanes/mge-booking/internal/booking"
	"github.com/AdiYohanes/mge-booking/internal/config"
	"github.com/AdiYohanes/mge-booking/internal/metrics"
	"github.com/AdiYohanes/mge-booking/internal/notify"
	"github.com/AdiYohanes/mge-booking/internal/rentapi"
	"github.com/AdiYohanes/mge-booking/internal/store"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("MGE_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Backend.BaseURL == "" {
		logger.Fatal().Msg("set backend.base_url in config")
	}

	db, err := store.New(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	client := rentapi.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey)
	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.Backend.CacheTTLSeconds > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, cfg.CacheTTL())
	}
	client.UseRateLimit(cfg.Backend.RateLimitPerSecond, cfg.Backend.RateLimitBurst)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncUnits(ctx, client, db, &logger)

	resolver := availability.NewResolver(cfg.HoursTable(), client, &logger)

	notifier, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create telegram notifier error")
	}

	sessions := booking.NewSessionStore(cfg.SessionTimeout())
	var managerNotifier booking.Notifier
	if notifier != nil {
		managerNotifier = notifier
	}
	manager := booking.NewManager(sessions, resolver, managerNotifier, &logger)
	manager.SetDurationLimits(cfg.Booking.MinDurationHours, cfg.Booking.MaxDurationHours)
	go manager.StartCleanup(ctx, 5*time.Minute)

	readyChecks := []func(context.Context) error{db.PingContext, client.HealthCheck}
	if rdb != nil {
		readyChecks = append(readyChecks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	metrics.Register()
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9090
	}
	go startMetricsServer(ctx, cfg.Server.MetricsPort, &logger)

	server := api.NewServer(db, db, resolver, manager, &logger, readyChecks...)
	logger.Info().Int("port", cfg.Server.Port).Msg("mge booking service started")
	if err := server.ListenAndServe(ctx, cfg.Server.Port); err != nil {
		logger.Fatal().Err(err).Msg("api server error")
	}
}

// syncUnits mirrors the backend unit catalog into the local store. A
// failed sync is not fatal: the previous catalog keeps serving.
func syncUnits(ctx context.Context, client *rentapi.Client, db *store.Store, logger *zerolog.Logger) {
	ctxSync, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	units, err := client.ListUnits(ctxSync)
	if err != nil {
		logger.Warn().Err(err).Msg("unit catalog sync failed, keeping local catalog")
		return
	}

	for _, u := range units {
		err := db.UpsertUnit(ctxSync, store.Unit{
			ID:           u.ID,
			Name:         u.Name,
			Kind:         u.Kind,
			Active:       u.Active,
			DisplayOrder: u.DisplayOrder,
		})
		if err != nil {
			logger.Error().Err(err).Int64("unit_id", u.ID).Msg("unit upsert failed")
		}
	}
	logger.Info().Int("units", len(units)).Msg("unit catalog synced")
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
