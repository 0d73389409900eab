package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vehicle-market-api/internal/config"
	"github.com/vehicle-market-api/internal/infrastructure/awsinfra"
	"github.com/vehicle-market-api/internal/infrastructure/dynamo"
	"github.com/vehicle-market-api/internal/infrastructure/google"
	jwtinfra "github.com/vehicle-market-api/internal/infrastructure/jwt"
	redisinfra "github.com/vehicle-market-api/internal/infrastructure/redis"
	s3infra "github.com/vehicle-market-api/internal/infrastructure/s3"
	"github.com/vehicle-market-api/internal/infrastructure/smtp"
	"github.com/vehicle-market-api/internal/infrastructure/sns"
	"github.com/vehicle-market-api/internal/infrastructure/sqlstore"
	transporthttp "github.com/vehicle-market-api/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := sqlstore.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := sqlstore.Migrate(db); err != nil {
		return err
	}

	awsCfg, err := awsinfra.Load(ctx, cfg, "")
	if err != nil {
		return err
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:         sqlstore.NewUserRepo(db),
		VehicleRepo:      sqlstore.NewVehicleRepo(db),
		OpinionRepo:      sqlstore.NewOpinionRepo(db),
		FavoriteRepo:     sqlstore.NewFavoriteRepo(db),
		ComparisonRepo:   sqlstore.NewComparisonRepo(db),
		PreferenceRepo:   sqlstore.NewPreferenceRepo(db),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.UserVerifications),
		Mailer:           smtp.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword),
		JWTProvider:      jwtProvider,
	}

	if cfg.S3BucketName != "" {
		deps.S3Store = s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName, cfg.S3PublicBaseURL)
	}

	// Security events are optional.
	if cfg.SecurityEventsTopicARN != "" {
		snsCfg, err := awsinfra.Load(ctx, cfg, cfg.SNSRegion)
		if err != nil {
			slog.Warn("security events disabled", "err", err)
		} else {
			deps.Events = sns.NewPublisher(snsCfg, cfg.AWSEndpointURL, cfg.SecurityEventsTopicARN)
		}
	}

	// Without Redis the per-email throttles are off.
	if cfg.RedisURL != "" {
		rdb, err := redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("redis not available, per-email throttling disabled", "err", err)
		} else {
			defer rdb.Close()
			deps.Redis = rdb
		}
	}

	if cfg.GoogleClientID != "" {
		deps.Google = google.NewVerifier(cfg.GoogleClientID)
	} else {
		slog.Warn("GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
