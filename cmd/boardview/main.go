package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smallbiznis/boardview/internal/adapter/cache"
	"github.com/smallbiznis/boardview/internal/adapter/gemini"
	"github.com/smallbiznis/boardview/internal/adapter/provider"
	"github.com/smallbiznis/boardview/internal/config"
	httptransport "github.com/smallbiznis/boardview/internal/http"
	"github.com/smallbiznis/boardview/internal/http/handler"
	apimiddleware "github.com/smallbiznis/boardview/internal/middleware"
	"github.com/smallbiznis/boardview/internal/repository"
	"github.com/smallbiznis/boardview/internal/server"
	authservice "github.com/smallbiznis/boardview/internal/service/auth"
	boardservice "github.com/smallbiznis/boardview/internal/service/board"
	"github.com/smallbiznis/boardview/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newRedisClient,
			newRequestTokenStore,
			newCredentialStore,
			newProviderClient,
			newFlowService,
			newAggregator,
			newSummarizer,
			newReportService,
			newRateLimiter,
			handler.NewBoardHandler,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

// newRedisClient connects to Redis when an address is configured. Without
// one, the stores fall back to their in-process implementations.
func newRedisClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (redis.UniversalClient, error) {
	if cfg.RedisAddr == "" {
		logger.Info("redis not configured, using in-memory stores")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newRequestTokenStore(client redis.UniversalClient) repository.RequestTokenStore {
	if client == nil {
		return cache.NewMemoryTokenStore()
	}
	return cache.NewRedisTokenStore(client)
}

func newCredentialStore(client redis.UniversalClient) repository.CredentialStore {
	if client == nil {
		return cache.NewMemoryCredentialStore()
	}
	return cache.NewRedisCredentialStore(client)
}

func newProviderClient(cfg config.Config) provider.Client {
	return provider.NewHTTPClient(cfg, nil)
}

func newFlowService(tokenStore repository.RequestTokenStore, providerClient provider.Client, cfg config.Config, logger *zap.Logger) authservice.FlowService {
	return authservice.NewFlowService(tokenStore, providerClient, cfg, logger)
}

func newAggregator(providerClient provider.Client, cfg config.Config, logger *zap.Logger) boardservice.Aggregator {
	return boardservice.NewAggregator(providerClient, cfg.AggregationConcurrency, logger)
}

func newSummarizer(cfg config.Config, logger *zap.Logger) boardservice.Summarizer {
	if cfg.GeminiAPIKey == "" {
		logger.Info("report generation disabled, no api key configured")
		return nil
	}
	return gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, nil)
}

func newReportService(summarizer boardservice.Summarizer, logger *zap.Logger) *boardservice.ReportService {
	return boardservice.NewReportService(summarizer, logger)
}

func newRateLimiter(cfg config.Config) *apimiddleware.RateLimiter {
	return apimiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
