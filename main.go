package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"youtube-card/domain/card"
	"youtube-card/domain/repository"
	"youtube-card/infrastructure/cache"
	"youtube-card/infrastructure/clients/renderfarm"
	youtubeclient "youtube-card/infrastructure/clients/youtube"
	"youtube-card/infrastructure/configuration"
	"youtube-card/infrastructure/imagefetch"
	"youtube-card/infrastructure/logger"
	"youtube-card/infrastructure/persistence"
	"youtube-card/infrastructure/pubsub"
	"youtube-card/infrastructure/raster"
	"youtube-card/infrastructure/ratelimit"
	"youtube-card/infrastructure/realtime"
	"youtube-card/infrastructure/servicebus"
	"youtube-card/infrastructure/utils"
	httpHandler "youtube-card/interfaces/http"
	"youtube-card/server"
	"youtube-card/usecase"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const purgeInterval = time.Hour

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

// stoppable is implemented by the event publishers.
type stoppable interface {
	Stop()
}

// purger is implemented by the SQL metadata caches.
type purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	app := configuration.C.App

	redisClient, err := cache.NewCache(ctx, configuration.C.RedisClient)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Redis is required for rate limiting and render jobs")
	}
	logger.GetLogger().Info("Redis client initialized successfully.")

	metadataCache, db, err := InitiateMetadataCache(ctx, redisClient)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Metadata cache initialization failed")
	}
	if p, ok := metadataCache.(purger); ok {
		g.Go(func() error { return purgeExpired(ctx, p) })
	}

	limiter := ratelimit.NewSlidingWindowLimiter(redisClient, map[repository.QuotaClass]ratelimit.Quota{
		repository.QuotaAbuse: {
			Limit:  configuration.C.RateLimit.Abuse.Limit,
			Window: configuration.C.RateLimit.Abuse.Window(),
		},
		repository.QuotaFree: {
			Limit:    configuration.C.RateLimit.Free.Limit,
			Window:   configuration.C.RateLimit.Free.Window(),
			FailOpen: true,
		},
	})

	youtubeConfig := configuration.GetYouTubeConfig()
	youtubeClient, err := youtubeclient.NewYouTubeClient(ctx, &youtubeclient.Config{
		ClientID:     youtubeConfig.ClientID,
		ClientSecret: youtubeConfig.ClientSecret,
		RedirectURL:  youtubeConfig.RedirectURL,
		AccessToken:  youtubeConfig.AccessToken,
		RefreshToken: youtubeConfig.RefreshToken,
		APIKey:       youtubeConfig.APIKey,
	})
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Failed to initialize YouTube client")
	}
	logger.GetLogger().WithField("mode", youtubeClient.Mode()).Info("YouTube client initialized")

	// images are always cached in Redis, whatever backend holds the metadata
	images := imagefetch.NewImageFetcher(cache.NewMetadataCache(redisClient), configuration.C.Cache.ImageTTL(), nil)

	pool := raster.NewPool(configuration.C.Raster.Workers, configuration.C.Raster.QueueDepth, configuration.C.Raster.Timeout())
	var measurer card.TextMeasurer
	if fonts := pool.Start(); fonts != nil {
		measurer = raster.NewMeasurer(fonts)
	}

	youtubeUseCase := usecase.NewYouTubeUseCase(youtubeClient, metadataCache, limiter, usecase.YouTubeOptions{
		VideoTTL:     configuration.C.Cache.VideoTTL(),
		ChannelTTL:   configuration.C.Cache.ChannelTTL(),
		SupportEmail: configuration.C.RateLimit.SupportEmail,
	}).WithImages(images)
	cardUseCase := usecase.NewCardUseCase(youtubeUseCase, pool, measurer).WithImages(images)

	publisher := InitiateEventPublisher(ctx)

	var renderHandler httpHandler.IRenderHandler
	farm, err := renderfarm.NewClient(configuration.C.RenderFarm.BaseURL, configuration.C.RenderFarm.APIKey)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Render farm not available - video export disabled")
	} else {
		orchestrator := usecase.NewRenderOrchestrator(farm, cache.NewRenderJobStore(redisClient), usecase.RenderOptions{
			PollInterval:  configuration.C.RenderFarm.PollInterval(),
			PollTimeout:   configuration.C.RenderFarm.PollTimeout(),
			MaxPollErrors: configuration.C.RenderFarm.MaxPollErrors,
			JobTTL:        configuration.C.RenderFarm.JobTTL(),
		}).WithVideos(youtubeUseCase)
		if publisher != nil {
			orchestrator = orchestrator.WithPublisher(publisher)
		}
		renderHandler = httpHandler.NewRenderHandler(orchestrator, realtime.NewRenderHub().WithContext(ctx))
	}

	checks := map[string]httpHandler.HealthCheck{
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}
	if db != nil {
		checks[configuration.C.Cache.Backend] = db.PingContext
	}

	youtubeHandler := httpHandler.NewYouTubeHandler(youtubeUseCase, images)
	cardHandler := httpHandler.NewCardHandler(cardUseCase, app.PublicURL)
	healthHandler := httpHandler.NewHealthHandler(checks)

	router := server.InitiateRouter(youtubeHandler, cardHandler, renderHandler, healthHandler, limiter)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	pool.Stop()
	if s, ok := publisher.(stoppable); ok {
		s.Stop()
	}
	if db != nil {
		_ = db.Close()
	}
	_ = redisClient.Close()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateMetadataCache opens the configured metadata cache backend. The returned
// *sql.DB is nil for Redis.
func InitiateMetadataCache(ctx context.Context, redisClient *redis.Client) (repository.IMetadataCache, *sql.DB, error) {
	switch backend := configuration.C.Cache.Backend; backend {
	case "redis":
		return cache.NewMetadataCache(redisClient), nil, nil
	case "postgres":
		db, err := persistence.NewPostgreSQLDB(ctx, configuration.C.Database.Psql)
		if err != nil {
			return nil, nil, err
		}
		if err := persistence.EnsureMetadataCacheSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return persistence.NewMetadataCacheRepository(db, utils.GetCurrentTime), db, nil
	case "mssql":
		db, err := persistence.NewMSSQLDB(ctx, configuration.C.Database.Mssql)
		if err != nil {
			return nil, nil, err
		}
		if err := persistence.EnsureMetadataCacheSchemaMSSQL(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return persistence.NewMetadataCacheRepositoryMSSQL(db, utils.GetCurrentTime), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// InitiateEventPublisher returns the configured render event publisher, or nil when
// finished renders are not announced.
func InitiateEventPublisher(ctx context.Context) repository.IRenderEventPublisher {
	switch configuration.C.Events.Backend {
	case "pubsub":
		client, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while instantiate PubSub")
			return nil
		}
		return pubsub.NewRenderEventPublisher(client, configuration.C.Pubsub.RenderTopic)
	case "servicebus":
		client, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace, configuration.C.ServiceBus.ConnectionString)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - render events disabled")
			return nil
		}
		return servicebus.NewRenderEventPublisher(client, configuration.C.ServiceBus.RenderQueue)
	}
	logger.GetLogger().Info("Render events disabled")
	return nil
}

func purgeExpired(ctx context.Context, p purger) error {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			purgeCtx, cancelPurge := context.WithTimeout(ctx, 30*time.Second)
			n, err := p.PurgeExpired(purgeCtx)
			cancelPurge()
			if err != nil {
				logger.GetLogger().WithField("error", err).Warn("Failed to purge expired cache entries")
				continue
			}
			logger.GetLogger().WithField("purged", n).Debug("Expired cache entries purged")
		}
	}
}
