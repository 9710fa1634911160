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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"runmatch/internal/cache"
	"runmatch/internal/config"
	"runmatch/internal/dispatch"
	"runmatch/internal/health"
	"runmatch/internal/history"
	"runmatch/internal/locate"
	"runmatch/internal/logger"
	"runmatch/internal/monitoring"
	"runmatch/internal/notify"
	"runmatch/internal/offer"
	"runmatch/internal/performer"
	"runmatch/internal/platform"
	"runmatch/internal/ranking"
	httpserver "runmatch/internal/server/http"
	"runmatch/internal/task"
	"runmatch/pkg/styles"
)

const (
	appName    = "runmatch"
	appVersion = "0.3.0"

	mongoRetryInterval = 5 * time.Second
	mongoMaxRetries    = 5
)

func main() {
	fmt.Println(styles.Banner(appName, appVersion))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.Errorf("%v", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence. An empty Mongo URI selects the in-memory backing,
	// which only makes sense for a single dev node.
	var (
		mongoSvc   *platform.MongoService
		tasks      task.Repository
		performers performer.Repository
		offers     offer.Repository
		histories  history.Repository
	)
	if cfg.MongoURI == "" {
		log.Warn("no MongoDB URI configured, running with in-memory repositories")
		tasks = task.NewMemoryRepository()
		performers = performer.NewMemoryRepository()
		offers = offer.NewMemoryRepository()
		histories = history.NewMemoryRepository()
	} else {
		mongoSvc, err = connectMongoWithRetry(ctx, cfg.MongoURI, log)
		if err != nil {
			log.Fatal("mongodb unavailable", zap.Error(err))
		}
		defer mongoSvc.Disconnect(context.Background())

		tasks = task.NewMongoRepository(mongoSvc.GetCollection(cfg.MongoDB, "tasks"))
		performers = performer.NewMongoRepository(mongoSvc.GetCollection(cfg.MongoDB, "performers"))
		offers = offer.NewMongoRepository(mongoSvc.GetCollection(cfg.MongoDB, "offers"))
		histories = history.NewMongoRepository(mongoSvc.GetCollection(cfg.MongoDB, "completed_tasks"))
	}

	// Outcome broadcast: in-process bus always, Redis when configured.
	bus := notify.NewBus()
	publishers := []notify.Publisher{bus}
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = cache.NewRedisClient(cfg)
		publishers = append(publishers, notify.NewRedisPublisher(redisClient))
		log.Info("redis broadcast enabled", zap.String("addr", cfg.RedisAddr))
	}
	publisher := notify.NewMulti(publishers...)

	// Mirror outcomes into the log for operators tailing the engine.
	events := bus.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				log.Info("event", zap.String("type", string(ev.Type)), zap.ByteString("data", ev.Data))
			}
		}
	}()

	locator := locate.New(performers)
	builder := history.NewBuilder(histories)
	ranker := ranking.New(locator, builder, ranking.Weights{
		Affinity: cfg.Weights.Affinity,
		Distance: cfg.Weights.Distance,
		Rating:   cfg.Weights.Rating,
	}, cfg.SearchRadiusMeters, cfg.MaxRating, log)

	dispatcher := dispatch.NewDispatcher(tasks, offers, ranker, publisher, cfg.OfferTTL.Std(), cfg.ScanInterval.Std(), log)
	go dispatcher.Run(ctx)

	router := httpserver.NewRouter(httpserver.Deps{
		Dispatch:   dispatch.NewHandler(dispatcher),
		Health:     health.NewHandler(health.NewService(mongoSvc, redisClient, dispatcher)),
		Monitoring: monitoring.NewHandler(monitoring.NewService(mongoSvc, dispatcher)),
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Warn("dispatcher shutdown", zap.Error(err))
	}
}

func connectMongoWithRetry(ctx context.Context, uri string, log *zap.Logger) (*platform.MongoService, error) {
	var lastErr error
	for attempt := 1; attempt <= mongoMaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		svc, err := platform.NewClient(ctx, uri)
		if err == nil {
			if attempt > 1 {
				log.Info("mongodb connected", zap.Int("attempts", attempt))
			}
			return svc, nil
		}
		lastErr = err
		log.Warn("mongodb connect failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("in", mongoRetryInterval), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(mongoRetryInterval):
		}
	}
	return nil, lastErr
}
