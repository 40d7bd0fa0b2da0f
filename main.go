package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sportevents/config"
	"sportevents/cron"
	"sportevents/database"
	eventRepo "sportevents/database/repository/event"
	userRepo "sportevents/database/repository/user"
	"sportevents/handlers"
	"sportevents/metrics"
	"sportevents/middleware"
	"sportevents/routes"
	"sportevents/services/analytics"
	"sportevents/services/connectivity"
	"sportevents/services/events"
	"sportevents/services/notification"
	"sportevents/services/preferences"
	"sportevents/services/recommendation"
	"sportevents/services/search"
	"sportevents/services/storage"
	"sportevents/services/user"
	"sportevents/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// stores holds the repositories for the selected backend.
type stores struct {
	events eventRepo.EventRepository
	users  userRepo.UserRepository
	pinger connectivity.Pinger
}

func openStores(ctx context.Context, logger *zap.Logger) stores {
	if config.AppConfig.StoreBackend == "firestore" {
		if err := database.InitFirestore(ctx); err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		evRepo := eventRepo.NewFirestoreEventRepo(database.FirestoreClient)
		return stores{
			events: evRepo,
			users:  userRepo.NewFirestoreUserRepo(database.FirestoreClient),
			pinger: evRepo,
		}
	}

	if err := database.InitDB(); err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	evRepo, err := eventRepo.NewMongoEventRepo(database.Database())
	if err != nil {
		logger.Warn("main: event indexes not ensured", zap.Error(err))
	}
	usRepo, err := userRepo.NewMongoUserRepo(database.Database())
	if err != nil {
		logger.Warn("main: user indexes not ensured", zap.Error(err))
	}
	return stores{events: evRepo, users: usRepo, pinger: evRepo}
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if _, err := utils.FirebaseInit(ctx); err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	st := openStores(ctx, logger)

	if err := utils.InitCache(); err != nil {
		logger.Warn("main: redis unavailable, snapshots and preferences degraded", zap.Error(err))
	}
	redisClient := utils.GetCacheClient()

	// Connectivity gate.
	var gate connectivity.Gate
	var monitor *connectivity.Monitor
	if config.AppConfig.ForceOffline {
		logger.Warn("main: FORCE_OFFLINE set, serving cached data only")
		gate = connectivity.NewStatic(false)
	} else {
		redisPinger := connectivity.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		monitor = connectivity.NewMonitor(st.pinger, redisPinger, config.AppConfig.HealthInterval, logger)
		monitor.Start(ctx)
		gate = monitor
	}

	// Metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collectorsSet := metrics.New(reg)
	recorder := analytics.NewPrometheusRecorder(collectorsSet.AnalyticsEvents, logger)

	// Event repository façade.
	opts := []events.Option{
		events.WithRecorder(recorder),
		events.WithSnapshotStore(events.NewRedisSnapshotStore(redisClient)),
		events.WithResultCounter(collectorsSet.EventResults),
		events.WithCacheCapacity(config.AppConfig.CacheCapacity),
		events.WithEnrichConcurrency(config.AppConfig.EnrichConcurrency),
	}
	if url := config.AppConfig.ElasticsearchURL; url != "" {
		idx, err := search.NewEventIndex(ctx, url, config.AppConfig.ElasticsearchIndex, logger)
		if err != nil {
			logger.Warn("main: search index disabled", zap.Error(err))
		} else {
			opts = append(opts, events.WithSearchIndex(idx))
		}
	}
	eventService, err := events.NewEventService(st.events, gate, logger, opts...)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to create event service: %v", err)
	}

	// Profiles and images.
	imageCache, err := storage.NewProfileImageCache(config.AppConfig.ProfileImageDir)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	var mirror storage.StorageService
	cld, err := utils.Cloudinary()
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	if cld != nil {
		mirror = storage.NewStorageService(cld)
	}
	userService := user.NewUserService(st.users, imageCache, mirror, logger)

	// Auth.
	var verifier middleware.TokenVerifier
	if config.AppConfig.AuthMode == "jwt" {
		verifier = middleware.NewJWTVerifier(config.AppConfig.JWTSecret)
	} else {
		authClient, err := utils.FirebaseApp.Auth(ctx)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to create firebase auth client: %v", err)
		}
		verifier = middleware.NewFirebaseVerifier(authClient)
	}

	// Background recommendations.
	prefs := preferences.NewRedisStore(redisClient)
	var worker *cron.Worker
	messagingClient, err := utils.FirebaseApp.Messaging(ctx)
	if err != nil {
		logger.Warn("main: FCM unavailable, recommendations disabled", zap.Error(err))
	} else {
		notifier, err := notification.NewDefaultNotificationService(st.users, messagingClient, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		queue := cron.NewQueueClient()
		defer queue.Close()
		job := recommendation.NewJob(gate, prefs, eventService, notifier, queue, logger)
		worker, err = cron.NewRecommendationWorker(job, config.AppConfig.RecommendationCron, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		worker.Start()
	}

	handlerBundle := &handlers.HandlerBundle{
		Events:      eventService,
		Users:       userService,
		Prefs:       prefs,
		Recorder:    recorder,
		Verifier:    verifier,
		Gatherer:    reg,
		ImageMaxDim: config.AppConfig.ProfileImageMaxDim,
		Logger:      logger,
	}
	if monitor != nil {
		handlerBundle.Monitor = monitor
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.MetricsMiddleware(collectorsSet))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))
	routes.RegisterRoutes(router, handlerBundle)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + config.AppConfig.AppPort,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if worker != nil {
		worker.Shutdown()
	}
	stop()
	database.Close(shutdownCtx)

	logger.Sugar().Info("main: server stopped gracefully")
}
