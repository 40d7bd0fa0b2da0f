package cron

import (
	"fmt"
	"time"

	"sportevents/config"
	"sportevents/services/recommendation"
	"sportevents/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker runs the recommendation scheduler and task server in the background.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

func redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// NewQueueClient returns a client for enqueueing tasks on the worker's queue.
func NewQueueClient() *asynq.Client {
	return asynq.NewClient(redisOpt())
}

// NewMux routes recommendation tasks to job.
func NewMux(job *recommendation.Job) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeRecommendationSweep, job.HandleSweep)
	mux.HandleFunc(tasks.TypeRecommendationUser, job.HandleUser)
	return mux
}

// NewRecommendationWorker registers the periodic sweep under cronSpec.
func NewRecommendationWorker(job *recommendation.Job, cronSpec string, logger *zap.Logger) (*Worker, error) {
	sugar := logger.Sugar()
	srv := asynq.NewServer(redisOpt(), asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
		Logger:      sugar,
	})

	scheduler := asynq.NewScheduler(redisOpt(), &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   sugar,
	})
	sweep, opts := tasks.NewRecommendationSweepTask()
	entryID, err := scheduler.Register(cronSpec, sweep, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to register recommendation sweep %q: %w", cronSpec, err)
	}
	logger.Info("recommendation sweep registered", zap.String("spec", cronSpec), zap.String("entryId", entryID))

	return &Worker{server: srv, scheduler: scheduler, mux: NewMux(job), logger: logger}, nil
}

// Start launches the server and scheduler, retrying with backoff while Redis is unavailable.
func (w *Worker) Start() {
	go func() {
		const maxAttempts = 5
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			err := w.server.Start(w.mux)
			if err == nil {
				break
			}
			w.logger.Warn("failed to start task server",
				zap.Int("attempt", attempt), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempt == maxAttempts {
				w.logger.Error("task server not started, recommendations disabled")
				return
			}
			time.Sleep(time.Duration(attempt*2) * time.Second)
		}

		if err := w.scheduler.Start(); err != nil {
			w.logger.Error("failed to start scheduler", zap.Error(err))
		}
	}()
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}
