package scheduler

import (
	"context"
	"fmt"
	"time"

	"hopper_backend/internal/hopper"
	"hopper_backend/platform/config"
	"hopper_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// WorkerConfig combines the config interfaces the sweep worker needs.
type WorkerConfig interface {
	config.SchedulerConfig
	config.HopperConfig
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	svc    *hopper.Service
	window time.Duration
	log    *logger.Logger
}

func NewWorker(cfg WorkerConfig, svc *hopper.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		svc:    svc,
		window: cfg.GetRecycleWindow(),
		log:    log,
	}

	mux.HandleFunc(TaskHopperSweep, w.handleHopperSweep)

	return w, nil
}

func (w *Worker) handleHopperSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseHopperSweepPayload(task)
	if err != nil {
		return err
	}

	window := w.window
	if payload.Window != "" {
		parsed, err := time.ParseDuration(payload.Window)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("invalid sweep window %q", payload.Window)
		}
		window = parsed
	}

	reclaimed, err := w.svc.Sweep(ctx, time.Now().UTC(), window)
	if err != nil {
		// Partial progress is durable, so retrying the task only resumes
		// where the failed run stopped.
		return fmt.Errorf("sweep failed after reclaiming %d: %w", reclaimed, err)
	}

	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
