package scheduler

import (
	"context"
	"fmt"
	"time"

	"hopper_backend/platform/config"
	"hopper_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// SweepDispatcher enqueues a recycling sweep task on a fixed interval.
type SweepDispatcher struct {
	client   *asynq.Client
	queue    string
	interval time.Duration
	log      *logger.Logger
}

// DispatcherConfig combines the config interfaces the dispatcher needs.
type DispatcherConfig interface {
	config.SchedulerConfig
	config.HopperConfig
}

func NewSweepDispatcher(cfg DispatcherConfig, log *logger.Logger) (*SweepDispatcher, error) {
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

	interval := cfg.GetSweepInterval()
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &SweepDispatcher{
		client:   asynq.NewClient(opt),
		queue:    queue,
		interval: interval,
		log:      log,
	}, nil
}

func (d *SweepDispatcher) Close() error {
	if d == nil || d.client == nil {
		return nil
	}
	return d.client.Close()
}

func (d *SweepDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		task, err := NewHopperSweepTask(HopperSweepPayload{RequestedAt: time.Now().UTC()})
		if err != nil {
			d.log.Warn("sweep task build failed", "error", err)
			continue
		}

		if _, err := d.client.EnqueueContext(ctx, task, asynq.Queue(d.queue), asynq.MaxRetry(3)); err != nil {
			d.log.Warn("sweep enqueue failed", "error", err)
			continue
		}

		d.log.Info("sweep enqueued", "interval", d.interval.String())
	}
}
