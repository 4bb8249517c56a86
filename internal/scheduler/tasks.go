package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskHopperSweep = "hopper.sweep"

type HopperSweepPayload struct {
	// Window overrides the configured recycle window when set (Go duration
	// string). Empty means use the configured value.
	Window      string    `json:"window,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

func NewHopperSweepTask(payload HopperSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHopperSweep, data), nil
}

func ParseHopperSweepPayload(task *asynq.Task) (HopperSweepPayload, error) {
	var payload HopperSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return HopperSweepPayload{}, err
	}
	return payload, nil
}
