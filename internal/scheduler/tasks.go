package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskTransitionCommandDue = "engagement.transition.command.due"

const TaskReconcileSweep = "engagement.reconcile.sweep"

type TransitionCommandDuePayload struct {
	CommandID   string `json:"commandId"`
	DecisionKey string `json:"decisionKey"`
	CommandType string `json:"commandType"`
	LeadID      string `json:"leadId"`
}

type ReconcileSweepPayload struct {
	// Tick identifies the interval boundary that produced this sweep, used
	// for task dedup across scheduler replicas.
	Tick string `json:"tick"`
}

func NewTransitionCommandDueTask(payload TransitionCommandDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTransitionCommandDue, data), nil
}

func ParseTransitionCommandDuePayload(task *asynq.Task) (TransitionCommandDuePayload, error) {
	var payload TransitionCommandDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TransitionCommandDuePayload{}, err
	}
	return payload, nil
}

func NewReconcileSweepTask(payload ReconcileSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcileSweep, data), nil
}

func ParseReconcileSweepPayload(task *asynq.Task) (ReconcileSweepPayload, error) {
	var payload ReconcileSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReconcileSweepPayload{}, err
	}
	return payload, nil
}
